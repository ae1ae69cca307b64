package live

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, EventRoom(r.URL.Query().Get("event")))
		if !hub.Join(client) {
			conn.Close()
			return
		}
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, eventID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?event=" + eventID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastToRoomReachesSubscribersOnly(t *testing.T) {
	hub, srv := startHub(t)

	a := dial(t, srv, "ev-1")
	b := dial(t, srv, "ev-2")

	require.Eventually(t, func() bool {
		return hub.RoomSize(EventRoom("ev-1")) == 1 && hub.RoomSize(EventRoom("ev-2")) == 1
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastToRoom(EventRoom("ev-1"), Message{
		Type:    MessageAttendanceUpdated,
		Payload: map[string]int{"attendeeCount": 3},
		RoomID:  EventRoom("ev-1"),
	})

	_ = a.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := a.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Type    string         `json:"type"`
		Payload map[string]int `json:"payload"`
		RoomID  string         `json:"room_id"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, MessageAttendanceUpdated, got.Type)
	assert.Equal(t, 3, got.Payload["attendeeCount"])
	assert.Equal(t, "event_ev-1", got.RoomID)

	_ = b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = b.ReadMessage()
	assert.Error(t, err, "subscriber of another event must not receive the message")
}

func TestClientDisconnectEmptiesRoom(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv, "ev-9")
	require.Eventually(t, func() bool { return hub.RoomSize(EventRoom("ev-9")) == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.RoomSize(EventRoom("ev-9")) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastToEmptyRoomIsNoop(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NotPanics(t, func() {
		hub.BroadcastToRoom(EventRoom("nobody"), Message{Type: MessageEventDeleted})
	})
}

func TestStoppedHubDoesNotBlockJoinOrLeave(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	cancel()

	select {
	case <-hub.Done():
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	client := &Client{Hub: hub, Send: make(chan []byte, 1), Room: EventRoom("ev-1")}
	finished := make(chan bool, 1)
	go func() {
		joined := hub.Join(client)
		hub.Leave(client)
		finished <- joined
	}()

	select {
	case joined := <-finished:
		assert.False(t, joined)
	case <-time.After(time.Second):
		t.Fatal("Join/Leave blocked after the hub stopped")
	}
	assert.Zero(t, hub.RoomSize(EventRoom("ev-1")))
}

func TestShutdownReleasesConnectedClients(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	pumpsDone := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, EventRoom("ev-5"))
		if !assert.True(t, hub.Join(client)) {
			conn.Close()
			return
		}
		go client.WritePump()
		go func() {
			client.ReadPump()
			close(pumpsDone)
		}()
	}))
	defer srv.Close()

	dial(t, srv, "ev-5")
	require.Eventually(t, func() bool { return hub.RoomSize(EventRoom("ev-5")) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-pumpsDone:
	case <-time.After(2 * time.Second):
		t.Fatal("read pump is stuck after hub shutdown")
	}
}
