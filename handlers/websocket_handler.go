package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/venue-system/live"
)

type WebSocketHandler struct {
	hub      *live.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler: checkOrigin nil разрешает любые источники.
func NewWebSocketHandler(hub *live.Hub, checkOrigin func(r *http.Request) bool, logger *slog.Logger) *WebSocketHandler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// ServeWs подписывает клиента на обновления события.
// Клиент подключается к /ws/events/{eventID}
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	eventID := urlParam(r, "eventID")
	if eventID == "" {
		errorResponse(w, r, http.StatusBadRequest, "missing event id")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отправляет HTTP-ошибку клиенту.
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("event_id", eventID),
			slog.Any("error", err),
		)
		return
	}

	room := live.EventRoom(eventID)
	client := live.NewClient(h.hub, conn, room)
	if !h.hub.Join(client) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	h.logger.DebugContext(r.Context(), "websocket client registered", slog.String("room", room))
}
