package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listing struct {
	IDs []string `json:"ids"`
}

func TestRedisCacheGetMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCache(client, time.Minute)

	mock.ExpectGet("venue:events:all").RedisNil()

	var dst listing
	found, err := c.Get(context.Background(), "events:all", &dst)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheGetHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCache(client, time.Minute)

	mock.ExpectGet("venue:events:all").SetVal(`{"ids":["a","b"]}`)

	var dst listing
	found, err := c.Get(context.Background(), "events:all", &dst)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, dst.IDs)
}

func TestRedisCacheGetCorrupt(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCache(client, time.Minute)

	mock.ExpectGet("venue:events:all").SetVal(`{not json`)

	var dst listing
	found, err := c.Get(context.Background(), "events:all", &dst)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestRedisCacheSetRecordsTags(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCache(client, time.Minute)

	mock.ExpectSet("venue:events:all", []byte(`{"ids":["a"]}`), time.Minute).SetVal("OK")
	mock.ExpectSAdd("venue:tag:events", "venue:events:all").SetVal(1)
	mock.ExpectExpire("venue:tag:events", 2*time.Minute).SetVal(true)

	err := c.Set(context.Background(), "events:all", listing{IDs: []string{"a"}}, TagEvents)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheInvalidateTags(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCache(client, time.Minute)

	mock.ExpectSMembers("venue:tag:events").SetVal([]string{"venue:events:all", "venue:events:section:s1"})
	mock.ExpectDel("venue:events:all", "venue:events:section:s1", "venue:tag:events").SetVal(3)
	mock.ExpectSMembers("venue:tag:event:ev-1").SetErr(errors.New("connection reset"))

	err := c.InvalidateTags(context.Background(), TagEvents, EventTag("ev-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event:ev-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	found, err := c.Get(context.Background(), "k", &listing{})
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.Set(context.Background(), "k", 1, "t"))
	assert.NoError(t, c.InvalidateTags(context.Background(), "t"))
}
