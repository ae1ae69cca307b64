package services

import (
	"context"
	"log/slog"

	"github.com/Dosada05/venue-system/cache"
	"github.com/Dosada05/venue-system/live"
	"github.com/Dosada05/venue-system/models"
	"github.com/Dosada05/venue-system/tasks"
)

// SideEffects объединяет побочные действия изменяющих сервисов.
// Их ошибки только логируются и не возвращаются вызывающему.
type SideEffects struct {
	Tasks  tasks.Submitter
	Cache  cache.Cache
	Live   live.Publisher
	Logger *slog.Logger
}

func (fx SideEffects) invalidate(ctx context.Context, tags ...string) {
	if fx.Cache == nil {
		return
	}
	if err := fx.Cache.InvalidateTags(ctx, tags...); err != nil {
		fx.Logger.WarnContext(ctx, "cache invalidation failed", slog.Any("tags", tags), slog.Any("error", err))
	}
}

func (fx SideEffects) broadcast(eventID, messageType string, payload interface{}) {
	if fx.Live == nil {
		return
	}
	room := live.EventRoom(eventID)
	fx.Live.BroadcastToRoom(room, live.Message{Type: messageType, Payload: payload, RoomID: room})
}

func (fx SideEffects) submit(name string, fn tasks.Task) {
	if fx.Tasks == nil {
		return
	}
	fx.Tasks.Submit(name, fn)
}

// cached читает значение из кэша; при промахе загружает и сохраняет под тегами.
func cached[T any](ctx context.Context, fx SideEffects, key string, tags []string, load func() (T, error)) (T, error) {
	var value T
	if fx.Cache != nil {
		found, err := fx.Cache.Get(ctx, key, &value)
		if err != nil {
			fx.Logger.WarnContext(ctx, "cache read failed", "key", key, slog.Any("error", err))
		} else if found {
			return value, nil
		}
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if fx.Cache != nil {
		if err := fx.Cache.Set(ctx, key, value, tags...); err != nil {
			fx.Logger.WarnContext(ctx, "cache write failed", "key", key, slog.Any("error", err))
		}
	}
	return value, nil
}

// AttendanceUpdate отправляется подписчикам после изменения числа участников события.
type AttendanceUpdate struct {
	EventID           string `json:"eventId"`
	AttendeeCount     int    `json:"attendeeCount"`
	RemainingCapacity *int   `json:"remainingCapacity,omitempty"`
}

func newAttendanceUpdate(event *models.Event, count int) AttendanceUpdate {
	return AttendanceUpdate{
		EventID:           event.ID,
		AttendeeCount:     count,
		RemainingCapacity: RemainingCapacity(event, count),
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
