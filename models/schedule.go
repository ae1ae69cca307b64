package models

import "time"

// ScheduleItem отмечает событие как включённое в публичное расписание.
type ScheduleItem struct {
	ID        string    `json:"id" db:"id"`
	EventID   string    `json:"eventId" db:"event_id"`
	Order     int       `json:"order" db:"order"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Event *Event `json:"event,omitempty" db:"-"`
}
