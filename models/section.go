package models

import "time"

// Section группирует события в публичном списке.
type Section struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	Order       int       `json:"order" db:"order"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// MoveDirection: сосед, с которым меняется order при перестановке.
type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

func (d MoveDirection) Valid() bool {
	return d == MoveUp || d == MoveDown
}
