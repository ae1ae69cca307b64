package models

// QuickLink: внешняя ссылка, принадлежащая событию. Заменяется целиком.
type QuickLink struct {
	ID      string `json:"id" db:"id"`
	EventID string `json:"eventId" db:"event_id"`
	Title   string `json:"title" db:"title"`
	URL     string `json:"url" db:"url"`
	Order   int    `json:"order" db:"order"`
}
