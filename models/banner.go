package models

import "time"

// DefaultBannerID: фиксированный ключ единственной строки баннера.
const DefaultBannerID = "default"

type MessageBanner struct {
	ID              string    `json:"-" db:"id"`
	Message         string    `json:"message" db:"message"`
	IsActive        bool      `json:"isActive" db:"is_active"`
	BackgroundColor string    `json:"backgroundColor" db:"background_color"`
	TextColor       string    `json:"textColor" db:"text_color"`
	ShowCloseButton bool      `json:"showCloseButton" db:"show_close_button"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

func DefaultBanner() MessageBanner {
	return MessageBanner{
		ID:              DefaultBannerID,
		Message:         "Welcome to First Jax",
		IsActive:        false,
		BackgroundColor: "#3B82F6",
		TextColor:       "#FFFFFF",
		ShowCloseButton: true,
	}
}
