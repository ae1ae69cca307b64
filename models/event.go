package models

import (
	"encoding/json"
	"strings"
	"time"
)

// EventType соответствует CHECK-ограничению в таблице events.
type EventType string

const (
	EventTypeEvent       EventType = "event"
	EventTypeLeague      EventType = "league"
	EventTypeTournament  EventType = "tournament"
	EventTypeWorkshop    EventType = "workshop"
	EventTypeSocial      EventType = "social"
	EventTypeCompetition EventType = "competition"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypeEvent, EventTypeLeague, EventTypeTournament,
		EventTypeWorkshop, EventTypeSocial, EventTypeCompetition:
		return true
	}
	return false
}

type LogoType string

const (
	LogoTypeJax LogoType = "jax"
	LogoTypeJsl LogoType = "jsl"
)

func (t LogoType) Valid() bool {
	return t == LogoTypeJax || t == LogoTypeJsl
}

// Event представляет мероприятие с опциональной вместимостью и настройками записи.
type Event struct {
	ID                    string     `json:"id" db:"id"`
	Title                 string     `json:"title" db:"title"`
	Description           *string    `json:"description,omitempty" db:"description"`
	EventDate             *time.Time `json:"eventDate,omitempty" db:"event_date"`
	Location              *string    `json:"location,omitempty" db:"location"`
	MaxAttendees          *int       `json:"maxAttendees,omitempty" db:"max_attendees"`
	IsActive              bool       `json:"isActive" db:"is_active"`
	ShowCapacity          bool       `json:"showCapacity" db:"show_capacity"`
	SectionID             *string    `json:"sectionId,omitempty" db:"section_id"`
	EventType             EventType  `json:"eventType" db:"event_type"`
	LogoType              LogoType   `json:"logoType" db:"logo_type"`
	AllowSignups          bool       `json:"allowSignups" db:"allow_signups"`
	ParticipantsPerSignup int        `json:"participantsPerSignup" db:"participants_per_signup"`
	FeaturedImage         *string    `json:"featuredImage,omitempty" db:"featured_image"`
	GalleryImages         []string   `json:"galleryImages" db:"gallery_images"`
	DetailedContent       *string    `json:"detailedContent,omitempty" db:"detailed_content"`
	CreatedBy             string     `json:"createdBy" db:"created_by"`
	CreatedAt             time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time  `json:"updatedAt" db:"updated_at"`

	// Вычисляемые поля (не мапятся напрямую)
	AttendeeCount     int         `json:"attendeeCount" db:"-"`
	RemainingCapacity *int        `json:"remainingCapacity,omitempty" db:"-"`
	QuickLinks        []QuickLink `json:"quickLinks,omitempty" db:"-"`
}

// MediaURLs возвращает обложку и галерею без повторов, в этом порядке.
func (e *Event) MediaURLs() []string {
	seen := make(map[string]struct{})
	var urls []string
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	if e.FeaturedImage != nil {
		add(*e.FeaturedImage)
	}
	for _, u := range e.GalleryImages {
		add(u)
	}
	return urls
}

// ParseGalleryImages разбирает сохранённый JSON-массив. Пустое или битое
// значение даёт пустой список.
func ParseGalleryImages(raw *string) []string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return []string{}
	}
	var urls []string
	if err := json.Unmarshal([]byte(*raw), &urls); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// EncodeGalleryImages обратна ParseGalleryImages; пустой список хранится как NULL.
func EncodeGalleryImages(urls []string) *string {
	if len(urls) == 0 {
		return nil
	}
	b, err := json.Marshal(urls)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}
