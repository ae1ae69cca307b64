package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/Dosada05/venue-system/repositories"
)

const calendarEventDuration = 2 * time.Hour

type CalendarService interface {
	// EventCalendar формирует iCalendar-файл для одного события.
	EventCalendar(ctx context.Context, eventID string) ([]byte, error)
}

type CalendarConfig struct {
	Name            string
	DefaultLocation string
	PublicBaseURL   string
}

type calendarService struct {
	eventRepo repositories.EventRepository
	cfg       CalendarConfig
	now       func() time.Time
}

func NewCalendarService(eventRepo repositories.EventRepository, cfg CalendarConfig) CalendarService {
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &calendarService{
		eventRepo: eventRepo,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *calendarService) EventCalendar(ctx context.Context, eventID string) ([]byte, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %s for calendar: %w", eventID, err)
	}
	if event.EventDate == nil {
		return nil, ErrEventHasNoDate
	}

	start := event.EventDate.UTC()
	location := s.cfg.DefaultLocation
	if loc := derefString(event.Location); strings.TrimSpace(loc) != "" {
		location = loc
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//" + s.cfg.Name + "//Events//EN")
	cal.SetXWRCalName(s.cfg.Name)

	vevent := cal.AddEvent(event.ID + "@" + hostOf(s.cfg.PublicBaseURL))
	vevent.SetDtStampTime(s.now().UTC())
	vevent.SetStartAt(start)
	vevent.SetEndAt(start.Add(calendarEventDuration))
	vevent.SetSummary(event.Title)
	if desc := derefString(event.Description); desc != "" {
		vevent.SetDescription(desc)
	}
	vevent.SetLocation(location)
	vevent.SetURL(s.cfg.PublicBaseURL + "/events/" + event.ID)

	return []byte(cal.Serialize()), nil
}

func hostOf(baseURL string) string {
	host := baseURL
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/:"); i >= 0 {
		host = host[:i]
	}
	if host == "" {
		return "localhost"
	}
	return host
}
