package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/venue-system/cache"
	"github.com/Dosada05/venue-system/live"
	"github.com/Dosada05/venue-system/models"
	"github.com/Dosada05/venue-system/repositories"
	"github.com/Dosada05/venue-system/storage"
)

var (
	ErrEventCreationFailed = errors.New("failed to create event")
	ErrEventUpdateFailed   = errors.New("failed to update event")
	ErrEventDeleteFailed   = errors.New("failed to delete event")
	ErrQuickLinksFailed    = errors.New("failed to replace quick links")
)

type EventService interface {
	CreateEvent(ctx context.Context, input EventInput, actorID string) (*models.Event, error)
	UpdateEvent(ctx context.Context, id string, input EventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context, sectionID *string) ([]models.Event, error)
	ListQuickLinks(ctx context.Context, eventID string) ([]models.QuickLink, error)
	ReplaceQuickLinks(ctx context.Context, eventID string, links []QuickLinkInput) ([]models.QuickLink, error)
}

// EventInput: все изменяемые поля события. Пустые опциональные поля получают значения по умолчанию.
type EventInput struct {
	Title                 string   `json:"title" validate:"required"`
	Description           *string  `json:"description"`
	EventDate             *string  `json:"eventDate"`
	Location              *string  `json:"location"`
	MaxAttendees          *int     `json:"maxAttendees" validate:"omitempty,gte=0"`
	IsActive              *bool    `json:"isActive"`
	ShowCapacity          *bool    `json:"showCapacity"`
	SectionID             *string  `json:"sectionId"`
	EventType             *string  `json:"eventType" validate:"omitempty,oneof=event league tournament workshop social competition"`
	LogoType              *string  `json:"logoType" validate:"omitempty,oneof=jax jsl"`
	AllowSignups          *bool    `json:"allowSignups"`
	ParticipantsPerSignup *int     `json:"participantsPerSignup" validate:"omitempty,gte=1"`
	FeaturedImage         *string  `json:"featuredImage"`
	GalleryImages         []string `json:"galleryImages"`
	DetailedContent       *string  `json:"detailedContent"`

	// AddToSchedule: nil оставляет расписание как есть, true добавляет (идемпотентно), false удаляет.
	AddToSchedule *bool `json:"addToSchedule"`
	// QuickLinks: nil оставляет ссылки, любой другой срез полностью их заменяет.
	QuickLinks []QuickLinkInput `json:"quickLinks"`
}

type QuickLinkInput struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

var eventDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseEventDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, newValidationError("eventDate", "must be an ISO 8601 date or date-time")
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// buildEvent применяет значения по умолчанию так же, как при создании.
func buildEvent(input EventInput) (*models.Event, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	date, err := parseEventDate(input.EventDate)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:                 input.Title,
		Description:           trimPtr(input.Description),
		EventDate:             date,
		Location:              trimPtr(input.Location),
		IsActive:              boolOr(input.IsActive, true),
		ShowCapacity:          boolOr(input.ShowCapacity, true),
		SectionID:             trimPtr(input.SectionID),
		EventType:             models.EventTypeEvent,
		LogoType:              models.LogoTypeJsl,
		AllowSignups:          boolOr(input.AllowSignups, true),
		ParticipantsPerSignup: 1,
		FeaturedImage:         trimPtr(input.FeaturedImage),
		DetailedContent:       input.DetailedContent,
		GalleryImages:         []string{},
	}
	if input.MaxAttendees != nil && *input.MaxAttendees > 0 {
		event.MaxAttendees = input.MaxAttendees
	}
	if input.EventType != nil && *input.EventType != "" {
		event.EventType = models.EventType(*input.EventType)
	}
	if input.LogoType != nil && *input.LogoType != "" {
		event.LogoType = models.LogoType(*input.LogoType)
	}
	if input.ParticipantsPerSignup != nil {
		event.ParticipantsPerSignup = *input.ParticipantsPerSignup
	}
	for _, u := range input.GalleryImages {
		if u = strings.TrimSpace(u); u != "" {
			event.GalleryImages = append(event.GalleryImages, u)
		}
	}
	return event, nil
}

// normalizeQuickLinks отбрасывает пары без title или url; order: индекс среди оставшихся.
func normalizeQuickLinks(in []QuickLinkInput) []models.QuickLink {
	links := make([]models.QuickLink, 0, len(in))
	for _, l := range in {
		title, url := strings.TrimSpace(l.Title), strings.TrimSpace(l.URL)
		if title == "" || url == "" {
			continue
		}
		links = append(links, models.QuickLink{Title: title, URL: url, Order: len(links)})
	}
	return links
}

type eventService struct {
	tx         repositories.Transactor
	eventRepo  repositories.EventRepository
	signupRepo repositories.SignupRepository
	linkRepo   repositories.QuickLinkRepository
	schedRepo  repositories.ScheduleRepository
	uploader   storage.FileUploader
	fx         SideEffects
}

func NewEventService(
	tx repositories.Transactor,
	eventRepo repositories.EventRepository,
	signupRepo repositories.SignupRepository,
	linkRepo repositories.QuickLinkRepository,
	schedRepo repositories.ScheduleRepository,
	uploader storage.FileUploader,
	fx SideEffects,
) EventService {
	return &eventService{
		tx:         tx,
		eventRepo:  eventRepo,
		signupRepo: signupRepo,
		linkRepo:   linkRepo,
		schedRepo:  schedRepo,
		uploader:   uploader,
		fx:         fx,
	}
}

func mapEventWriteError(err error, wrap error) error {
	switch {
	case errors.Is(err, repositories.ErrEventNotFound):
		return ErrEventNotFound
	case errors.Is(err, repositories.ErrEventSectionInvalid):
		return newValidationError("sectionId", "section does not exist")
	default:
		return fmt.Errorf("%w: %w", wrap, err)
	}
}

// applyRelations выполняет побочные изменения расписания и ссылок внутри транзакции события.
func (s *eventService) applyRelations(ctx context.Context, exec repositories.SQLExecutor, event *models.Event, input EventInput) (scheduleChanged bool, err error) {
	if input.AddToSchedule != nil {
		if *input.AddToSchedule {
			_, scheduleChanged, err = ensureScheduled(ctx, s.schedRepo, exec, event.ID)
		} else {
			scheduleChanged, err = unschedule(ctx, s.schedRepo, exec, event.ID)
		}
		if err != nil {
			return false, err
		}
	}
	if input.QuickLinks != nil {
		links := normalizeQuickLinks(input.QuickLinks)
		if err := s.linkRepo.ReplaceForEvent(ctx, exec, event.ID, links); err != nil {
			return false, fmt.Errorf("%w: %w", ErrQuickLinksFailed, err)
		}
		event.QuickLinks = links
	}
	return scheduleChanged, nil
}

func (s *eventService) CreateEvent(ctx context.Context, input EventInput, actorID string) (*models.Event, error) {
	event, err := buildEvent(input)
	if err != nil {
		return nil, err
	}
	event.CreatedBy = actorID

	var scheduleChanged bool
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.eventRepo.Create(ctx, exec, event); err != nil {
			return mapEventWriteError(err, ErrEventCreationFailed)
		}
		changed, err := s.applyRelations(ctx, exec, event, input)
		scheduleChanged = changed
		return err
	})
	if err != nil {
		return nil, err
	}

	annotateCapacity(event, 0)
	s.afterWrite(ctx, event, scheduleChanged)
	s.fx.Logger.InfoContext(ctx, "event created", slog.String("event_id", event.ID), slog.String("actor", actorID))
	return event, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, id string, input EventInput) (*models.Event, error) {
	event, err := buildEvent(input)
	if err != nil {
		return nil, err
	}
	event.ID = id

	var scheduleChanged bool
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.eventRepo.Update(ctx, exec, event); err != nil {
			return mapEventWriteError(err, ErrEventUpdateFailed)
		}
		changed, err := s.applyRelations(ctx, exec, event, input)
		scheduleChanged = changed
		return err
	})
	if err != nil {
		return nil, err
	}

	count, err := s.signupRepo.CountByEvent(ctx, nil, id)
	if err != nil {
		s.fx.Logger.WarnContext(ctx, "attendee count unavailable after update", "event_id", id, slog.Any("error", err))
	}
	annotateCapacity(event, count)
	s.afterWrite(ctx, event, scheduleChanged)
	return event, nil
}

func (s *eventService) afterWrite(ctx context.Context, event *models.Event, scheduleChanged bool) {
	tags := []string{cache.TagEvents, cache.EventTag(event.ID)}
	if scheduleChanged {
		tags = append(tags, cache.TagSchedule)
	}
	s.fx.invalidate(ctx, tags...)
	s.fx.broadcast(event.ID, live.MessageEventUpdated, event)
}

func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("%w (id: %s): %w", ErrEventDeleteFailed, id, err)
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("%w (id: %s): %w", ErrEventDeleteFailed, id, err)
	}

	s.fx.invalidate(ctx, cache.TagEvents, cache.EventTag(id), cache.TagSchedule, cache.TagSignups)
	s.fx.broadcast(id, live.MessageEventDeleted, map[string]string{"eventId": id})

	if urls := event.MediaURLs(); len(urls) > 0 {
		s.fx.submit("event-media-cleanup", func(ctx context.Context) error {
			return s.cleanupMedia(ctx, id, urls)
		})
	}
	s.fx.Logger.InfoContext(ctx, "event deleted", slog.String("event_id", id))
	return nil
}

func (s *eventService) cleanupMedia(ctx context.Context, eventID string, urls []string) error {
	results := storage.DeleteURLs(ctx, s.uploader, urls)
	var failed []string
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r.URL)
			s.fx.Logger.WarnContext(ctx, "media cleanup failed",
				slog.String("event_id", eventID),
				slog.String("url", r.URL),
				slog.String("error", r.Error),
			)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d media files not deleted for event %s", len(failed), len(results), eventID)
	}
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	key := "event:" + id
	return cached(ctx, s.fx, key, []string{cache.TagEvents, cache.EventTag(id)}, func() (*models.Event, error) {
		var (
			event *models.Event
			links []models.QuickLink
			count int
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			event, err = s.eventRepo.GetByID(gctx, id)
			return err
		})
		g.Go(func() error {
			var err error
			links, err = s.linkRepo.ListByEvent(gctx, id)
			return err
		})
		g.Go(func() error {
			var err error
			count, err = s.signupRepo.CountByEvent(gctx, nil, id)
			return err
		})
		if err := g.Wait(); err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				return nil, ErrEventNotFound
			}
			return nil, fmt.Errorf("failed to get event %s: %w", id, err)
		}
		event.QuickLinks = links
		annotateCapacity(event, count)
		return event, nil
	})
}

func (s *eventService) ListEvents(ctx context.Context, sectionID *string) ([]models.Event, error) {
	key := "events:all"
	if sectionID != nil {
		key = "events:section:" + *sectionID
	}
	return cached(ctx, s.fx, key, []string{cache.TagEvents}, func() ([]models.Event, error) {
		events, err := s.eventRepo.List(ctx, sectionID)
		if err != nil {
			return nil, fmt.Errorf("failed to list events: %w", err)
		}
		ids := make([]string, len(events))
		for i := range events {
			ids[i] = events[i].ID
		}
		counts, err := s.signupRepo.CountsByEvent(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to count attendees: %w", err)
		}
		for i := range events {
			annotateCapacity(&events[i], counts[events[i].ID])
		}
		if events == nil {
			events = []models.Event{}
		}
		return events, nil
	})
}

func (s *eventService) ListQuickLinks(ctx context.Context, eventID string) ([]models.QuickLink, error) {
	links, err := s.linkRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quick links for event %s: %w", eventID, err)
	}
	return links, nil
}

func (s *eventService) ReplaceQuickLinks(ctx context.Context, eventID string, in []QuickLinkInput) ([]models.QuickLink, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrQuickLinksFailed, err)
	}

	links := normalizeQuickLinks(in)
	if err := s.linkRepo.ReplaceForEvent(ctx, nil, eventID, links); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrQuickLinksFailed, err)
	}

	s.fx.invalidate(ctx, cache.TagEvents, cache.EventTag(eventID))
	return links, nil
}
