package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/venue-system/cache"
	"github.com/Dosada05/venue-system/live"
	"github.com/Dosada05/venue-system/models"
	"github.com/Dosada05/venue-system/repositories"
)

var (
	ErrSignupCreationFailed = errors.New("failed to create signup")
	ErrSignupUpdateFailed   = errors.New("failed to update signup")
	ErrSignupDeleteFailed   = errors.New("failed to delete signup")
)

// RateLimiter расходуется один раз на каждую попытку, прошедшую проверку полей.
type RateLimiter interface {
	Allow(key string) bool
}

type SignupService interface {
	SubmitSignup(ctx context.Context, input SubmitSignupInput, clientID string) (*models.Signup, error)
	ListSignups(ctx context.Context, eventID *string) ([]models.Signup, error)
	UpdateSignup(ctx context.Context, id string, input UpdateSignupInput) (*models.Signup, error)
	DeleteSignup(ctx context.Context, id string) error
	ExportCSV(ctx context.Context, eventID *string, w io.Writer) error
}

type SubmitSignupInput struct {
	Name                   string                 `json:"name" validate:"required"`
	Email                  string                 `json:"email" validate:"required,email"`
	Phone                  string                 `json:"phone" validate:"required"`
	EventID                string                 `json:"eventId" validate:"required"`
	Notes                  *string                `json:"notes"`
	AdditionalParticipants models.ParticipantList `json:"additionalParticipants" validate:"dive"`
}

func (in *SubmitSignupInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.EventID = strings.TrimSpace(in.EventID)
	in.Notes = trimPtr(in.Notes)

	kept := make(models.ParticipantList, 0, len(in.AdditionalParticipants))
	for _, p := range in.AdditionalParticipants {
		p.Name = strings.TrimSpace(p.Name)
		p.Email = strings.TrimSpace(p.Email)
		if p.Name == "" && p.Email == "" {
			continue
		}
		kept = append(kept, p)
	}
	in.AdditionalParticipants = kept
}

type UpdateSignupInput struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

type signupService struct {
	tx         repositories.Transactor
	eventRepo  repositories.EventRepository
	signupRepo repositories.SignupRepository
	limiter    RateLimiter
	notifier   NotificationService
	fx         SideEffects
	now        func() time.Time
}

func NewSignupService(
	tx repositories.Transactor,
	eventRepo repositories.EventRepository,
	signupRepo repositories.SignupRepository,
	limiter RateLimiter,
	notifier NotificationService,
	fx SideEffects,
) SignupService {
	return &signupService{
		tx:         tx,
		eventRepo:  eventRepo,
		signupRepo: signupRepo,
		limiter:    limiter,
		notifier:   notifier,
		fx:         fx,
		now:        time.Now,
	}
}

func (s *signupService) SubmitSignup(ctx context.Context, input SubmitSignupInput, clientID string) (*models.Signup, error) {
	input.normalize()
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	if !s.limiter.Allow(clientID) {
		return nil, ErrRateLimited
	}

	named := CountNamedParticipants(input.AdditionalParticipants)

	var (
		event     *models.Event
		signup    *models.Signup
		attendees int
	)
	// Строка события блокируется до коммита, поэтому подсчёт и вставка не гоняются.
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		ev, err := s.eventRepo.GetForUpdate(ctx, exec, input.EventID)
		if err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				return ErrEventNotFound
			}
			return fmt.Errorf("%w: %w", ErrSignupCreationFailed, err)
		}

		if !ev.IsActive {
			return ErrEventInactive
		}
		if !ev.AllowSignups {
			return ErrSignupsClosed
		}

		count, err := s.signupRepo.CountByEvent(ctx, exec, ev.ID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSignupCreationFailed, err)
		}
		if !CanAdmit(ev, count, named) {
			return ErrEventFull
		}

		su := &models.Signup{
			Name:                   input.Name,
			Email:                  input.Email,
			Phone:                  input.Phone,
			EventID:                ev.ID,
			Notes:                  input.Notes,
			Status:                 models.SignupStatusRegistered,
			AdditionalParticipants: input.AdditionalParticipants,
			PartySize:              1 + named,
			CreatedAt:              s.now().UTC(),
		}
		if err := s.signupRepo.Create(ctx, exec, su); err != nil {
			if errors.Is(err, repositories.ErrSignupEventInvalid) {
				return ErrEventNotFound
			}
			return fmt.Errorf("%w: %w", ErrSignupCreationFailed, err)
		}

		event, signup, attendees = ev, su, count+su.PartySize
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterSignup(ctx, event, signup, attendees)
	return signup, nil
}

func (s *signupService) afterSignup(ctx context.Context, event *models.Event, signup *models.Signup, attendees int) {
	s.fx.invalidate(ctx, cache.TagEvents, cache.EventTag(event.ID), cache.TagSignups)
	s.fx.broadcast(event.ID, live.MessageAttendanceUpdated, newAttendanceUpdate(event, attendees))

	ev, su := *event, *signup
	s.fx.submit("signup-confirmation", func(ctx context.Context) error {
		return s.notifier.SignupConfirmation(ctx, &ev, &su)
	})
	s.fx.Logger.InfoContext(ctx, "signup registered",
		slog.String("signup_id", signup.ID),
		slog.String("event_id", event.ID),
		slog.Int("party_size", signup.PartySize),
		slog.Int("attendees", attendees),
	)
}

func (s *signupService) ListSignups(ctx context.Context, eventID *string) ([]models.Signup, error) {
	signups, err := s.signupRepo.List(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list signups: %w", err)
	}
	if signups == nil {
		return []models.Signup{}, nil
	}
	return signups, nil
}

func (s *signupService) UpdateSignup(ctx context.Context, id string, input UpdateSignupInput) (*models.Signup, error) {
	status := models.SignupStatusRegistered
	if input.Status != nil && strings.TrimSpace(*input.Status) != "" {
		status = models.SignupStatus(strings.TrimSpace(*input.Status))
	}
	if !status.Valid() {
		return nil, newValidationError("status", "must be one of: registered attended cancelled waitlisted no_show")
	}

	signup, err := s.signupRepo.UpdateStatusNotes(ctx, id, status, trimPtr(input.Notes))
	if err != nil {
		if errors.Is(err, repositories.ErrSignupNotFound) {
			return nil, ErrSignupNotFound
		}
		return nil, fmt.Errorf("%w (id: %s): %w", ErrSignupUpdateFailed, id, err)
	}

	s.fx.invalidate(ctx, cache.TagSignups)
	return signup, nil
}

func (s *signupService) DeleteSignup(ctx context.Context, id string) error {
	signup, err := s.signupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSignupNotFound) {
			return ErrSignupNotFound
		}
		return fmt.Errorf("%w (id: %s): %w", ErrSignupDeleteFailed, id, err)
	}

	if err := s.signupRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrSignupNotFound) {
			return ErrSignupNotFound
		}
		return fmt.Errorf("%w (id: %s): %w", ErrSignupDeleteFailed, id, err)
	}

	s.fx.invalidate(ctx, cache.TagEvents, cache.EventTag(signup.EventID), cache.TagSignups)
	s.publishAttendance(ctx, signup.EventID)
	return nil
}

// publishAttendance перечитывает событие и число участников и рассылает обновление.
func (s *signupService) publishAttendance(ctx context.Context, eventID string) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		s.fx.Logger.WarnContext(ctx, "attendance update skipped", "event_id", eventID, slog.Any("error", err))
		return
	}
	count, err := s.signupRepo.CountByEvent(ctx, nil, eventID)
	if err != nil {
		s.fx.Logger.WarnContext(ctx, "attendance update skipped", "event_id", eventID, slog.Any("error", err))
		return
	}
	s.fx.broadcast(eventID, live.MessageAttendanceUpdated, newAttendanceUpdate(event, count))
}

var csvHeader = []string{
	"Name", "Email", "Phone", "Event", "Status", "Notes",
	"Additional Participants", "Party Size", "Registered At",
}

func (s *signupService) ExportCSV(ctx context.Context, eventID *string, w io.Writer) error {
	signups, err := s.signupRepo.List(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to list signups for export: %w", err)
	}
	events, err := s.eventRepo.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to list events for export: %w", err)
	}
	titles := make(map[string]string, len(events))
	for _, e := range events {
		titles[e.ID] = e.Title
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, su := range signups {
		additional := make([]string, 0, len(su.AdditionalParticipants))
		for _, p := range su.AdditionalParticipants {
			switch {
			case p.Name != "" && p.Email != "":
				additional = append(additional, fmt.Sprintf("%s <%s>", p.Name, p.Email))
			case p.Name != "":
				additional = append(additional, p.Name)
			case p.Email != "":
				additional = append(additional, p.Email)
			}
		}
		record := []string{
			su.Name,
			su.Email,
			su.Phone,
			titles[su.EventID],
			string(su.Status),
			derefString(su.Notes),
			strings.Join(additional, "; "),
			strconv.Itoa(su.PartySize),
			su.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
