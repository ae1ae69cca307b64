package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/venue-system/models"
	"github.com/Dosada05/venue-system/repositories"
)

const (
	notAnnounced     = "TBD"
	confirmationDate = "Monday, January 2, 2006"
)

type NotificationService interface {
	// SignupConfirmation пишет основному участнику и каждому дополнительному,
	// указавшему имя и email. Администратор получает копию основного письма в BCC.
	SignupConfirmation(ctx context.Context, event *models.Event, signup *models.Signup) error
	// BulkEventEmail отправляет одно письмо в BCC всем участникам события и возвращает число получателей.
	BulkEventEmail(ctx context.Context, eventID string, input BulkEmailInput) (int, error)
}

type BulkEmailInput struct {
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type notificationService struct {
	mailer     Mailer
	eventRepo  repositories.EventRepository
	signupRepo repositories.SignupRepository
	adminEmail string
}

func NewNotificationService(
	mailer Mailer,
	eventRepo repositories.EventRepository,
	signupRepo repositories.SignupRepository,
	adminEmail string,
) NotificationService {
	return &notificationService{
		mailer:     mailer,
		eventRepo:  eventRepo,
		signupRepo: signupRepo,
		adminEmail: adminEmail,
	}
}

func (s *notificationService) adminBcc() []string {
	if s.adminEmail == "" {
		return nil
	}
	return []string{s.adminEmail}
}

type confirmationData struct {
	Name       string
	EventTitle string
	Date       string
	Location   string
}

func (s *notificationService) SignupConfirmation(ctx context.Context, event *models.Event, signup *models.Signup) error {
	data := confirmationData{
		EventTitle: event.Title,
		Date:       notAnnounced,
		Location:   notAnnounced,
	}
	if event.EventDate != nil {
		data.Date = event.EventDate.Format(confirmationDate)
	}
	if event.Location != nil && strings.TrimSpace(*event.Location) != "" {
		data.Location = *event.Location
	}

	type recipient struct {
		name, email string
		bcc         []string
	}
	recipients := []recipient{{name: signup.Name, email: signup.Email, bcc: s.adminBcc()}}
	for _, p := range signup.AdditionalParticipants {
		email := strings.TrimSpace(p.Email)
		if !p.Named() || email == "" {
			continue
		}
		recipients = append(recipients, recipient{name: strings.TrimSpace(p.Name), email: email})
	}

	var errs []error
	for _, r := range recipients {
		data.Name = r.name
		text, html, err := renderEmail("signup_confirmation", data)
		if err != nil {
			return err
		}
		err = s.mailer.Send(ctx, Message{
			To:      []string{r.email},
			Bcc:     r.bcc,
			Subject: "Registration Confirmed - " + event.Title,
			Text:    text,
			HTML:    html,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("confirmation to %s: %w", r.email, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrMailFailed, errors.Join(errs...))
	}
	return nil
}

type bulkData struct {
	EventTitle string
	Message    string
	Lines      []string
}

func (s *notificationService) BulkEventEmail(ctx context.Context, eventID string, input BulkEmailInput) (int, error) {
	input.Subject = strings.TrimSpace(input.Subject)
	input.Message = strings.TrimSpace(input.Message)
	if err := validateStruct(input); err != nil {
		return 0, err
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return 0, ErrEventNotFound
		}
		return 0, fmt.Errorf("failed to load event %s: %w", eventID, err)
	}

	signups, err := s.signupRepo.List(ctx, &eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to list signups for event %s: %w", eventID, err)
	}
	if len(signups) == 0 {
		return 0, ErrNoRecipients
	}

	emails := collectParticipantEmails(signups)
	if len(emails) == 0 {
		return 0, ErrNoRecipients
	}

	text, html, err := renderEmail("bulk_event", bulkData{
		EventTitle: event.Title,
		Message:    input.Message,
		Lines:      strings.Split(input.Message, "\n"),
	})
	if err != nil {
		return 0, err
	}

	err = s.mailer.Send(ctx, Message{
		To:      s.adminBcc(),
		Bcc:     emails,
		Subject: fmt.Sprintf("[%s] %s", event.Title, input.Subject),
		Text:    text,
		HTML:    html,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMailFailed, err)
	}
	return len(emails), nil
}

// collectParticipantEmails собирает адреса основных и дополнительных участников без дублей (без учёта регистра).
func collectParticipantEmails(signups []models.Signup) []string {
	seen := make(map[string]struct{})
	var emails []string
	add := func(email string) {
		email = strings.TrimSpace(email)
		if email == "" {
			return
		}
		key := strings.ToLower(email)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		emails = append(emails, email)
	}
	for _, s := range signups {
		add(s.Email)
		for _, p := range s.AdditionalParticipants {
			add(p.Email)
		}
	}
	return emails
}
