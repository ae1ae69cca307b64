package services

import (
	"context"
	"fmt"
	"strings"
)

type ContactService interface {
	Submit(ctx context.Context, input ContactInput) error
}

type ContactInput struct {
	Name    string `json:"name" validate:"required,min=2"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,min=10"`
}

type contactService struct {
	mailer     Mailer
	adminEmail string
}

func NewContactService(mailer Mailer, adminEmail string) ContactService {
	return &contactService{mailer: mailer, adminEmail: adminEmail}
}

func (s *contactService) Submit(ctx context.Context, input ContactInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Message = strings.TrimSpace(input.Message)
	if err := validateStruct(input); err != nil {
		return err
	}

	text, html, err := renderEmail("contact_thanks", input)
	if err != nil {
		return err
	}

	var bcc []string
	if s.adminEmail != "" {
		bcc = []string{s.adminEmail}
	}
	err = s.mailer.Send(ctx, Message{
		To:      []string{input.Email},
		Bcc:     bcc,
		Subject: fmt.Sprintf("Thank you for contacting JAX , %s!", input.Name),
		Text:    text,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMailFailed, err)
	}
	return nil
}
