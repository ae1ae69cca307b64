package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/Dosada05/venue-system/repositories"
)

const (
	qrDefaultSize = 256
	qrMaxSize     = 1024
)

// QREncoder совпадает с сигнатурой qrcode.Encode; подменяется в тестах.
type QREncoder func(content string, level qrcode.RecoveryLevel, size int) ([]byte, error)

type QRCodeService interface {
	// SignupQRCode возвращает PNG со ссылкой на публичную страницу регистрации события.
	SignupQRCode(ctx context.Context, eventID string, size int) ([]byte, error)
}

type qrCodeService struct {
	eventRepo     repositories.EventRepository
	publicBaseURL string
	encode        QREncoder
}

func NewQRCodeService(eventRepo repositories.EventRepository, publicBaseURL string, encode QREncoder) QRCodeService {
	if encode == nil {
		encode = qrcode.Encode
	}
	return &qrCodeService{
		eventRepo:     eventRepo,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		encode:        encode,
	}
}

func (s *qrCodeService) SignupURL(eventID string) string {
	return s.publicBaseURL + "/events/" + eventID + "/signup"
}

func (s *qrCodeService) SignupQRCode(ctx context.Context, eventID string, size int) ([]byte, error) {
	if size == 0 {
		size = qrDefaultSize
	}
	if size < 0 || size > qrMaxSize {
		return nil, newValidationError("size", fmt.Sprintf("must be between 1 and %d", qrMaxSize))
	}

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %s for qr code: %w", eventID, err)
	}

	png, err := s.encode(s.SignupURL(eventID), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate qr code: %w", err)
	}
	return png, nil
}
