package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed = errors.New("validation failed")
	ErrEventInactive    = errors.New("event is not active")
	ErrSignupsClosed    = errors.New("signups are closed for this event")
	ErrEventFull        = errors.New("event is full")
	ErrAlreadyScheduled = errors.New("event is already in the schedule")
	ErrNoRecipients     = errors.New("no signups found for this event")
	ErrEventHasNoDate   = errors.New("event has no date")
	ErrCannotMove       = errors.New("item is already at the edge of the list")

	// Ограничение частоты
	ErrRateLimited = errors.New("too many signup attempts, please try again later")

	// Ошибки аутентификации
	ErrUnauthorized           = errors.New("authentication required")
	ErrAuthInvalidCredentials = errors.New("invalid email or password")

	// Внешние коллабораторы
	ErrUploadsDisabled = errors.New("file uploads are not configured")
	ErrMailFailed      = errors.New("failed to send email")

	// Ошибки, специфичные для сущностей
	ErrEventNotFound        = errors.New("event not found")
	ErrSectionNotFound      = errors.New("section not found")
	ErrSignupNotFound       = errors.New("signup not found")
	ErrScheduleItemNotFound = errors.New("schedule item not found")
)

// ValidationError содержит сообщения по полям и совпадает с ErrValidationFailed.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidationFailed.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
