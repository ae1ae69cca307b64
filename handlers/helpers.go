package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/venue-system/services"
)

type jsonResponse map[string]interface{}

const maxBodyBytes = 1_048_576 // 1MB

// readJSON декодирует одно JSON-значение из тела запроса.
// Неизвестные поля игнорируются: клиенты присылают объекты целиком.
func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBodyBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // ошибка программиста: передан не указатель
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.ErrorContext(r.Context(), "failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func failedValidationResponse(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	env := jsonResponse{"error": services.ErrValidationFailed.Error(), "fields": fields}
	if err := writeJSON(w, http.StatusBadRequest, env, nil); err != nil {
		slog.ErrorContext(r.Context(), "failed to write validation response", slog.Any("error", err))
	}
}

func successResponse(w http.ResponseWriter, r *http.Request, message string) {
	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true, "message": message}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Статусы для доменных ошибок. Клиенту уходит текст sentinel-ошибки, а не вся цепочка.
var serviceErrorStatuses = []struct {
	err    error
	status int
}{
	{services.ErrEventNotFound, http.StatusNotFound},
	{services.ErrSectionNotFound, http.StatusNotFound},
	{services.ErrSignupNotFound, http.StatusNotFound},
	{services.ErrScheduleItemNotFound, http.StatusNotFound},
	{services.ErrNotFound, http.StatusNotFound},

	{services.ErrEventInactive, http.StatusBadRequest},
	{services.ErrSignupsClosed, http.StatusBadRequest},
	{services.ErrEventFull, http.StatusBadRequest},
	{services.ErrAlreadyScheduled, http.StatusBadRequest},
	{services.ErrNoRecipients, http.StatusBadRequest},
	{services.ErrEventHasNoDate, http.StatusBadRequest},
	{services.ErrCannotMove, http.StatusBadRequest},

	{services.ErrRateLimited, http.StatusTooManyRequests},

	{services.ErrAuthInvalidCredentials, http.StatusUnauthorized},
	{services.ErrUnauthorized, http.StatusUnauthorized},

	{services.ErrUploadsDisabled, http.StatusServiceUnavailable},
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		failedValidationResponse(w, r, verr.Fields)
		return
	}
	if errors.Is(err, services.ErrValidationFailed) {
		failedValidationResponse(w, r, map[string]string{})
		return
	}

	for _, m := range serviceErrorStatuses {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				slog.WarnContext(r.Context(), "service unavailable", slog.Any("error", err))
			}
			errorResponse(w, r, m.status, m.err.Error())
			return
		}
	}

	serverErrorResponse(w, r, err)
}

// optionalQuery возвращает nil для отсутствующего или пустого параметра.
func optionalQuery(r *http.Request, name string) *string {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil
	}
	return &v
}

func requiredQuery(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := optionalQuery(r, name)
	if v == nil {
		failedValidationResponse(w, r, map[string]string{name: "is required"})
		return "", false
	}
	return *v, true
}

func urlParam(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}

func intQuery(r *http.Request, name string) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("query parameter %q must be an integer", name)
	}
	return n, nil
}
