package handlers

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/Dosada05/venue-system/middleware"
	"github.com/Dosada05/venue-system/services"
)

type SignupHandler struct {
	signupService services.SignupService
}

func NewSignupHandler(ss services.SignupService) *SignupHandler {
	return &SignupHandler{signupService: ss}
}

type updateSignupRequest struct {
	ID string `json:"id"`
	services.UpdateSignupInput
}

// SubmitSignup: публичная регистрация; лимит считается по IP клиента.
func (h *SignupHandler) SubmitSignup(w http.ResponseWriter, r *http.Request) {
	var input services.SubmitSignupInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	signup, err := h.signupService.SubmitSignup(r.Context(), input, middleware.ClientIP(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, signup, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SignupHandler) ListSignups(w http.ResponseWriter, r *http.Request) {
	signups, err := h.signupService.ListSignups(r.Context(), optionalQuery(r, "eventId"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, signups, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SignupHandler) UpdateSignup(w http.ResponseWriter, r *http.Request) {
	var req updateSignupRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		failedValidationResponse(w, r, map[string]string{"id": "is required"})
		return
	}

	signup, err := h.signupService.UpdateSignup(r.Context(), id, req.UpdateSignupInput)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, signup, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SignupHandler) DeleteSignup(w http.ResponseWriter, r *http.Request) {
	id, ok := requiredQuery(w, r, "id")
	if !ok {
		return
	}

	if err := h.signupService.DeleteSignup(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, r, "Signup deleted successfully")
}

// ExportSignups отдаёт CSV. Файл собирается в памяти, чтобы ошибка не оборвала ответ на середине.
func (h *SignupHandler) ExportSignups(w http.ResponseWriter, r *http.Request) {
	eventID := optionalQuery(r, "eventId")

	var buf bytes.Buffer
	if err := h.signupService.ExportCSV(r.Context(), eventID, &buf); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	name := "signups"
	if eventID != nil {
		name += "-" + *eventID
	}
	name += "-" + time.Now().UTC().Format("20060102") + ".csv"

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
