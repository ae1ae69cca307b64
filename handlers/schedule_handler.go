package handlers

import (
	"net/http"
	"strings"

	"github.com/Dosada05/venue-system/services"
)

type ScheduleHandler struct {
	scheduleService services.ScheduleService
}

func NewScheduleHandler(ss services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: ss}
}

func (h *ScheduleHandler) ListSchedule(w http.ResponseWriter, r *http.Request) {
	items, err := h.scheduleService.ListSchedule(r.Context(), optionalQuery(r, "eventId"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, items, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScheduleHandler) AddToSchedule(w http.ResponseWriter, r *http.Request) {
	var input struct {
		EventID string `json:"eventId"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	eventID := strings.TrimSpace(input.EventID)
	if eventID == "" {
		failedValidationResponse(w, r, map[string]string{"eventId": "is required"})
		return
	}

	item, err := h.scheduleService.AddToSchedule(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, item, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScheduleHandler) RemoveFromSchedule(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requiredQuery(w, r, "eventId")
	if !ok {
		return
	}

	if err := h.scheduleService.RemoveFromSchedule(r.Context(), eventID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, r, "Event removed from schedule")
}

func (h *ScheduleHandler) MoveScheduleItem(w http.ResponseWriter, r *http.Request) {
	direction, ok := readMove(w, r)
	if !ok {
		return
	}

	items, err := h.scheduleService.MoveScheduleItem(r.Context(), urlParam(r, "eventID"), direction)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, items, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
