package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Dosada05/venue-system/middleware"
	"github.com/Dosada05/venue-system/services"
)

type EventHandler struct {
	eventService        services.EventService
	notificationService services.NotificationService
	calendarService     services.CalendarService
	qrCodeService       services.QRCodeService
}

func NewEventHandler(
	es services.EventService,
	ns services.NotificationService,
	cs services.CalendarService,
	qs services.QRCodeService,
) *EventHandler {
	return &EventHandler{
		eventService:        es,
		notificationService: ns,
		calendarService:     cs,
		qrCodeService:       qs,
	}
}

// updateEventRequest: тело PUT /events: id передаётся вместе с полями.
type updateEventRequest struct {
	ID string `json:"id"`
	services.EventInput
}

// ListEvents обслуживает GET /events, GET /events?id= и GET /events?sectionId=.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if id := optionalQuery(r, "id"); id != nil {
		h.writeEvent(w, r, *id)
		return
	}

	events, err := h.eventService.ListEvents(r.Context(), optionalQuery(r, "sectionId"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, events, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	h.writeEvent(w, r, urlParam(r, "eventID"))
}

func (h *EventHandler) writeEvent(w http.ResponseWriter, r *http.Request, id string) {
	event, err := h.eventService.GetEvent(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, event, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		errorResponse(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var input services.EventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.CreateEvent(r.Context(), input, actorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, event, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req updateEventRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		failedValidationResponse(w, r, map[string]string{"id": "is required"})
		return
	}

	event, err := h.eventService.UpdateEvent(r.Context(), strings.TrimSpace(req.ID), req.EventInput)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, event, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := requiredQuery(w, r, "id")
	if !ok {
		return
	}

	if err := h.eventService.DeleteEvent(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, r, "Event deleted successfully")
}

func (h *EventHandler) ListQuickLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.eventService.ListQuickLinks(r.Context(), urlParam(r, "eventID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, links, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) ReplaceQuickLinks(w http.ResponseWriter, r *http.Request) {
	var input struct {
		QuickLinks []services.QuickLinkInput `json:"quickLinks"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.QuickLinks == nil {
		input.QuickLinks = []services.QuickLinkInput{}
	}

	links, err := h.eventService.ReplaceQuickLinks(r.Context(), urlParam(r, "eventID"), input.QuickLinks)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, links, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) SendBulkEmail(w http.ResponseWriter, r *http.Request) {
	var input services.BulkEmailInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	count, err := h.notificationService.BulkEventEmail(r.Context(), urlParam(r, "eventID"), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success":        true,
		"message":        pluralParticipants(count),
		"recipientCount": count,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func pluralParticipants(n int) string {
	if n == 1 {
		return "Email sent to 1 participant"
	}
	return fmt.Sprintf("Email sent to %d participants", n)
}

func (h *EventHandler) DownloadCalendar(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "eventID")
	data, err := h.calendarService.EventCalendar(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="event-`+id+`.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *EventHandler) SignupQRCode(w http.ResponseWriter, r *http.Request) {
	size, err := intQuery(r, "size")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	png, err := h.qrCodeService.SignupQRCode(r.Context(), urlParam(r, "eventID"), size)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
