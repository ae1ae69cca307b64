package handlers

import (
	"net/http"
	"strings"

	"github.com/Dosada05/venue-system/models"
	"github.com/Dosada05/venue-system/services"
)

type SectionHandler struct {
	sectionService services.SectionService
}

func NewSectionHandler(ss services.SectionService) *SectionHandler {
	return &SectionHandler{sectionService: ss}
}

type updateSectionRequest struct {
	ID string `json:"id"`
	services.SectionInput
}

type moveRequest struct {
	Direction models.MoveDirection `json:"direction"`
}

// readMove читает {direction: up|down}; при ошибке ответ уже отправлен.
func readMove(w http.ResponseWriter, r *http.Request) (models.MoveDirection, bool) {
	var req moveRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return "", false
	}
	return req.Direction, true
}

func (h *SectionHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.sectionService.ListSections(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, sections, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SectionHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	var input services.SectionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	section, err := h.sectionService.CreateSection(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, section, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SectionHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	var req updateSectionRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		failedValidationResponse(w, r, map[string]string{"id": "is required"})
		return
	}

	section, err := h.sectionService.UpdateSection(r.Context(), id, req.SectionInput)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, section, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SectionHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	id, ok := requiredQuery(w, r, "id")
	if !ok {
		return
	}

	if err := h.sectionService.DeleteSection(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, r, "Section deleted successfully")
}

func (h *SectionHandler) MoveSection(w http.ResponseWriter, r *http.Request) {
	direction, ok := readMove(w, r)
	if !ok {
		return
	}

	sections, err := h.sectionService.MoveSection(r.Context(), urlParam(r, "sectionID"), direction)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, sections, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
