package handlers

import (
	"net/http"

	"github.com/Dosada05/venue-system/services"
)

type ContactHandler struct {
	contactService services.ContactService
}

func NewContactHandler(cs services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: cs}
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input services.ContactInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.contactService.Submit(r.Context(), input); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "Email sent successfully"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
