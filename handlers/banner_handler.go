package handlers

import (
	"net/http"

	"github.com/Dosada05/venue-system/services"
)

type BannerHandler struct {
	bannerService services.BannerService
}

func NewBannerHandler(bs services.BannerService) *BannerHandler {
	return &BannerHandler{bannerService: bs}
}

func (h *BannerHandler) GetBanner(w http.ResponseWriter, r *http.Request) {
	banner, err := h.bannerService.GetBanner(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, banner, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BannerHandler) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	var input services.BannerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	banner, err := h.bannerService.UpdateBanner(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, banner, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
