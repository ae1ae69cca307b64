package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/venue-system/services"
)

// Запас сверх лимита файла на заголовки multipart.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	uploadService services.UploadService
}

func NewUploadHandler(us services.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: us}
}

// UploadImage принимает multipart-поле "file" и возвращает {key, url}.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(services.MaxUploadSize); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			failedValidationResponse(w, r, map[string]string{"file": "file exceeds the 8 MB limit"})
			return
		}
		badRequestResponse(w, r, errors.New("request must be multipart/form-data"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		failedValidationResponse(w, r, map[string]string{"file": "is required"})
		return
	}
	defer file.Close()

	result, err := h.uploadService.UploadImage(r.Context(), header.Filename, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"key": result.Key, "url": result.Location}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UploadHandler) DeleteFiles(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FileURLs []string `json:"fileUrls"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.uploadService.DeleteFiles(r.Context(), input.FileURLs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success": true,
		"results": result.Results,
		"summary": result.Summary,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
