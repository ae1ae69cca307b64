package handlers

import (
	"net/http"
	"time"

	"github.com/Dosada05/venue-system/middleware"
	"github.com/Dosada05/venue-system/services"
)

type AuthHandler struct {
	authService  services.AuthService
	secureCookie bool
}

// NewAuthHandler: secureCookie включается, когда сайт обслуживается по https.
func NewAuthHandler(authService services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput

	err := readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	err = writeJSON(w, http.StatusOK, result, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	successResponse(w, r, "Logged out")
}

// Me возвращает текущую сессию администратора.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
