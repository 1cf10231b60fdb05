package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/senyabanana/bid-award/internal/models"
	"github.com/senyabanana/bid-award/internal/services"
	"github.com/senyabanana/bid-award/internal/utils"
)

// maxLoginBodyBytes caps the login request body.
const maxLoginBodyBytes = 4 << 10

// AuthHandler serves login and logout.
type AuthHandler struct {
	Service  *services.AuthService
	Timeout  time.Duration
	TrustXFF bool
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(service *services.AuthService, timeout time.Duration, trustXFF bool) *AuthHandler {
	return &AuthHandler{Service: service, Timeout: timeout, TrustXFF: trustXFF}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.SendErrorResponse(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.Service.Login(ctx, req, utils.ClientIP(r, h.TrustXFF))
	if err != nil {
		utils.SendError(w, err, "failed to log in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token.AccessToken,
		Path:     "/",
		Expires:  time.Unix(token.ExpiresAt, 0),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	utils.SendJSON(w, http.StatusOK, token)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	if err := h.Service.Logout(ctx, utils.BearerToken(r)); err != nil {
		utils.SendError(w, err, "failed to log out")
		return
	}

	http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}
