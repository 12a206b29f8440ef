package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fieldstone/gatekeeper/internal/auth"
	"github.com/fieldstone/gatekeeper/internal/gate"
	"github.com/fieldstone/gatekeeper/internal/models"
	"github.com/fieldstone/gatekeeper/internal/services"
	"github.com/fieldstone/gatekeeper/pkg/httpx"
)

// AuthHandler exposes the login/logout surface behind the security gate
type AuthHandler struct {
	service *services.AuthService
	cookies auth.CookieConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service *services.AuthService, cookies auth.CookieConfig) *AuthHandler {
	return &AuthHandler{service: service, cookies: cookies}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	rc := gate.FromHTTP(r)
	result, err := h.service.Login(r.Context(), req.Email, req.Password, rc)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTooManyAttempts):
			httpx.WriteTooManyRequests(w, models.ErrTooManyAttempts.Error())
		case errors.Is(err, models.ErrInvalidCredentials):
			httpx.WriteUnauthorized(w, models.ErrInvalidCredentials.Error())
		default:
			httpx.WriteInternalError(w, "internal server error")
		}
		return
	}

	maxAge := int(time.Until(result.ExpiresAt).Seconds())
	auth.SetSessionCookie(w, result.Token, maxAge, h.cookies)

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User: userResponse{
			ID:    result.User.ID,
			Email: result.User.Email,
			Role:  result.User.Role,
		},
	})
}

// Logout handles POST /api/auth/logout (authenticated)
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		httpx.WriteUnauthorized(w, "authentication required")
		return
	}

	rc := gate.FromHTTP(r)
	if err := h.service.Logout(r.Context(), token, rc, auth.IdentityFromRequest(r)); err != nil {
		httpx.WriteInternalError(w, "internal server error")
		return
	}

	auth.ClearSessionCookie(w, h.cookies)
	auth.ClearCSRFCookie(w, h.cookies)
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me handles GET /api/auth/me (authenticated) and echoes the identity
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromRequest(r)
	if identity == nil {
		httpx.WriteUnauthorized(w, "authentication required")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userResponse{
		ID:    identity.ID,
		Email: identity.Email,
		Role:  identity.Role,
	})
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
