package handlers

import (
	"log/slog"
	"net/http"

	"github.com/fieldstone/gatekeeper/internal/auth"
	"github.com/fieldstone/gatekeeper/internal/csrf"
	"github.com/fieldstone/gatekeeper/internal/gate"
	"github.com/fieldstone/gatekeeper/pkg/httpx"
)

// SecurityHandler exposes the CSRF token negotiation endpoint
type SecurityHandler struct {
	codec        *csrf.Codec
	cookies      auth.CookieConfig
	cookieMaxAge int
	logger       *slog.Logger
}

// NewSecurityHandler creates a new SecurityHandler
func NewSecurityHandler(codec *csrf.Codec, cookies auth.CookieConfig, cookieMaxAge int, logger *slog.Logger) *SecurityHandler {
	return &SecurityHandler{codec: codec, cookies: cookies, cookieMaxAge: cookieMaxAge, logger: logger}
}

type csrfTokenResponse struct {
	Token string `json:"token"`
}

// CSRFToken handles GET /api/security/csrf-token. Authenticated clients get
// a signed token bound to their session; anonymous clients get a
// double-submit token mirrored into the csrf cookie. Either way the client
// echoes the token back in the X-CSRF-Token header on mutating requests.
func (h *SecurityHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(gate.SessionCookieName); err == nil && cookie.Value != "" {
		token, err := h.codec.Issue(cookie.Value)
		if err != nil {
			h.logger.Error("failed to issue csrf token", slog.Any("error", err))
			httpx.WriteInternalError(w, "internal server error")
			return
		}

		httpx.WriteJSON(w, http.StatusOK, csrfTokenResponse{Token: token})
		return
	}

	token, err := csrf.GenerateDoubleSubmitToken()
	if err != nil {
		h.logger.Error("failed to generate double-submit token", slog.Any("error", err))
		httpx.WriteInternalError(w, "internal server error")
		return
	}

	auth.SetCSRFCookie(w, token, h.cookieMaxAge, h.cookies)
	httpx.WriteJSON(w, http.StatusOK, csrfTokenResponse{Token: token})
}
