package routes

import (
	"net/http"
	"time"

	"github.com/fieldstone/gatekeeper/internal/auth"
	"github.com/fieldstone/gatekeeper/internal/handlers"
	"github.com/fieldstone/gatekeeper/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// AuthThrottle is the coarse outer IP throttle on the auth endpoints. It
// sits in front of the gate's per-route limiter on purpose: the login path
// is defended at two layers.
func AuthThrottle(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"Too many requests"}`))
		}),
	)
}

// RegisterRoutes registers the security service's HTTP surface
func RegisterRoutes(
	router chi.Router,
	securityHandler *handlers.SecurityHandler,
	authHandler *handlers.AuthHandler,
	auditHandler *handlers.AuditHandler,
	tokenManager *auth.TokenManager,
	sessions auth.SessionReader,
) {
	// Public: CSRF token negotiation for both anonymous and authenticated clients
	router.Get("/api/security/csrf-token", securityHandler.CSRFToken)

	// Public with outer throttle: login
	router.With(AuthThrottle(10)).Post("/api/auth/login", authHandler.Login)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(auth.SessionAuth(tokenManager, sessions))

		r.Post("/api/auth/logout", authHandler.Logout)
		r.Get("/api/auth/me", authHandler.Me)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))
			r.Get("/api/admin/audit-logs", auditHandler.ListRecent)
		})
	})
}
