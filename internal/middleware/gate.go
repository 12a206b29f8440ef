package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fieldstone/gatekeeper/internal/gate"
	"github.com/fieldstone/gatekeeper/internal/models"
	"github.com/fieldstone/gatekeeper/pkg/httpx"
)

// SecurityGate adapts the framework-agnostic gate to net/http. It builds the
// request context, runs the gate, and converts exactly the gate's typed
// security error into a JSON response with the matching status and, when
// rate limited, a Retry-After header. Nothing else is caught here.
func SecurityGate(g *gate.Gate, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := gate.FromHTTP(r)

			if err := g.Check(rc); err != nil {
				secErr, ok := models.AsSecurityError(err)
				if !ok {
					// The gate only returns security errors; anything else
					// indicates a programming error upstream
					logger.Error("unexpected gate error", slog.Any("error", err))
					httpx.WriteInternalError(w, "internal server error")
					return
				}

				if secErr.RetryAfterSeconds > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(secErr.RetryAfterSeconds))
				}
				httpx.WriteError(w, secErr.StatusCode, secErr.Message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
