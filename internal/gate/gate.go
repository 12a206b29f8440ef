// Package gate evaluates inbound requests against the security policy
// before they reach business handlers: method check, rate limit, CSRF,
// origin allow-list, content type, and advisory suspicious-activity logging,
// strictly in that order. Rate limiting runs before CSRF validation so CSRF
// verification cost cannot amplify a denial of service.
package gate

import (
	"log/slog"
	"net/http"

	"github.com/fieldstone/gatekeeper/internal/csrf"
	"github.com/fieldstone/gatekeeper/internal/guard"
	"github.com/fieldstone/gatekeeper/internal/models"
	"github.com/fieldstone/gatekeeper/internal/ratelimit"
)

// SessionCookieName is the cookie carrying the session token; its value is
// the session binding for CSRF tokens issued to authenticated clients.
const SessionCookieName = "session_token"

// CSRFCookieName is the JS-readable cookie used for the double-submit
// pattern on unauthenticated endpoints
const CSRFCookieName = "csrf_token"

// Config holds the gate's policy knobs
type Config struct {
	AllowedMethods []string
	AllowedOrigins []string
	RequireCSRF    bool
}

// DefaultAllowedMethods covers the API surface of the CRM backend
func DefaultAllowedMethods() []string {
	return []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodDelete, http.MethodPatch, http.MethodOptions,
	}
}

// Gate orchestrates the pre-handler security checks for one request at a
// time. It holds no per-request state; the limiter and codec carry the
// process-local mutable state.
type Gate struct {
	limiter *ratelimit.Limiter
	codec   *csrf.Codec
	config  Config
	logger  *slog.Logger
}

// New creates a security gate
func New(limiter *ratelimit.Limiter, codec *csrf.Codec, config Config, logger *slog.Logger) *Gate {
	if len(config.AllowedMethods) == 0 {
		config.AllowedMethods = DefaultAllowedMethods()
	}
	return &Gate{limiter: limiter, codec: codec, config: config, logger: logger}
}

// Check runs the gate steps in fixed order and returns a *models.SecurityError
// on the first failure. The suspicious-activity heuristic logs but never
// blocks on its own.
func (g *Gate) Check(rc RequestContext) error {
	// 1. Method check
	if !g.methodAllowed(rc.Method) {
		return models.NewMethodNotAllowed()
	}

	// 2. Rate limit, keyed by resolved client IP and route
	result := g.limiter.Check(rc.ClientIP, rc.Path)
	if !result.Allowed {
		g.logger.Warn("rate limit exceeded",
			slog.String("client_ip", rc.ClientIP),
			slog.String("path", rc.Path))
		return models.NewRateLimited(result.RetryAfterSeconds)
	}

	// 3. CSRF check for state-changing methods
	if g.config.RequireCSRF && isStateChangingMethod(rc.Method) {
		if err := g.checkCSRF(rc); err != nil {
			return err
		}
	}

	// 4. Origin allow-list; absence of an Origin header is tolerated
	// (non-browser or same-origin requests)
	if origin := rc.Header("origin"); origin != "" {
		if !g.originAllowed(origin) {
			g.logger.Warn("request from disallowed origin",
				slog.String("origin", origin),
				slog.String("client_ip", rc.ClientIP))
			return models.NewOriginInvalid()
		}
	}

	// 5. Content-Type check for body-carrying methods
	if rc.Method == http.MethodPost || rc.Method == http.MethodPut || rc.Method == http.MethodPatch {
		if !contentTypeJSON(rc.Header("content-type")) {
			return models.NewContentTypeInvalid()
		}
	}

	// 6. Advisory heuristics, log only. The full URI is inspected so query
	// payloads are seen; the limiter above keys on the path alone.
	if flags := guard.DetectSuspiciousActivity(rc.Header("user-agent"), rc.URI()); len(flags) > 0 {
		g.logger.Warn("suspicious activity detected",
			slog.Any("flags", flags),
			slog.String("client_ip", rc.ClientIP),
			slog.String("uri", rc.URI()),
			slog.String("user_agent", rc.Header("user-agent")))
	}

	return nil
}

// checkCSRF requires the x-csrf-token header on mutating requests.
// Authenticated requests verify the signed token against the session cookie;
// anonymous requests fall back to the double-submit cookie comparison.
func (g *Gate) checkCSRF(rc RequestContext) error {
	token := rc.Header("x-csrf-token")
	if token == "" {
		g.logger.Warn("csrf token missing",
			slog.String("method", rc.Method),
			slog.String("path", rc.Path))
		return models.NewCSRFMissing()
	}

	if session := rc.Cookie(SessionCookieName); session != "" {
		if !g.codec.VerifyAndConsume(token, session) {
			g.logger.Warn("csrf token rejected",
				slog.String("method", rc.Method),
				slog.String("path", rc.Path))
			return models.NewCSRFInvalid()
		}
		return nil
	}

	if !csrf.ValidateDoubleSubmitToken(rc.Cookie(CSRFCookieName), token) {
		g.logger.Warn("double-submit csrf token rejected",
			slog.String("method", rc.Method),
			slog.String("path", rc.Path))
		return models.NewCSRFInvalid()
	}
	return nil
}

func (g *Gate) methodAllowed(method string) bool {
	for _, m := range g.config.AllowedMethods {
		if m == method {
			return true
		}
	}
	return false
}

func (g *Gate) originAllowed(origin string) bool {
	for _, allowed := range g.config.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

func contentTypeJSON(contentType string) bool {
	return len(contentType) >= len("application/json") &&
		contentType[:len("application/json")] == "application/json"
}

// isStateChangingMethod checks if the HTTP method modifies state
func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}
