package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/fieldstone/gatekeeper/internal/models"
	"github.com/fieldstone/gatekeeper/pkg/httpx"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// IdentityContextKey is the key for the authenticated identity in context
	IdentityContextKey contextKey = "identity"
)

// SessionReader is the narrow view of the session store the middleware needs
type SessionReader interface {
	FindByToken(ctx context.Context, token string) (*models.Session, error)
}

// SessionAuth validates the bearer credential, confirms it still maps to a
// live session whose subject matches, and attaches the identity to context.
// Every failure is a generic 401.
func SessionAuth(tm *TokenManager, sessions SessionReader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httpx.WriteUnauthorized(w, "authentication required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				httpx.WriteUnauthorized(w, "invalid authorization header format")
				return
			}
			tokenString := parts[1]

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				httpx.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			session, err := sessions.FindByToken(r.Context(), tokenString)
			if err != nil {
				httpx.WriteUnauthorized(w, "invalid or expired session")
				return
			}

			if session.Expired(timeNow()) || session.UserID.String() != claims.UserID {
				httpx.WriteUnauthorized(w, "invalid or expired session")
				return
			}

			identity := &models.Identity{
				ID:    claims.UserID,
				Email: claims.Email,
				Role:  claims.Role,
			}
			ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole enforces a minimum role on the attached identity.
// Must run after SessionAuth. Admin satisfies every requirement.
func RequireRole(minRole string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromRequest(r)
			if identity == nil {
				httpx.WriteUnauthorized(w, "authentication required")
				return
			}

			if !identity.HasRole(minRole) {
				httpx.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromRequest extracts the authenticated identity from the request
// context, or nil when unauthenticated
func IdentityFromRequest(r *http.Request) *models.Identity {
	identity, ok := r.Context().Value(IdentityContextKey).(*models.Identity)
	if !ok {
		return nil
	}
	return identity
}
