package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fieldstone/gatekeeper/internal/models"
	"github.com/google/uuid"
)

// fakeSessionReader implements SessionReader over a map keyed by token
type fakeSessionReader struct {
	sessions map[string]*models.Session
}

func (f *fakeSessionReader) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	session, ok := f.sessions[token]
	if !ok {
		return nil, models.ErrNotFound
	}
	return session, nil
}

func okHandler(captured **models.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = IdentityFromRequest(r)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func issueTestToken(t *testing.T, tm *TokenManager, userID uuid.UUID, email, role string) string {
	t.Helper()
	token, err := tm.GenerateAccessToken(userID.String(), email, role)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func TestSessionAuth_ValidTokenAttachesIdentity(t *testing.T) {
	tm := NewTokenManager("session-auth-test-secret-key", 15*time.Minute)
	userID := uuid.New()
	token := issueTestToken(t, tm, userID, "alice@example.co.uk", models.RoleUser)

	sessions := &fakeSessionReader{sessions: map[string]*models.Session{
		token: {ID: uuid.New(), UserID: userID, Token: token, ExpiresAt: time.Now().Add(time.Hour)},
	}}

	var identity *models.Identity
	handler := SessionAuth(tm, sessions)(okHandler(&identity))

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if identity == nil {
		t.Fatal("identity not attached to context")
	}
	if identity.ID != userID.String() || identity.Email != "alice@example.co.uk" || identity.Role != models.RoleUser {
		t.Errorf("unexpected identity: %+v", identity)
	}
}

func TestSessionAuth_MissingHeader(t *testing.T) {
	tm := NewTokenManager("session-auth-test-secret-key", 15*time.Minute)
	sessions := &fakeSessionReader{sessions: map[string]*models.Session{}}
	handler := SessionAuth(tm, sessions)(okHandler(nil))

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestSessionAuth_MalformedHeader(t *testing.T) {
	tm := NewTokenManager("session-auth-test-secret-key", 15*time.Minute)
	sessions := &fakeSessionReader{sessions: map[string]*models.Session{}}
	handler := SessionAuth(tm, sessions)(okHandler(nil))

	for _, header := range []string{"Basic abc", "Bearer", "just-a-token"} {
		req := httptest.NewRequest("GET", "/api/auth/me", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestSessionAuth_InvalidSignature(t *testing.T) {
	tm := NewTokenManager("session-auth-test-secret-key", 15*time.Minute)
	otherTM := NewTokenManager("a-different-secret-key-entirely", 15*time.Minute)
	userID := uuid.New()
	token := issueTestToken(t, otherTM, userID, "alice@example.co.uk", models.RoleUser)

	sessions := &fakeSessionReader{sessions: map[string]*models.Session{}}
	handler := SessionAuth(tm, sessions)(okHandler(nil))

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestSessionAuth_NoSessionRecord(t *testing.T) {
	tm := NewTokenManager("session-auth-test-secret-key", 15*time.Minute)
	token := issueTestToken(t, tm, uuid.New(), "alice@example.co.uk", models.RoleUser)

	sessions := &fakeSessionReader{sessions: map[string]*models.Session{}}
	handler := SessionAuth(tm, sessions)(okHandler(nil))

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 when the session record is gone, got %d", w.Code)
	}
}

func TestSessionAuth_ExpiredSession(t *testing.T) {
	tm := NewTokenManager("session-auth-test-secret-key", 15*time.Minute)
	userID := uuid.New()
	token := issueTestToken(t, tm, userID, "alice@example.co.uk", models.RoleUser)

	sessions := &fakeSessionReader{sessions: map[string]*models.Session{
		token: {ID: uuid.New(), UserID: userID, Token: token, ExpiresAt: time.Now().Add(-time.Minute)},
	}}
	handler := SessionAuth(tm, sessions)(okHandler(nil))

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for an expired session, got %d", w.Code)
	}
}

func TestSessionAuth_SubjectMismatch(t *testing.T) {
	tm := NewTokenManager("session-auth-test-secret-key", 15*time.Minute)
	token := issueTestToken(t, tm, uuid.New(), "alice@example.co.uk", models.RoleUser)

	// Session exists but belongs to a different user
	sessions := &fakeSessionReader{sessions: map[string]*models.Session{
		token: {ID: uuid.New(), UserID: uuid.New(), Token: token, ExpiresAt: time.Now().Add(time.Hour)},
	}}
	handler := SessionAuth(tm, sessions)(okHandler(nil))

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a subject mismatch, got %d", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		identity *models.Identity
		minRole  string
		want     int
	}{
		{"admin accesses admin route", &models.Identity{Role: models.RoleAdmin}, models.RoleAdmin, http.StatusOK},
		{"admin accesses user route", &models.Identity{Role: models.RoleAdmin}, models.RoleUser, http.StatusOK},
		{"user accesses user route", &models.Identity{Role: models.RoleUser}, models.RoleUser, http.StatusOK},
		{"user denied admin route", &models.Identity{Role: models.RoleUser}, models.RoleAdmin, http.StatusForbidden},
		{"unauthenticated denied", nil, models.RoleUser, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(tt.minRole)(okHandler(nil))

			req := httptest.NewRequest("GET", "/api/admin/audit-logs", nil)
			if tt.identity != nil {
				ctx := context.WithValue(req.Context(), IdentityContextKey, tt.identity)
				req = req.WithContext(ctx)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}
