package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fieldstone/gatekeeper/internal/auth"
	"github.com/fieldstone/gatekeeper/internal/gate"
	"github.com/fieldstone/gatekeeper/internal/models"
	"github.com/fieldstone/gatekeeper/internal/ratelimit"
	pkglogger "github.com/fieldstone/gatekeeper/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the external collaborator holding account records
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SessionStore is the external collaborator holding session records
type SessionStore interface {
	FindByToken(ctx context.Context, token string) (*models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// LoginResult is returned on successful authentication
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.Identity
}

// AuthService owns the login and logout mutations behind the security gate.
// Its attempt tracker is a second rate-limiting layer on top of the gate's
// per-route limiter: the login path is reached through two trust boundaries.
type AuthService struct {
	users      UserStore
	sessions   SessionStore
	tokens     *auth.TokenManager
	tracker    *ratelimit.LoginTracker
	timing     *auth.TimingDelay
	audit      *AuditService
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users UserStore,
	sessions SessionStore,
	tokens *auth.TokenManager,
	tracker *ratelimit.LoginTracker,
	timing *auth.TimingDelay,
	audit *AuditService,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		tracker:    tracker,
		timing:     timing,
		audit:      audit,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// Login authenticates email/password. The attempt tracker is consulted for
// both the client IP and the email before the password is ever checked, so
// a locked-out caller learns nothing about credential validity.
func (s *AuthService) Login(ctx context.Context, email, password string, rc gate.RequestContext) (*LoginResult, error) {
	ipKey := "ip:" + rc.ClientIP
	emailKey := "email:" + email

	if !s.tracker.Allowed(ipKey) || !s.tracker.Allowed(emailKey) {
		s.logger.Warn("login blocked by attempt tracker",
			slog.String("email", pkglogger.MaskedEmail(email)),
			slog.String("client_ip", rc.ClientIP))
		s.audit.RecordEvent(ctx, models.AuditActionRateLimited, rc, nil, models.AuditMetadata{
			"email": pkglogger.MaskedEmail(email),
		})
		return nil, models.ErrTooManyAttempts
	}

	// Opportunistic sweep; stale sessions must not accumulate
	if n, err := s.sessions.DeleteExpired(ctx); err == nil && n > 0 {
		s.logger.Debug("expired sessions swept", slog.Int64("count", n))
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, s.failLogin(ctx, email, ipKey, emailKey, rc, "unknown_email")
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, s.failLogin(ctx, email, ipKey, emailKey, rc, "wrong_password")
	}

	s.tracker.Clear(ipKey)
	s.tracker.Clear(emailKey)

	token, err := s.tokens.GenerateAccessToken(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.sessionTTL)
	session := &models.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.audit.RecordEvent(ctx, models.AuditActionLogin, rc, &user.ID, nil)
	s.timing.Wait(true)

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User: models.Identity{
			ID:    user.ID.String(),
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

// Logout deletes the session backing the bearer token
func (s *AuthService) Logout(ctx context.Context, token string, rc gate.RequestContext, identity *models.Identity) error {
	if err := s.sessions.Delete(ctx, token); err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}

	var userID *uuid.UUID
	if identity != nil {
		if id, err := uuid.Parse(identity.ID); err == nil {
			userID = &id
		}
	}
	s.audit.RecordEvent(ctx, models.AuditActionLogout, rc, userID, nil)
	return nil
}

// failLogin records the failure in the tracker and audit trail, applies the
// timing delay, and collapses every cause into one generic error
func (s *AuthService) failLogin(ctx context.Context, email, ipKey, emailKey string, rc gate.RequestContext, reason string) error {
	s.tracker.RecordFailure(ipKey)
	s.tracker.RecordFailure(emailKey)

	s.audit.RecordEvent(ctx, models.AuditActionLoginFailed, rc, nil, models.AuditMetadata{
		"email":  pkglogger.MaskedEmail(email),
		"reason": reason,
	})

	s.timing.Wait(false)
	return models.ErrInvalidCredentials
}
