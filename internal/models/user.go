package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles supported by the binary admin/user model
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the account record consumed by the auth boundary.
// The CRM's own profile fields live with the business layer, not here.
type User struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Name         string    `db:"name"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Session is the server-side session record backing a bearer token.
// This subsystem only reads it for validation and deletes it on logout.
type Session struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Expired reports whether the session is past its expiry
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// TokenClaims are the JWT claims carried by an access token
type TokenClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is what the auth middleware attaches to the request context
type Identity struct {
	ID    string
	Email string
	Role  string
}

// HasRole reports whether the identity satisfies the minimum role.
// Admin satisfies both admin and user.
func (i *Identity) HasRole(minRole string) bool {
	if i.Role == RoleAdmin {
		return true
	}
	return i.Role == minRole
}
