package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Auth state errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTooManyAttempts    = errors.New("too many login attempts, please try again later")
	ErrSessionExpired     = errors.New("session has expired")
)

// SecurityError is the single error type raised by the security gate.
// The request-handling boundary catches exactly this type and serializes it
// to a JSON error response; all other errors propagate unmodified.
type SecurityError struct {
	Message           string
	StatusCode        int
	RetryAfterSeconds int
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("security error %d: %s", e.StatusCode, e.Message)
}

// NewMethodNotAllowed rejects an HTTP method outside the allowed set
func NewMethodNotAllowed() *SecurityError {
	return &SecurityError{Message: "Method not allowed", StatusCode: 405}
}

// NewRateLimited rejects a request that exceeded its route quota
func NewRateLimited(retryAfterSeconds int) *SecurityError {
	return &SecurityError{Message: "Too many requests", StatusCode: 429, RetryAfterSeconds: retryAfterSeconds}
}

// NewCSRFMissing rejects a mutating request without a CSRF header
func NewCSRFMissing() *SecurityError {
	return &SecurityError{Message: "CSRF token missing", StatusCode: 403}
}

// NewCSRFInvalid rejects a mutating request whose CSRF token failed verification
func NewCSRFInvalid() *SecurityError {
	return &SecurityError{Message: "Invalid CSRF token", StatusCode: 403}
}

// NewOriginInvalid rejects a cross-origin request from outside the allow-list
func NewOriginInvalid() *SecurityError {
	return &SecurityError{Message: "Invalid origin", StatusCode: 403}
}

// NewContentTypeInvalid rejects a body-carrying request that is not JSON
func NewContentTypeInvalid() *SecurityError {
	return &SecurityError{Message: "Content-Type must be application/json", StatusCode: 400}
}

// AsSecurityError unwraps err to a *SecurityError if it is one
func AsSecurityError(err error) (*SecurityError, bool) {
	var se *SecurityError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
