package ratelimit

import (
	"sync"
	"time"
)

type attemptRecord struct {
	count       int
	lastAttempt time.Time
}

// LoginTracker counts failed login attempts per identifier (client IP or
// email). It sits in front of the login mutation itself and is intentionally
// redundant with the per-route Limiter: the login path is reached through
// two different trust boundaries.
type LoginTracker struct {
	maxAttempts int
	window      time.Duration

	mu       sync.Mutex
	attempts map[string]*attemptRecord

	now func() time.Time
}

// NewLoginTracker creates a tracker allowing maxAttempts failures per window
func NewLoginTracker(maxAttempts int, window time.Duration) *LoginTracker {
	return &LoginTracker{
		maxAttempts: maxAttempts,
		window:      window,
		attempts:    make(map[string]*attemptRecord),
		now:         time.Now,
	}
}

// Allowed reports whether identifier may attempt a login. A counter idle for
// longer than the window resets wholesale before the check.
func (t *LoginTracker) Allowed(identifier string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.attempts[identifier]
	if !ok {
		return true
	}

	if t.now().Sub(rec.lastAttempt) > t.window {
		delete(t.attempts, identifier)
		return true
	}

	return rec.count < t.maxAttempts
}

// RecordFailure counts a failed attempt against identifier
func (t *LoginTracker) RecordFailure(identifier string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	rec, ok := t.attempts[identifier]
	if !ok || now.Sub(rec.lastAttempt) > t.window {
		t.attempts[identifier] = &attemptRecord{count: 1, lastAttempt: now}
		return
	}

	rec.count++
	rec.lastAttempt = now
}

// Clear drops the counter for identifier, called after a successful login
func (t *LoginTracker) Clear(identifier string) {
	t.mu.Lock()
	delete(t.attempts, identifier)
	t.mu.Unlock()
}
