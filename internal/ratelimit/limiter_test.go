package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter() *Limiter {
	return NewLimiter(DefaultPolicies(), Policy{Window: 15 * time.Minute, MaxRequests: 100})
}

func TestLimiter_Threshold(t *testing.T) {
	limiter := newTestLimiter()

	// Login policy allows 5 per window
	for i := 0; i < 5; i++ {
		result := limiter.Check("10.0.0.1", "/api/auth/login")
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 4-i, result.Remaining)
	}

	result := limiter.Check("10.0.0.1", "/api/auth/login")
	assert.False(t, result.Allowed, "6th request should be rejected")
	assert.Greater(t, result.RetryAfterSeconds, 0)
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	limiter := newTestLimiter()

	for i := 0; i < 5; i++ {
		limiter.Check("10.0.0.1", "/api/auth/login")
	}
	assert.False(t, limiter.Check("10.0.0.1", "/api/auth/login").Allowed)

	result := limiter.Check("10.0.0.2", "/api/auth/login")
	assert.True(t, result.Allowed, "a different client is unaffected")
}

func TestLimiter_WindowReset(t *testing.T) {
	limiter := newTestLimiter()
	start := time.Now()
	limiter.now = func() time.Time { return start }

	for i := 0; i < 5; i++ {
		limiter.Check("10.0.0.1", "/api/auth/login")
	}
	assert.False(t, limiter.Check("10.0.0.1", "/api/auth/login").Allowed)

	// Past the window boundary the counter starts fresh
	limiter.now = func() time.Time { return start.Add(15*time.Minute + time.Second) }
	result := limiter.Check("10.0.0.1", "/api/auth/login")
	assert.True(t, result.Allowed)
	assert.Equal(t, 4, result.Remaining)
}

func TestLimiter_PolicyResolutionFirstMatchWins(t *testing.T) {
	limiter := newTestLimiter()

	// /api/auth/login resolves to the tightest policy even though /api and
	// /api/auth also match
	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Check("c1", "/api/auth/login").Allowed)
	}
	assert.False(t, limiter.Check("c1", "/api/auth/login").Allowed)

	// /api/contacts resolves to the general API policy
	result := limiter.Check("c1", "/api/contacts")
	assert.True(t, result.Allowed)
	assert.Equal(t, 99, result.Remaining)
}

func TestLimiter_DefaultPolicyForUnmatchedRoute(t *testing.T) {
	limiter := newTestLimiter()

	result := limiter.Check("c1", "/health")
	assert.True(t, result.Allowed)
	assert.Equal(t, 99, result.Remaining)
}

func TestLimiter_SweepRemovesExpiredEntries(t *testing.T) {
	limiter := newTestLimiter()
	start := time.Now()
	limiter.now = func() time.Time { return start }

	for i := 0; i < 50; i++ {
		limiter.Check(fmt.Sprintf("client-%d", i), "/api/contacts")
	}
	assert.Len(t, limiter.store, 50)

	// Any check after the windows lapse sweeps the whole store
	limiter.now = func() time.Time { return start.Add(16 * time.Minute) }
	limiter.Check("fresh-client", "/api/contacts")
	assert.Len(t, limiter.store, 1)
}

func TestLimiter_Reset(t *testing.T) {
	limiter := newTestLimiter()

	for i := 0; i < 6; i++ {
		limiter.Check("10.0.0.1", "/api/auth/login")
	}
	assert.False(t, limiter.Check("10.0.0.1", "/api/auth/login").Allowed)

	limiter.Reset("10.0.0.1", "/api/auth/login")
	assert.True(t, limiter.Check("10.0.0.1", "/api/auth/login").Allowed)
}
