// Package ratelimit holds the two deliberately separate rate-limiting
// mechanisms in front of the business handlers: a fixed-window per-route
// limiter used by the security gate, and a coarser login attempt tracker
// used by the auth service.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Policy is a per-route-prefix quota
type Policy struct {
	Prefix      string
	Window      time.Duration
	MaxRequests int
}

// Result reports the outcome of a limit check
type Result struct {
	Allowed           bool
	Remaining         int
	RetryAfterSeconds int
}

type entry struct {
	count         int
	windowResetAt time.Time
}

// Limiter is a fixed-window counter keyed by client identifier and route
// path. Policies resolve by first matching registered prefix; unmatched
// routes fall back to the default policy. The known fixed-window tradeoff
// applies: a burst straddling a window boundary can briefly pass up to
// twice the quota.
type Limiter struct {
	policies      []Policy
	defaultPolicy Policy

	mu    sync.Mutex
	store map[string]*entry

	now func() time.Time
}

// DefaultPolicies returns the route quota table: login tightest, then the
// auth group, then the general API. Order matters; first match wins.
func DefaultPolicies() []Policy {
	return []Policy{
		{Prefix: "/api/auth/login", Window: 15 * time.Minute, MaxRequests: 5},
		{Prefix: "/api/auth", Window: 15 * time.Minute, MaxRequests: 10},
		{Prefix: "/api", Window: 15 * time.Minute, MaxRequests: 100},
	}
}

// NewLimiter creates a limiter with the given policy table and fallback
func NewLimiter(policies []Policy, defaultPolicy Policy) *Limiter {
	return &Limiter{
		policies:      policies,
		defaultPolicy: defaultPolicy,
		store:         make(map[string]*entry),
		now:           time.Now,
	}
}

// Check counts a request against the window for (clientID, routePath).
// Expired entries across the whole store are swept first; an O(n) pass per
// call, acceptable at CRM request volumes.
func (l *Limiter) Check(clientID, routePath string) Result {
	policy := l.resolvePolicy(routePath)
	key := fmt.Sprintf("%s:%s", clientID, routePath)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked(now)

	e, ok := l.store[key]
	if !ok || !e.windowResetAt.After(now) {
		l.store[key] = &entry{count: 1, windowResetAt: now.Add(policy.Window)}
		return Result{Allowed: true, Remaining: policy.MaxRequests - 1}
	}

	e.count++
	if e.count > policy.MaxRequests {
		return Result{Allowed: false, RetryAfterSeconds: retryAfter(e.windowResetAt, now)}
	}

	return Result{Allowed: true, Remaining: policy.MaxRequests - e.count}
}

// Reset is an administrative override that drops the entry immediately
func (l *Limiter) Reset(clientID, routePath string) {
	key := fmt.Sprintf("%s:%s", clientID, routePath)

	l.mu.Lock()
	delete(l.store, key)
	l.mu.Unlock()
}

func (l *Limiter) resolvePolicy(routePath string) Policy {
	for _, p := range l.policies {
		if len(routePath) >= len(p.Prefix) && routePath[:len(p.Prefix)] == p.Prefix {
			return p
		}
	}
	return l.defaultPolicy
}

// sweepLocked deletes every expired entry. Prevents unbounded growth from
// one-off clients. Caller holds l.mu.
func (l *Limiter) sweepLocked(now time.Time) {
	for key, e := range l.store {
		if !e.windowResetAt.After(now) {
			delete(l.store, key)
		}
	}
}

func retryAfter(resetAt, now time.Time) int {
	secs := int((resetAt.Sub(now) + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
