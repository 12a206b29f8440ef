package csrf

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/fieldstone/gatekeeper/internal/guard"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AnonymousSession is the sentinel session ID used when no session exists
// (e.g., pre-login forms)
const AnonymousSession = "anonymous"

// tokenClaims is the signed payload of a CSRF token
type tokenClaims struct {
	SessionID string `json:"sid"`
	Nonce     string `json:"nonce"`
	jwt.RegisteredClaims
}

// Codec issues and verifies signed, time-limited CSRF tokens bound to a
// session identifier, and tracks single-use consumption in a replay set.
type Codec struct {
	secret      []byte
	tokenTTL    time.Duration
	replayLimit int

	mu       sync.Mutex
	consumed map[string]struct{}

	now func() time.Time
}

// NewCodec creates a CSRF token codec. tokenTTL bounds token lifetime and
// replayLimit bounds the consumed-token set: once the set grows past the
// limit it is cleared wholesale rather than tracked per-entry.
func NewCodec(secret string, tokenTTL time.Duration, replayLimit int) *Codec {
	return &Codec{
		secret:      []byte(secret),
		tokenTTL:    tokenTTL,
		replayLimit: replayLimit,
		consumed:    make(map[string]struct{}),
		now:         time.Now,
	}
}

// Issue builds a signed token bound to sessionID. An empty sessionID falls
// back to the anonymous sentinel. Signing is synchronous and local; issuance
// does not fail under normal operation.
func (c *Codec) Issue(sessionID string) (string, error) {
	if sessionID == "" {
		sessionID = AnonymousSession
	}

	now := c.now()
	claims := &tokenClaims{
		SessionID: sessionID,
		Nonce:     uuid.New().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign csrf token: %w", err)
	}

	return signed, nil
}

// Verify decodes the token and checks signature, age, and session binding.
// All failures map to false; decode errors are never surfaced to the caller.
func (c *Codec) Verify(token, sessionID string) bool {
	claims, ok := c.decode(token)
	if !ok {
		return false
	}

	// Defense in depth beyond the exp claim: reject anything older than TTL
	if claims.IssuedAt == nil || c.now().Sub(claims.IssuedAt.Time) > c.tokenTTL {
		return false
	}

	if sessionID != "" && claims.SessionID != sessionID {
		return false
	}

	return true
}

// VerifyAndConsume is Verify plus single-use enforcement: the first call for
// a given token records it in the replay set, every later call returns false.
// Call at most once per logical request.
func (c *Codec) VerifyAndConsume(token, sessionID string) bool {
	if !c.Verify(token, sessionID) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, replayed := c.consumed[token]; replayed {
		return false
	}

	// Approximate staleness bound: clear wholesale rather than LRU
	if len(c.consumed) >= c.replayLimit {
		c.consumed = make(map[string]struct{})
	}

	c.consumed[token] = struct{}{}
	return true
}

// decode parses and verifies the token signature, failing closed on any error
func (c *Codec) decode(token string) (*tokenClaims, bool) {
	claims := &tokenClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now() }))
	if err != nil || !parsed.Valid {
		return nil, false
	}

	return claims, true
}

// GenerateDoubleSubmitToken returns an opaque random token for the
// double-submit cookie pattern on unauthenticated endpoints
func GenerateDoubleSubmitToken() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(randomBytes), nil
}

// ValidateDoubleSubmitToken requires the cookie and header values to be
// non-empty and byte-equal
func ValidateDoubleSubmitToken(cookieValue, headerValue string) bool {
	if cookieValue == "" || headerValue == "" {
		return false
	}
	return guard.SecureCompare(cookieValue, headerValue)
}
