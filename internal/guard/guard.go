// Package guard provides stateless input validation and sanitization
// primitives shared by the security gate and the auth handlers.
package guard

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail applies an intentionally permissive RFC-light check,
// not full RFC 5322
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// PasswordResult reports password strength with one message per unmet rule
type PasswordResult struct {
	IsValid bool
	Errors  []string
}

var (
	upperPattern  = regexp.MustCompile(`[A-Z]`)
	lowerPattern  = regexp.MustCompile(`[a-z]`)
	digitPattern  = regexp.MustCompile(`[0-9]`)
	symbolPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// ValidatePassword checks every rule in a fixed order without
// short-circuiting so callers can report all failures together
func ValidatePassword(password string) PasswordResult {
	var errs []string

	if len(password) < 8 {
		errs = append(errs, "Password must be at least 8 characters long")
	}
	if !upperPattern.MatchString(password) {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if !lowerPattern.MatchString(password) {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if !digitPattern.MatchString(password) {
		errs = append(errs, "Password must contain at least one number")
	}
	if !symbolPattern.MatchString(password) {
		errs = append(errs, "Password must contain at least one special character")
	}

	return PasswordResult{IsValid: len(errs) == 0, Errors: errs}
}

var (
	tagPattern         = regexp.MustCompile(`<[^>]*>`)
	literalCharPattern = regexp.MustCompile(`[<>'"&]`)
)

// SanitizeInput destructively strips tag-shaped substrings, then the literal
// characters <>'"&, then trims whitespace. The two-pass order is part of the
// contract: `<b>&amp;</b>` becomes `amp;`. Not a complete HTML sanitizer;
// use SanitizeHTML when output will be re-rendered.
func SanitizeInput(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = literalCharPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// SanitizeHTML losslessly entity-encodes characters significant to HTML.
// The & replacement runs first so existing entities are encoded too.
func SanitizeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// SecureCompare does a constant-time comparison over equal-length strings.
// A length mismatch returns false immediately, leaking length; lengths here
// are not secret, so that is accepted.
func SecureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}

	var result byte
	for i := 0; i < len(a); i++ {
		result |= a[i] ^ b[i]
	}
	return result == 0
}
