// Package logger provides log sanitization helpers so credentials and
// personal data never reach the log stream verbatim.
package logger

import (
	"log/slog"
	"strings"
)

// MaskedEmail masks an email address for logging (e.g., "u***@*****.com")
func MaskedEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "[invalid-email]"
	}

	username := parts[0]
	domain := parts[1]

	if len(username) > 1 {
		username = string(username[0]) + strings.Repeat("*", len(username)-1)
	}

	domainParts := strings.Split(domain, ".")
	if len(domainParts) > 1 {
		// Mask all but the TLD
		for i := 0; i < len(domainParts)-1; i++ {
			domainParts[i] = strings.Repeat("*", len(domainParts[i]))
		}
		domain = strings.Join(domainParts, ".")
	}

	return username + "@" + domain
}

// RedactedAttr returns a redacted slog attribute for sensitive values
// outside development
func RedactedAttr(key, value, env string) slog.Attr {
	if env == "production" {
		return slog.String(key, "[REDACTED]")
	}
	return slog.String(key, value)
}

// SensitiveQueryString reports whether a raw query string mentions a
// sensitive parameter and should be redacted wholesale
func SensitiveQueryString(rawQuery string) bool {
	sensitiveParams := []string{
		"password", "token", "secret", "api_key", "apikey",
		"email", "auth", "csrf",
	}

	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
