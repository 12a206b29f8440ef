package auth

import (
	"net/http"
	"time"

	"github.com/fieldstone/gatekeeper/internal/gate"
)

// CookieConfig holds cookie configuration settings
type CookieConfig struct {
	Domain   string // Empty string = current host only
	Secure   bool   // HTTPS only
	SameSite string // "strict", "lax", or "none"
}

// SetSessionCookie stores the session token in an httpOnly cookie. The
// security gate reads it as the session binding for CSRF verification.
func SetSessionCookie(w http.ResponseWriter, token string, maxAge int, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     gate.SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.Domain,
		Expires:  time.Now().Add(time.Duration(maxAge) * time.Second),
		MaxAge:   maxAge,
		HttpOnly: true, // Not readable from JavaScript
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	})
}

// SetCSRFCookie stores a CSRF token in a JS-readable cookie so the client
// can echo it back in the X-CSRF-Token header
func SetCSRFCookie(w http.ResponseWriter, csrfToken string, maxAge int, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     gate.CSRFCookieName,
		Value:    csrfToken,
		Path:     "/",
		Domain:   config.Domain,
		Expires:  time.Now().Add(time.Duration(maxAge) * time.Second),
		MaxAge:   maxAge,
		HttpOnly: false,
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	})
}

// ClearSessionCookie deletes the session cookie on logout
func ClearSessionCookie(w http.ResponseWriter, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     gate.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	})
}

// ClearCSRFCookie deletes the CSRF cookie
func ClearCSRFCookie(w http.ResponseWriter, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     gate.CSRFCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   -1,
		HttpOnly: false,
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	})
}

func parseSameSite(sameSite string) http.SameSite {
	switch sameSite {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}
