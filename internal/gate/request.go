package gate

import (
	"net"
	"net/http"
	"strings"
)

// RequestContext is the framework-agnostic view of an inbound request that
// the security gate evaluates. Header keys are lowercase. Path carries the
// route path only; RequestURI keeps the query string for the heuristics.
type RequestContext struct {
	Method     string
	Path       string
	RequestURI string
	Headers    map[string]string
	ClientIP   string
}

// URI returns the full request URI when captured, falling back to the path
func (rc *RequestContext) URI() string {
	if rc.RequestURI != "" {
		return rc.RequestURI
	}
	return rc.Path
}

// Header returns the named header (case-insensitive)
func (rc *RequestContext) Header(name string) string {
	return rc.Headers[strings.ToLower(name)]
}

// Cookie extracts a single cookie value from the raw cookie header
func (rc *RequestContext) Cookie(name string) string {
	raw := rc.Header("cookie")
	if raw == "" {
		return ""
	}
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if value, ok := strings.CutPrefix(part, name+"="); ok {
			return value
		}
	}
	return ""
}

// FromHTTP builds a RequestContext from a net/http request. The route path
// and the full request URI are carried separately: rate limiting keys on the
// path, the suspicious-activity detector inspects the URI with its query.
func FromHTTP(r *http.Request) RequestContext {
	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[strings.ToLower(name)] = values[0]
		}
	}

	rc := RequestContext{
		Method:     r.Method,
		Path:       r.URL.Path,
		RequestURI: r.URL.RequestURI(),
		Headers:    headers,
	}
	rc.ClientIP = ClientIP(rc.Headers)
	return rc
}

// ClientIP resolves the client address from forwarding headers: the first
// segment of x-forwarded-for when it parses as an IP, then x-real-ip, then
// the loopback default. Only the first segment is considered; later hops are
// proxy addresses, not the client. The audit recorder uses this same
// extraction so the two never diverge.
func ClientIP(headers map[string]string) string {
	if xff := headers["x-forwarded-for"]; xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}

	if xri := headers["x-real-ip"]; xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	return "127.0.0.1"
}
