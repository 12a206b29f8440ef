package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSuspiciousActivity_CleanRequest(t *testing.T) {
	flags := DetectSuspiciousActivity(
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		"/api/contacts?page=2",
	)
	assert.Empty(t, flags)
}

func TestDetectSuspiciousActivity_UserAgent(t *testing.T) {
	cases := []string{
		"sqlmap/1.7",
		"Nikto/2.5.0",
		"python-requests/2.31",
		"curl/8.0.1",
		"Googlebot crawler",
	}
	for _, ua := range cases {
		flags := DetectSuspiciousActivity(ua, "/api/contacts")
		assert.Contains(t, flags, FlagSuspiciousUserAgent, "user agent %q", ua)
	}
}

func TestDetectSuspiciousActivity_SQLInjection(t *testing.T) {
	flags := DetectSuspiciousActivity("Mozilla/5.0", "/api/contacts?q=1%27 UNION SELECT password")
	assert.Contains(t, flags, FlagSQLInjection)

	flags = DetectSuspiciousActivity("Mozilla/5.0", "/api/contacts?name='or '1'='1")
	assert.Contains(t, flags, FlagSQLInjection)
}

func TestDetectSuspiciousActivity_XSS(t *testing.T) {
	flags := DetectSuspiciousActivity("Mozilla/5.0", "/api/search?q=<script>alert(1)</script>")
	assert.Contains(t, flags, FlagXSS)

	flags = DetectSuspiciousActivity("Mozilla/5.0", "/api/search?q=javascript:void(0)")
	assert.Contains(t, flags, FlagXSS)
}

func TestDetectSuspiciousActivity_PathTraversal(t *testing.T) {
	flags := DetectSuspiciousActivity("Mozilla/5.0", "/api/files/../../etc/passwd")
	assert.Contains(t, flags, FlagPathTraversal)

	flags = DetectSuspiciousActivity("Mozilla/5.0", "/api/files/%2e%2e%2fconfig")
	assert.Contains(t, flags, FlagPathTraversal)
}

func TestDetectSuspiciousActivity_MultipleFlags(t *testing.T) {
	flags := DetectSuspiciousActivity("sqlmap/1.7", "/api/q?x=<script>UNION SELECT../../etc/passwd")
	assert.ElementsMatch(t, []string{
		FlagSuspiciousUserAgent,
		FlagSQLInjection,
		FlagXSS,
		FlagPathTraversal,
	}, flags)
}
