package guard

import "regexp"

// Flags returned by DetectSuspiciousActivity
const (
	FlagSuspiciousUserAgent = "suspicious_user_agent"
	FlagSQLInjection        = "sql_injection_attempt"
	FlagXSS                 = "xss_attempt"
	FlagPathTraversal       = "path_traversal_attempt"
)

var suspiciousUserAgents = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sqlmap`),
	regexp.MustCompile(`(?i)nikto`),
	regexp.MustCompile(`(?i)nessus`),
	regexp.MustCompile(`(?i)masscan`),
	regexp.MustCompile(`(?i)nmap`),
	regexp.MustCompile(`(?i)python-requests`),
	regexp.MustCompile(`(?i)curl/`),
	regexp.MustCompile(`(?i)\bbot\b`),
	regexp.MustCompile(`(?i)crawler`),
	regexp.MustCompile(`(?i)spider`),
}

var sqlInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)union\s+select`),
	regexp.MustCompile(`(?i)insert\s+into`),
	regexp.MustCompile(`(?i)drop\s+table`),
	regexp.MustCompile(`(?i)delete\s+from`),
	regexp.MustCompile(`(?i)'\s*or\s+'1'\s*=\s*'1`),
	regexp.MustCompile(`(?i);\s*--`),
	regexp.MustCompile(`(?i)exec\s*\(`),
}

var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)onerror\s*=`),
	regexp.MustCompile(`(?i)onload\s*=`),
	regexp.MustCompile(`(?i)<iframe`),
	regexp.MustCompile(`(?i)document\.cookie`),
}

var pathTraversalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.\./`),
	regexp.MustCompile(`\.\.\\`),
	regexp.MustCompile(`(?i)%2e%2e%2f`),
	regexp.MustCompile(`(?i)etc/passwd`),
	regexp.MustCompile(`(?i)%00`),
}

// DetectSuspiciousActivity matches the user agent and full URL against fixed
// pattern lists and returns zero or more advisory flags. Detection is
// logging-only; it never blocks a request by itself.
func DetectSuspiciousActivity(userAgent, url string) []string {
	var flags []string

	for _, p := range suspiciousUserAgents {
		if p.MatchString(userAgent) {
			flags = append(flags, FlagSuspiciousUserAgent)
			break
		}
	}

	for _, p := range sqlInjectionPatterns {
		if p.MatchString(url) {
			flags = append(flags, FlagSQLInjection)
			break
		}
	}

	for _, p := range xssPatterns {
		if p.MatchString(url) {
			flags = append(flags, FlagXSS)
			break
		}
	}

	for _, p := range pathTraversalPatterns {
		if p.MatchString(url) {
			flags = append(flags, FlagPathTraversal)
			break
		}
	}

	return flags
}
