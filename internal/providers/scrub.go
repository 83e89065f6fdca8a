package providers

import "regexp"

// Credential shapes that can leak into provider error text.
var credentialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-or-v1-[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`sk-(proj-)?[a-zA-Z0-9_-]{20,}`),
	regexp.MustCompile(`AKIA[A-Z0-9]{16}`),
	regexp.MustCompile(`(?i)(api[_-]?key|token|secret|bearer|authorization)\s*[:=]?\s*["']?[a-zA-Z0-9._-]{16,}["']?`),
}

const redacted = "[REDACTED]"

// ScrubSecrets masks API keys and bearer tokens in s before it is logged.
func ScrubSecrets(s string) string {
	for _, p := range credentialPatterns {
		s = p.ReplaceAllString(s, redacted)
	}
	return s
}
