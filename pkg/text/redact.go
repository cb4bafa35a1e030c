package text

import "regexp"

// Secret material must never reach logs or user-visible error text, not even
// inside truncated response bodies echoed back by a provider.
var secretPatterns = []*regexp.Regexp{
	// Anthropic-style keys first: "sk-ant-" would otherwise half-match the
	// generic "sk-" rule and leak its tail.
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]+`),
	regexp.MustCompile(`sk-[A-Za-z0-9_-]{8,}`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]+`),
	regexp.MustCompile(`ghp_[A-Za-z0-9]{20,}`),
}

const redactedMarker = "[REDACTED]"

// RedactSecrets replaces known secret markers in s with a fixed placeholder.
func RedactSecrets(s string) string {
	for _, p := range secretPatterns {
		s = p.ReplaceAllString(s, redactedMarker)
	}
	return s
}
