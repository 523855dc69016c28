package wiimmfi

import (
	"regexp"
	"strings"
)

var (
	createdPattern = regexp.MustCompile(`\(created\s+(.*?)\)`)
	sha1Pattern    = regexp.MustCompile(`SHA1:\s*([\da-f]{40})`)
	ordinalPattern = regexp.MustCompile(`^\d+\.\s*`)
)

// extractCreated pulls the creation timestamp out of collapsed header text,
// e.g. "Private room (created 2021-01-01 12:00)" → "2021-01-01 12:00".
// Returns "" when no "(created ...)" marker exists.
func extractCreated(headerText string) string {
	m := createdPattern.FindStringSubmatch(headerText)
	if m == nil {
		return ""
	}
	return m[1]
}

// extractSHA1 pulls a 40-hex-digit track hash following a "SHA1:" marker.
// Returns "" when no hash is present.
func extractSHA1(headerText string) string {
	m := sha1Pattern.FindStringSubmatch(headerText)
	if m == nil {
		return ""
	}
	return m[1]
}

// stripOrdinal removes a leading "<digits>. " prefix from a role label,
// e.g. "3. Host" → "Host". Text without the prefix passes through trimmed.
func stripOrdinal(role string) string {
	return strings.TrimSpace(ordinalPattern.ReplaceAllString(strings.TrimSpace(role), ""))
}
