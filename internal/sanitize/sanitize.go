// Package sanitize strips boilerplate framing from raw model output.
// Models frequently prepend a lead-in phrase ("Here's a prompt: ...") or
// wrap the whole answer in quotes; callers want only the prompt itself.
package sanitize

import (
	"regexp"
	"strings"
)

var leadIns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Here's? a (comprehensive )?prompt based on the user's? input:\s*`),
	regexp.MustCompile(`(?i)^Here's? a prompt:\s*`),
	regexp.MustCompile(`(?i)^Here's? what I generated:\s*`),
	regexp.MustCompile(`(?i)^Generated prompt:\s*`),
	regexp.MustCompile(`(?i)^Prompt:\s*`),
}

var (
	doubleQuoted = regexp.MustCompile(`^"([^"]+)"$`)
	singleQuoted = regexp.MustCompile(`^'([^']+)'$`)
)

// Clean removes known lead-in phrases from the start of raw, unwraps a
// single quote pair spanning the entire text, and trims whitespace.
// Quotes that do not span the whole string are left alone. Clean is
// idempotent and Clean("") == "".
func Clean(raw string) string {
	if raw == "" {
		return ""
	}

	cleaned := raw
	for _, re := range leadIns {
		cleaned = re.ReplaceAllString(cleaned, "")
	}

	cleaned = doubleQuoted.ReplaceAllString(cleaned, "$1")
	cleaned = singleQuoted.ReplaceAllString(cleaned, "$1")

	return strings.TrimSpace(cleaned)
}
