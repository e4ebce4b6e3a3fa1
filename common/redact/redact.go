// Package redact strips credential values from text before it leaves the
// process boundary.
//
// Kioku holds several live credentials at once (Discord bot token, Matrix
// access token, LLM and embedding API keys). None of them may appear in:
//   - log lines, including debug dumps of provider requests
//   - error messages relayed back into a chat channel
//
// Redaction is best-effort: it operates on string representations and relies
// on callers to pass the right set of sensitive terms. It is NOT a substitute
// for keeping secrets out of log call-sites in the first place.
package redact

import "strings"

const placeholder = "[REDACTED]"

// String replaces every occurrence of each sensitive value in s with
// [REDACTED]. Values shorter than 4 characters are skipped to avoid
// spurious redaction of common substrings.
//
// Example:
//
//	safe := redact.String(errText, apiKey, botToken)
func String(s string, sensitiveValues ...string) string {
	for _, v := range sensitiveValues {
		if len(v) < 4 {
			continue
		}
		s = strings.ReplaceAll(s, v, placeholder)
	}
	return s
}
