package memory

import "strings"

const (
	thinkOpen      = "<think>"
	thinkClose     = "</think>"
	responsePrefix = "Response:"
)

// Normalize cleans a turn's text before it is embedded and stored.
// Reasoning models leak their scratchpad into output; storing it would
// poison future similarity searches with non-conversational text.
//
// Steps, in order:
//  1. Drop everything up to and including a matched <think>...</think> span.
//  2. Drop a literal "Response:" prefix.
//  3. Trim leading dashes/newlines and surrounding whitespace.
func Normalize(text string) string {
	if start := strings.Index(text, thinkOpen); start >= 0 {
		if end := strings.Index(text[start:], thinkClose); end >= 0 {
			text = strings.TrimSpace(text[start+end+len(thinkClose):])
		}
	}

	if strings.HasPrefix(text, responsePrefix) {
		text = strings.TrimSpace(text[len(responsePrefix):])
	}

	return strings.TrimSpace(strings.TrimLeft(text, "-\n"))
}
