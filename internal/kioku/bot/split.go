package bot

import "strings"

// Split breaks text into chunks of at most max characters without splitting
// words. Text that already fits is returned as a single chunk unchanged,
// preserving its original whitespace. Longer text is re-joined from its
// whitespace-delimited words with single spaces, so consecutive whitespace
// collapses across chunk boundaries.
//
// A single word longer than max is emitted as its own over-length chunk
// rather than being cut mid-word. Transports that forward such a chunk will
// see it rejected by the platform; this mirrors how chat platforms treat
// unbreakable runs like long URLs.
func Split(text string, max int) []string {
	if len(text) <= max {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len()+len(word)+1 > max && current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
