package memory

import "strings"

// contextHeader introduces the memory block inside the auxiliary system
// message, separating it from the persona instruction.
const contextHeader = "Relevant conversation context:"

// BuildContext renders a chronological record sequence into the auxiliary
// instruction injected alongside the persona. Only the last window entries
// are kept; each renders as "role: text" on its own line.
//
// An empty input yields "" and the caller omits the instruction entirely
// rather than sending an empty context block.
func BuildContext(records []Record, window int) string {
	if len(records) == 0 || window <= 0 {
		return ""
	}
	if len(records) > window {
		records = records[len(records)-window:]
	}

	var b strings.Builder
	b.WriteString(contextHeader)
	for _, rec := range records {
		b.WriteString("\n")
		b.WriteString(string(rec.Role))
		b.WriteString(": ")
		b.WriteString(rec.Text)
	}
	return b.String()
}
