// Package llm contains the language-model gateway: message assembly, a
// closed set of provider adapters behind one interface, bounded
// retry/backoff for transient failures, and the error taxonomy that
// separates retryable infrastructure trouble from credential and quota
// problems that retrying cannot fix.
package llm

// Message roles, matching the chat-completions convention shared by every
// supported backend. The Gemini adapter re-maps them on its own wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the ordered sequence sent to a backend.
type Message struct {
	Role    string
	Content string
}
