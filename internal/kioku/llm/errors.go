package llm

import "fmt"

// PermanentReason classifies why a provider call can never succeed by
// retrying.
type PermanentReason string

const (
	ReasonAuth       PermanentReason = "auth"
	ReasonPermission PermanentReason = "permission"
	ReasonRateLimit  PermanentReason = "rate-limit"
)

// userMessages maps each permanent reason to the short explanation shown in
// chat in place of the assistant's answer. Raw provider errors and stack
// traces never reach the end user.
var userMessages = map[PermanentReason]string{
	ReasonAuth:       "My API credentials were rejected. Please check the configured API key.",
	ReasonPermission: "The language model denied access. Please check that the API key has the necessary permissions.",
	ReasonRateLimit:  "The language model's rate limit was exceeded. Please wait a few minutes and try again.",
}

// TransientError marks a failure worth retrying: network trouble, a
// timeout, or a server-side 5xx.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("llm: transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a failure that retrying cannot fix: bad
// credentials, missing permissions, or an exhausted quota. It is surfaced
// immediately without burning retry attempts.
type PermanentError struct {
	Reason PermanentReason
	Err    error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("llm: permanent (%s): %v", e.Reason, e.Err)
}
func (e *PermanentError) Unwrap() error { return e.Err }

// UserMessage is the explanation shown in chat for this failure.
func (e *PermanentError) UserMessage() string {
	if msg, ok := userMessages[e.Reason]; ok {
		return msg
	}
	return "The language model rejected the request."
}

// FatalError wraps the last transient cause after the retry budget is
// exhausted.
type FatalError struct {
	Attempts int
	Err      error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("llm: giving up after %d attempts: %v", e.Attempts, e.Err)
}
func (e *FatalError) Unwrap() error { return e.Err }

// UserMessage is the explanation shown in chat for this failure. It is
// deliberately distinct from every permanent-error message.
func (e *FatalError) UserMessage() string {
	return "I couldn't reach my language model after several attempts. Please try again in a moment."
}
