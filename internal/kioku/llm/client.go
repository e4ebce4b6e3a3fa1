package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kiokubot/kioku/common/retry"
)

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// Client is the gateway in front of a Provider: it assembles the message
// sequence, runs the bounded retry loop for transient failures, and strips
// reasoning spans from the output. Construct once at startup and share; it
// is safe for concurrent use.
type Client struct {
	provider   Provider
	persona    string
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
}

// NewClient builds a gateway over the given provider. persona is the fixed
// system instruction sent first on every call. timeout bounds each
// individual attempt; maxRetries is the number of additional attempts after
// the first.
func NewClient(provider Provider, persona string, timeout time.Duration, maxRetries int) *Client {
	return &Client{
		provider:   provider,
		persona:    persona,
		timeout:    timeout,
		maxRetries: maxRetries,
		baseDelay:  time.Second,
	}
}

// assembleMessages builds the fixed-order sequence: persona system message,
// the auxiliary context system message when one was built, then the user's
// current message. Backends that cannot express multiple system messages
// fold them per their adapter's own rule.
func (c *Client) assembleMessages(userText, contextBlock string) []Message {
	messages := make([]Message, 0, 3)
	messages = append(messages, Message{Role: RoleSystem, Content: c.persona})
	if contextBlock != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: contextBlock})
	}
	messages = append(messages, Message{Role: RoleUser, Content: userText})
	return messages
}

// GetResponse sends the user's message (with the optional memory context
// block) to the provider and returns the cleaned reply.
//
// Transient failures are retried with exponential backoff up to the
// configured budget, then wrapped in *FatalError. Permanent failures
// short-circuit the loop and are returned as *PermanentError.
func (c *Client) GetResponse(ctx context.Context, userText, contextBlock string) (string, error) {
	messages := c.assembleMessages(userText, contextBlock)

	var result string
	err := retry.Do(ctx, retry.Config{
		MaxAttempts: c.maxRetries + 1,
		BaseDelay:   c.baseDelay,
		ShouldRetry: func(err error) bool {
			var permanent *PermanentError
			return !errors.As(err, &permanent)
		},
	}, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		text, err := c.provider.Generate(attemptCtx, messages)
		if err != nil {
			return err
		}
		result = text
		return nil
	})

	if err != nil {
		var permanent *PermanentError
		if errors.As(err, &permanent) {
			slog.Warn("llm: permanent provider failure", "reason", permanent.Reason, "err", err)
			return "", permanent
		}
		slog.Error("llm: retries exhausted", "attempts", c.maxRetries+1, "err", err)
		return "", &FatalError{Attempts: c.maxRetries + 1, Err: err}
	}

	return stripReasoning(result), nil
}

// stripReasoning removes a matched <think>...</think> span, returning only
// the trimmed remainder. Unmatched markers are left untouched.
func stripReasoning(text string) string {
	if start := strings.Index(text, thinkOpen); start >= 0 {
		if end := strings.Index(text[start:], thinkClose); end >= 0 {
			text = text[start+end+len(thinkClose):]
		}
	}
	return strings.TrimSpace(text)
}
