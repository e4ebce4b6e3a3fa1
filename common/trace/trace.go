// Package trace provides turn ID generation and context propagation so that
// every log line emitted while handling one conversation turn can be
// correlated, from transport receive through memory retrieval to the LLM call.
package trace

import (
	"context"

	"github.com/google/uuid"
)

// turnKey is the unexported context key used to store the turn ID.
type turnKey struct{}

// NewTurnID generates a unique ID for one conversation turn.
func NewTurnID() string {
	return "turn_" + uuid.NewString()
}

// WithTurnID returns a child context carrying the given turn ID.
func WithTurnID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, turnKey{}, id)
}

// FromContext extracts the turn ID from ctx, returning "" if absent.
func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(turnKey{}).(string); ok {
		return v
	}
	return ""
}
