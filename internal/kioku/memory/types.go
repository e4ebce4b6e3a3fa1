// Package memory implements Kioku's per-user conversational memory: an
// embedding-backed store of past turns, a relevance filter that trims
// retrieved candidates against the current query, and a context builder
// that renders the surviving turns into an auxiliary prompt instruction.
package memory

import "fmt"

// Role identifies which side of the conversation produced a memory.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Record is one remembered conversation turn. Records are immutable once
// stored; the Index is assigned by the store, is strictly increasing per
// owner, and is never reused.
type Record struct {
	// ID is the stable document identifier in the vector index.
	ID string
	// OwnerID scopes the record to one user. Every store operation is
	// parameterized by owner and must never leak records across owners.
	OwnerID string
	// Role is "user" or "assistant".
	Role Role
	// Text is the normalized turn text (reasoning spans stripped).
	Text string
	// Index is the owner-scoped insertion index.
	Index int64
	// Embedding is the vector produced for Text at add time. Populated on
	// records returned from similarity queries; used by the relevance filter
	// so candidates never need re-embedding.
	Embedding []float32
}

// StorageError wraps failures of the underlying ledger or vector index.
// Adds propagate it to the caller (the turn is not recorded); queries
// degrade to an empty candidate set instead so the conversation survives
// a retrieval outage.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("memory: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
