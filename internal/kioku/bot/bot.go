// Package bot holds the conversation orchestrator and the chat transports
// that feed it. The orchestrator turns one inbound message into one or more
// outbound chunks; transports own the platform connections and relay both
// directions.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kiokubot/kioku/common/trace"
	"github.com/kiokubot/kioku/internal/kioku/memory"
	"github.com/kiokubot/kioku/internal/kioku/observability"
)

// MemoryStore is the slice of the memory layer the orchestrator needs.
type MemoryStore interface {
	Query(ctx context.Context, ownerID, queryText string, limit int) ([]memory.Record, []float32)
	Add(ctx context.Context, ownerID, text string, role memory.Role) error
}

var _ MemoryStore = (*memory.Store)(nil)

// Responder produces the assistant's reply for one user turn.
type Responder interface {
	GetResponse(ctx context.Context, userText, contextBlock string) (string, error)
}

// userFacing is satisfied by LLM failures that carry a safe, short
// explanation for the end user.
type userFacing interface {
	UserMessage() string
}

// Config tunes the orchestrator's retrieval and output behaviour.
type Config struct {
	// MaxMemoriesPerQuery bounds how many candidates retrieval returns.
	MaxMemoriesPerQuery int
	// ContextWindowSize bounds how many filtered turns reach the prompt.
	ContextWindowSize int
	// Filter holds the relevance threshold and top-N cut.
	Filter memory.FilterConfig
	// MessageLimit is the transport's hard per-message character limit.
	MessageLimit int
	// SensitiveValues are credentials scrubbed from logged provider errors.
	// Upstream API failures can echo the request back, key included.
	SensitiveValues []string
}

// Bot is the shared per-turn pipeline behind every transport: retrieve
// candidate memories, filter them, ask the LLM, persist the exchange, and
// chunk the reply for delivery.
type Bot struct {
	store    MemoryStore
	llm      Responder
	searcher Searcher // nil when web search is not configured
	cfg      Config

	// Turns for one owner are serialized so the continuity rule always sees
	// the true most recent memory. Distinct owners proceed concurrently.
	ownersMu sync.Mutex
	owners   map[string]*sync.Mutex
}

// New builds the orchestrator. searcher may be nil; search requests then
// get a fixed explanatory reply.
func New(store MemoryStore, llm Responder, searcher Searcher, cfg Config) *Bot {
	return &Bot{
		store:    store,
		llm:      llm,
		searcher: searcher,
		cfg:      cfg,
		owners:   make(map[string]*sync.Mutex),
	}
}

// ownerLock returns the mutex serializing turns for one owner, creating it
// on first use. Locks are never removed; the map grows with the number of
// distinct owners seen, which is bounded by the allow-listed audience.
func (b *Bot) ownerLock(ownerID string) *sync.Mutex {
	b.ownersMu.Lock()
	defer b.ownersMu.Unlock()
	mu, ok := b.owners[ownerID]
	if !ok {
		mu = &sync.Mutex{}
		b.owners[ownerID] = mu
	}
	return mu
}

// HandleTurn processes one inbound message and returns the reply chunks to
// deliver in order. LLM failures come back as chunks carrying a short
// user-facing explanation, not as an error; the returned error is reserved
// for storage failures, where the turn must abort unrecorded.
func (b *Bot) HandleTurn(ctx context.Context, ownerID, text string) ([]string, error) {
	ctx = trace.WithTurnID(ctx, trace.NewTurnID())
	log := observability.WithTurn(ctx).With("owner", ownerID)

	if query, limit, ok := parseSearchRequest(text); ok {
		return b.handleSearch(ctx, log, query, limit)
	}

	mu := b.ownerLock(ownerID)
	mu.Lock()
	defer mu.Unlock()

	candidates, queryVec := b.store.Query(ctx, ownerID, text, b.cfg.MaxMemoriesPerQuery)
	relevant := memory.SelectRelevant(candidates, queryVec, b.cfg.Filter)
	contextBlock := memory.BuildContext(relevant, b.cfg.ContextWindowSize)
	log.Debug("memories retrieved", "candidates", len(candidates), "relevant", len(relevant))

	response, err := b.llm.GetResponse(ctx, text, contextBlock)
	if err != nil {
		var uf userFacing
		if errors.As(err, &uf) {
			log.Warn("turn failed, replying with explanation",
				"err", observability.RedactSecrets(err.Error(), b.cfg.SensitiveValues...))
			return Split(uf.UserMessage(), b.cfg.MessageLimit), nil
		}
		return nil, fmt.Errorf("bot: generate response: %w", err)
	}

	// Record both sides of the exchange only after the reply exists, so a
	// failed turn leaves no half-recorded conversation.
	if err := b.store.Add(ctx, ownerID, text, memory.RoleUser); err != nil {
		return nil, fmt.Errorf("bot: record user turn: %w", err)
	}
	if err := b.store.Add(ctx, ownerID, response, memory.RoleAssistant); err != nil {
		return nil, fmt.Errorf("bot: record assistant turn: %w", err)
	}

	return Split(response, b.cfg.MessageLimit), nil
}

func (b *Bot) handleSearch(ctx context.Context, log *slog.Logger, query string, limit int) ([]string, error) {
	if b.searcher == nil {
		return []string{"Web search is not configured on this bot."}, nil
	}
	log.Info("search requested", "query", query, "limit", limit)

	pages, err := b.searcher.Search(ctx, query, limit)
	if err != nil {
		log.Warn("search failed",
			"err", observability.RedactSecrets(err.Error(), b.cfg.SensitiveValues...))
		return []string{"The web search failed. Please try again later."}, nil
	}
	return Split(formatSearchReply(query, pages), b.cfg.MessageLimit), nil
}
