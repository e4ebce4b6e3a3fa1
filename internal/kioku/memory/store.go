package memory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
)

// collectionName is the single chromem collection holding all owners' turns.
// Owner isolation happens through the mandatory metadata filter on every
// query, not through separate collections.
const collectionName = "user_interactions"

// Store persists conversation turns per owner and retrieves nearest
// neighbours for a query.
//
// Two backends cooperate:
//   - a SQLite ledger, the system of record for insertion indexes (strictly
//     increasing per owner, stable across restarts), counts and chronology;
//   - a chromem collection holding each turn's embedding plus
//     {owner_id, role, idx} metadata for cosine nearest-neighbour search.
//
// Add writes both or neither; Query only ever reads the vector side.
type Store struct {
	db       *sql.DB
	embedder Embedder

	// mu guards the collection handle, which is swapped out by Clear.
	mu  sync.RWMutex
	vdb *chromem.DB
	col *chromem.Collection
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS memories (
	id         TEXT NOT NULL,
	owner_id   TEXT NOT NULL,
	idx        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	text       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (owner_id, idx)
);
CREATE INDEX IF NOT EXISTS idx_memories_owner ON memories(owner_id);
`

// NewStore wires the ledger database and the vector index together and
// ensures both sides exist. The db handle stays owned by the caller.
func NewStore(db *sql.DB, vdb *chromem.DB, embedder Embedder) (*Store, error) {
	if _, err := db.Exec(ledgerSchema); err != nil {
		return nil, &StorageError{Op: "init ledger", Err: err}
	}
	col, err := vdb.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, &StorageError{Op: "open collection", Err: err}
	}
	return &Store{db: db, embedder: embedder, vdb: vdb, col: col}, nil
}

// collection returns the current collection handle under the read lock.
func (s *Store) collection() *chromem.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.col
}

// Add normalizes, embeds and persists one turn for the owner, assigning the
// next insertion index. The turn is recorded in full or not at all: a vector
// index failure rolls the ledger insert back and the whole add fails with a
// StorageError. Turns that normalize to nothing are silently skipped.
func (s *Store) Add(ctx context.Context, ownerID, text string, role Role) error {
	text = Normalize(text)
	if text == "" {
		return nil
	}

	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return &StorageError{Op: "embed turn", Err: err}
	}
	if len(vecs) != 1 {
		return &StorageError{Op: "embed turn", Err: fmt.Errorf("expected 1 vector, got %d", len(vecs))}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "begin tx", Err: err}
	}
	defer tx.Rollback()

	var idx int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(idx) + 1, 0) FROM memories WHERE owner_id = ?`,
		ownerID,
	).Scan(&idx)
	if err != nil {
		return &StorageError{Op: "next index", Err: err}
	}

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO memories (id, owner_id, idx, role, text, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, ownerID, idx, string(role), text, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return &StorageError{Op: "insert ledger row", Err: err}
	}

	doc := chromem.Document{
		ID:        id,
		Content:   text,
		Embedding: vecs[0],
		Metadata: map[string]string{
			"owner_id": ownerID,
			"role":     string(role),
			"idx":      strconv.FormatInt(idx, 10),
		},
	}
	if err := s.collection().AddDocument(ctx, doc); err != nil {
		// Rollback via the deferred tx.Rollback: the ledger row never lands.
		return &StorageError{Op: "index document", Err: err}
	}

	if err := tx.Commit(); err != nil {
		// The vector side already has the document; remove it again so the
		// two backends stay consistent.
		if delErr := s.collection().Delete(ctx, nil, nil, id); delErr != nil {
			slog.Error("memory: orphaned vector document after commit failure",
				"id", id, "owner_id", ownerID, "err", delErr)
		}
		return &StorageError{Op: "commit", Err: err}
	}
	return nil
}

// Query embeds queryText once and returns up to limit nearest records for
// the owner, plus the query vector for downstream relevance filtering.
//
// Query never fails the caller: any internal error (embedding included)
// degrades to an empty candidate set with a warning, so a retrieval outage
// costs the turn its memories, not its reply.
func (s *Store) Query(ctx context.Context, ownerID, queryText string, limit int) ([]Record, []float32) {
	vecs, err := s.embedder.Embed(ctx, []string{queryText})
	if err != nil || len(vecs) != 1 {
		slog.Warn("memory: query embedding failed, continuing without memories",
			"owner_id", ownerID, "err", err)
		return nil, nil
	}
	queryVec := vecs[0]

	col := s.collection()

	// chromem rejects nResults larger than the matching document count;
	// the ledger knows exactly how many turns this owner has.
	n := limit
	if c := s.Count(ctx, ownerID); n > c {
		n = c
	}
	if n <= 0 {
		return nil, queryVec
	}

	results, err := col.QueryEmbedding(ctx, queryVec, n, map[string]string{"owner_id": ownerID}, nil)
	if err != nil {
		slog.Warn("memory: similarity query failed, continuing without memories",
			"owner_id", ownerID, "err", err)
		return nil, queryVec
	}

	records := make([]Record, 0, len(results))
	for _, res := range results {
		idx, err := strconv.ParseInt(res.Metadata["idx"], 10, 64)
		if err != nil {
			slog.Warn("memory: skipping result with malformed index",
				"id", res.ID, "idx", res.Metadata["idx"])
			continue
		}
		records = append(records, Record{
			ID:        res.ID,
			OwnerID:   res.Metadata["owner_id"],
			Role:      Role(res.Metadata["role"]),
			Text:      res.Content,
			Index:     idx,
			Embedding: res.Embedding,
		})
	}
	return records, queryVec
}

// Count returns the number of stored turns for one owner, or for all owners
// when ownerID is empty. Returns 0 on error.
func (s *Store) Count(ctx context.Context, ownerID string) int {
	var (
		n   int
		err error
	)
	if ownerID == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM memories WHERE owner_id = ?`, ownerID).Scan(&n)
	}
	if err != nil {
		slog.Warn("memory: count failed", "owner_id", ownerID, "err", err)
		return 0
	}
	return n
}

// History returns an owner's turns in chronological order (all owners when
// ownerID is empty, ordered by owner then index).
func (s *Store) History(ctx context.Context, ownerID string) ([]Record, error) {
	query := `SELECT id, owner_id, idx, role, text FROM memories ORDER BY owner_id, idx`
	args := []any{}
	if ownerID != "" {
		query = `SELECT id, owner_id, idx, role, text FROM memories WHERE owner_id = ? ORDER BY idx`
		args = append(args, ownerID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "read history", Err: err}
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec  Record
			role string
		)
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.Index, &role, &rec.Text); err != nil {
			return nil, &StorageError{Op: "scan history row", Err: err}
		}
		rec.Role = Role(role)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "read history", Err: err}
	}
	return records, nil
}

// Clear deletes all records for one owner, or wipes the entire store
// (recreating an empty collection) when ownerID is empty.
func (s *Store) Clear(ctx context.Context, ownerID string) error {
	if ownerID != "" {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM memories WHERE owner_id = ?`, ownerID); err != nil {
			return &StorageError{Op: "clear ledger", Err: err}
		}
		if err := s.collection().Delete(ctx, map[string]string{"owner_id": ownerID}, nil); err != nil {
			return &StorageError{Op: "clear index", Err: err}
		}
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM memories`); err != nil {
		return &StorageError{Op: "clear ledger", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.vdb.DeleteCollection(collectionName); err != nil {
		return &StorageError{Op: "drop collection", Err: err}
	}
	col, err := s.vdb.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return &StorageError{Op: "recreate collection", Err: err}
	}
	s.col = col
	return nil
}
