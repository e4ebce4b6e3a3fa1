package memory

import (
	"context"
	"fmt"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
)

// FastEmbedConfig configures the local ONNX embedding model.
type FastEmbedConfig struct {
	// Model is the embedding model name. Defaults to all-MiniLM-L6-v2,
	// the workhorse sentence-transformer for short chat turns.
	Model string

	// CacheDir is where model weights are downloaded and cached.
	// Defaults to ".fastembed" under the working directory.
	CacheDir string

	// MaxLength is the token truncation limit. Zero uses the library default.
	MaxLength int
}

// FastEmbedder implements Embedder with a local fastembed (ONNX) model.
// No network call per embedding, which keeps memory writes cheap and makes
// the bot usable fully offline alongside a local LLM endpoint.
//
// The ONNX session is not reentrant, so calls are serialized by a mutex;
// the type is safe for concurrent use by multiple turns.
type FastEmbedder struct {
	mu    sync.Mutex
	model *fastembed.FlagEmbedding
}

// embedBatchSize bounds how many texts go through the ONNX session per step.
const embedBatchSize = 32

// NewFastEmbedder loads (downloading on first run) the configured model.
// The returned embedder must be released with Close.
func NewFastEmbedder(cfg FastEmbedConfig) (*FastEmbedder, error) {
	model, err := resolveFastEmbedModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = ".fastembed"
	}

	fe, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:     model,
		CacheDir:  cacheDir,
		MaxLength: cfg.MaxLength,
	})
	if err != nil {
		return nil, fmt.Errorf("fastembed init: %w", err)
	}
	return &FastEmbedder{model: fe}, nil
}

// resolveFastEmbedModel maps a configuration string to a fastembed model.
func resolveFastEmbedModel(name string) (fastembed.EmbeddingModel, error) {
	switch name {
	case "", "all-minilm-l6-v2":
		return fastembed.AllMiniLML6V2, nil
	case "bge-small-en":
		return fastembed.BGESmallEN, nil
	case "bge-small-en-v1.5":
		return fastembed.BGESmallENV15, nil
	case "bge-base-en":
		return fastembed.BGEBaseEN, nil
	default:
		return "", fmt.Errorf("fastembed: unknown embedding model %q", name)
	}
}

// Embed returns one vector per text, in order. Storage and query texts go
// through the same code path so both live in the same vector space.
func (e *FastEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	out, err := e.model.Embed(texts, embedBatchSize)
	if err != nil {
		return nil, fmt.Errorf("fastembed embed: %w", err)
	}
	return out, nil
}

// Close releases the ONNX session.
func (e *FastEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model != nil {
		e.model.Destroy()
		e.model = nil
	}
	return nil
}

var _ Embedder = (*FastEmbedder)(nil)
