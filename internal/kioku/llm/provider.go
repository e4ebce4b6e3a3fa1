package llm

import (
	"context"
	"fmt"
	"time"
)

// Generation parameters shared by the adapters. Kept fixed rather than
// configurable: this bot tunes behaviour through the persona, not sampling.
const (
	generationTemperature = 0.7
	lmStudioMaxTokens     = 8196
	geminiMaxTokens       = 2048
)

// Provider is a single LLM backend. Generate sends the ordered message
// sequence and returns the raw completion text. Implementations classify
// their failures as *TransientError or *PermanentError and honor ctx
// deadlines end-to-end through their network calls.
type Provider interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// Supported provider names.
const (
	ProviderLMStudio = "lmstudio"
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
)

// ProviderConfig selects a backend and carries the fields that backend
// needs. It is read once at startup; the selected provider is immutable for
// the process lifetime.
type ProviderConfig struct {
	// Name is one of the Provider* constants.
	Name string
	// BaseURL is the endpoint for the local lmstudio backend, or an
	// override for the OpenAI-compatible backend.
	BaseURL string
	// Model is the model identifier to request.
	Model string
	// APIKey authenticates against hosted backends. Not used by lmstudio.
	APIKey string
	// Timeout bounds each individual generation attempt.
	Timeout time.Duration
}

// NewProvider builds the configured adapter. Invalid configuration, such
// as an unknown provider name or a missing credential for a hosted
// backend, fails here at construction rather than at call time.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	switch cfg.Name {
	case ProviderLMStudio:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm: provider %q requires a base URL", cfg.Name)
		}
		return newLMStudioProvider(cfg), nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm: provider %q requires an API key", cfg.Name)
		}
		return newOpenAIProvider(cfg), nil
	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm: provider %q requires an API key", cfg.Name)
		}
		return newGeminiProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Name)
	}
}
