// Package config loads and validates the bot's runtime settings from the
// environment and the optional persona file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/kiokubot/kioku/common/environment"
)

// Selector values recognized by Load. They are matched against the
// corresponding factory constants at wiring time.
const (
	TransportDiscord = "discord"
	TransportMatrix  = "matrix"

	ProviderLMStudio = "lmstudio"
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"

	EmbedderFastEmbed = "fastembed"
	EmbedderOpenAI    = "openai"
)

// Settings holds everything the process reads from its environment. Loaded
// once at startup; immutable afterwards.
type Settings struct {
	// Transport selects the chat platform: "discord" or "matrix".
	Transport string

	// Discord credentials and scoping.
	DiscordToken      string
	AllowedServerIDs  []string
	AllowedChannelIDs []string

	// Matrix credentials and scoping.
	MatrixHomeserver   string
	MatrixUserID       string
	MatrixAccessToken  string
	MatrixAllowedRooms []string

	// LLMProvider selects the backend: "lmstudio", "openai" or "gemini".
	LLMProvider string
	// LLMBaseURL and LLMModel configure the lmstudio backend.
	LLMBaseURL string
	LLMModel   string
	// OpenAI backend settings.
	OpenAIAPIBase string
	OpenAIAPIKey  string
	OpenAIModel   string
	// Gemini backend settings.
	GeminiAPIKey string
	GeminiModel  string

	// Embedder selects the embedding backend: "fastembed" or "openai".
	Embedder          string
	EmbeddingsModel   string
	EmbeddingsBaseURL string

	// DataDir holds the vector index persistence directory and the ledger
	// database. Created on load if missing.
	DataDir string

	// Memory tuning.
	MaxMemoriesPerQuery       int
	ContextWindowSize         int
	MemorySimilarityThreshold float64
	TopMemoriesToConsider     int

	// LLM call tuning.
	APITimeout time.Duration
	MaxRetries int

	// MessageLimit is the transport's per-message character ceiling.
	MessageLimit int

	// Logging.
	LogLevel  string
	LogFormat string

	// Persona is the system prompt shaping the bot's voice, read from
	// PERSONA_FILE or falling back to the built-in default.
	Persona Persona
}

// LedgerPath is the SQLite database file inside the data directory.
func (s *Settings) LedgerPath() string {
	return filepath.Join(s.DataDir, "kioku.db")
}

// VectorPath is the chromem persistence directory inside the data directory.
func (s *Settings) VectorPath() string {
	return filepath.Join(s.DataDir, "vectors")
}

// SensitiveValues lists the configured credentials so log output can be
// scrubbed of them.
func (s *Settings) SensitiveValues() []string {
	var vals []string
	for _, v := range []string{s.DiscordToken, s.MatrixAccessToken, s.OpenAIAPIKey, s.GeminiAPIKey} {
		if v != "" {
			vals = append(vals, v)
		}
	}
	return vals
}

// Load reads a .env file when present, then the environment, validates the
// result and prepares the data directory. Unset tuning knobs get the
// documented defaults; missing credentials for the selected transport or
// provider are errors.
func Load() (*Settings, error) {
	// A missing .env is the normal production case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	s := &Settings{
		Transport: environment.StringOr("TRANSPORT", TransportDiscord),

		DiscordToken:      environment.StringOr("DISCORD_TOKEN", ""),
		AllowedServerIDs:  environment.StringSliceOr("ALLOWED_SERVER_ID", nil),
		AllowedChannelIDs: environment.StringSliceOr("ALLOWED_CHANNEL_ID", nil),

		MatrixHomeserver:   environment.StringOr("MATRIX_HOMESERVER", ""),
		MatrixUserID:       environment.StringOr("MATRIX_USER_ID", ""),
		MatrixAccessToken:  environment.StringOr("MATRIX_ACCESS_TOKEN", ""),
		MatrixAllowedRooms: environment.StringSliceOr("MATRIX_ALLOWED_ROOMS", nil),

		LLMProvider:   environment.StringOr("LLM_PROVIDER", ProviderLMStudio),
		LLMBaseURL:    environment.StringOr("LLM_BASE_URL", "http://localhost:1234/v1"),
		LLMModel:      environment.StringOr("LLM_MODEL", "local-model"),
		OpenAIAPIBase: environment.StringOr("OPENAI_API_BASE", ""),
		OpenAIAPIKey:  environment.StringOr("OPENAI_API_KEY", ""),
		OpenAIModel:   environment.StringOr("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:  environment.StringOr("GEMINI_API_KEY", ""),
		GeminiModel:   environment.StringOr("GEMINI_MODEL", "gemini-1.5-flash"),

		Embedder:          environment.StringOr("EMBEDDER", EmbedderFastEmbed),
		EmbeddingsModel:   environment.StringOr("EMBEDDINGS_MODEL", "all-MiniLM-L6-v2"),
		EmbeddingsBaseURL: environment.StringOr("EMBEDDINGS_BASE_URL", ""),

		DataDir: environment.StringOr("DATA_DIR", "./data"),

		MaxMemoriesPerQuery:       environment.IntOr("MAX_MEMORIES_PER_QUERY", 15),
		ContextWindowSize:         environment.IntOr("CONTEXT_WINDOW_SIZE", 10),
		MemorySimilarityThreshold: environment.FloatOr("MEMORY_SIMILARITY_THRESHOLD", 0.15),
		TopMemoriesToConsider:     environment.IntOr("TOP_MEMORIES_TO_CONSIDER", 8),

		APITimeout: environment.DurationOr("API_TIMEOUT", 30*time.Second),
		MaxRetries: environment.IntOr("MAX_RETRIES", 3),

		MessageLimit: environment.IntOr("MESSAGE_LIMIT", 2000),

		LogLevel:  environment.StringOr("LOG_LEVEL", "info"),
		LogFormat: environment.StringOr("LOG_FORMAT", "text"),
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	persona, err := LoadPersona(environment.StringOr("PERSONA_FILE", ""))
	if err != nil {
		return nil, err
	}
	s.Persona = persona

	if err := os.MkdirAll(s.VectorPath(), 0o755); err != nil {
		return nil, fmt.Errorf("config: create data dir: %w", err)
	}
	return s, nil
}

func (s *Settings) validate() error {
	switch s.Transport {
	case TransportDiscord:
		if s.DiscordToken == "" {
			return errors.New("config: DISCORD_TOKEN is required for the discord transport")
		}
		if len(s.AllowedServerIDs) == 0 || len(s.AllowedChannelIDs) == 0 {
			return errors.New("config: ALLOWED_SERVER_ID and ALLOWED_CHANNEL_ID are required for the discord transport")
		}
	case TransportMatrix:
		if s.MatrixHomeserver == "" || s.MatrixUserID == "" || s.MatrixAccessToken == "" {
			return errors.New("config: MATRIX_HOMESERVER, MATRIX_USER_ID and MATRIX_ACCESS_TOKEN are required for the matrix transport")
		}
		if len(s.MatrixAllowedRooms) == 0 {
			return errors.New("config: MATRIX_ALLOWED_ROOMS is required for the matrix transport")
		}
	default:
		return fmt.Errorf("config: unknown transport %q", s.Transport)
	}

	switch s.LLMProvider {
	case ProviderLMStudio:
		if s.LLMBaseURL == "" {
			return errors.New("config: LLM_BASE_URL is required for the lmstudio provider")
		}
	case ProviderOpenAI:
		if s.OpenAIAPIKey == "" {
			return errors.New("config: OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderGemini:
		if s.GeminiAPIKey == "" {
			return errors.New("config: GEMINI_API_KEY is required for the gemini provider")
		}
	default:
		return fmt.Errorf("config: unknown LLM provider %q", s.LLMProvider)
	}

	switch s.Embedder {
	case EmbedderFastEmbed:
	case EmbedderOpenAI:
		if s.EmbeddingsBaseURL == "" && s.OpenAIAPIKey == "" {
			return errors.New("config: the openai embedder needs EMBEDDINGS_BASE_URL or OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("config: unknown embedder %q", s.Embedder)
	}

	if s.MessageLimit < 1 {
		return fmt.Errorf("config: MESSAGE_LIMIT must be positive, got %d", s.MessageLimit)
	}
	if s.MaxMemoriesPerQuery < 1 {
		return fmt.Errorf("config: MAX_MEMORIES_PER_QUERY must be positive, got %d", s.MaxMemoriesPerQuery)
	}
	if s.ContextWindowSize < 1 {
		return fmt.Errorf("config: CONTEXT_WINDOW_SIZE must be positive, got %d", s.ContextWindowSize)
	}
	if s.TopMemoriesToConsider < 1 {
		return fmt.Errorf("config: TOP_MEMORIES_TO_CONSIDER must be positive, got %d", s.TopMemoriesToConsider)
	}
	if s.MemorySimilarityThreshold < 0 || s.MemorySimilarityThreshold > 1 {
		return fmt.Errorf("config: MEMORY_SIMILARITY_THRESHOLD must be within [0, 1], got %g", s.MemorySimilarityThreshold)
	}
	return nil
}
