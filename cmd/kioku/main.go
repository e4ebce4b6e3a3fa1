package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	chromem "github.com/philippgille/chromem-go"
	_ "modernc.org/sqlite"

	"github.com/kiokubot/kioku/common/version"
	"github.com/kiokubot/kioku/internal/kioku/bot"
	"github.com/kiokubot/kioku/internal/kioku/config"
	"github.com/kiokubot/kioku/internal/kioku/llm"
	"github.com/kiokubot/kioku/internal/kioku/memory"
	"github.com/kiokubot/kioku/internal/kioku/observability"
)

func main() {
	fmt.Printf("Kioku Conversational Agent\n")
	fmt.Printf("Version: %s\n", version.Version)
	fmt.Printf("Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Println()

	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	observability.Setup(settings.LogLevel, settings.LogFormat)

	if err := run(settings); err != nil {
		slog.Error("Kioku stopped",
			"err", observability.RedactSecrets(err.Error(), settings.SensitiveValues()...))
		os.Exit(1)
	}
}

func run(settings *config.Settings) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, closeEmbedder, err := newEmbedder(settings)
	if err != nil {
		return fmt.Errorf("initialize embedder: %w", err)
	}
	defer closeEmbedder()

	db, err := sql.Open("sqlite", settings.LedgerPath())
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer db.Close()

	vdb, err := chromem.NewPersistentDB(settings.VectorPath(), false)
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}

	store, err := memory.NewStore(db, vdb, embedder)
	if err != nil {
		return fmt.Errorf("initialize memory store: %w", err)
	}

	provider, err := llm.NewProvider(ctx, providerConfig(settings))
	if err != nil {
		return fmt.Errorf("initialize LLM provider: %w", err)
	}
	client := llm.NewClient(provider, settings.Persona.SystemPrompt, settings.APITimeout, settings.MaxRetries)

	orchestrator := bot.New(store, client, nil, bot.Config{
		MaxMemoriesPerQuery: settings.MaxMemoriesPerQuery,
		ContextWindowSize:   settings.ContextWindowSize,
		Filter: memory.FilterConfig{
			Threshold: settings.MemorySimilarityThreshold,
			TopN:      settings.TopMemoriesToConsider,
		},
		MessageLimit:    settings.MessageLimit,
		SensitiveValues: settings.SensitiveValues(),
	})

	transport, err := bot.NewTransport(transportConfig(settings), orchestrator)
	if err != nil {
		return fmt.Errorf("initialize transport: %w", err)
	}
	defer transport.Stop()

	slog.Info("Kioku starting",
		"transport", settings.Transport,
		"provider", settings.LLMProvider,
		"embedder", settings.Embedder,
		"data_dir", settings.DataDir)

	if err := transport.Start(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("transport: %w", err)
	}
	slog.Info("Kioku shut down cleanly")
	return nil
}

// newEmbedder builds the configured embedding backend and a release
// function for its resources.
func newEmbedder(settings *config.Settings) (memory.Embedder, func(), error) {
	switch settings.Embedder {
	case config.EmbedderFastEmbed:
		fe, err := memory.NewFastEmbedder(memory.FastEmbedConfig{
			Model:    settings.EmbeddingsModel,
			CacheDir: filepath.Join(settings.DataDir, "models"),
		})
		if err != nil {
			return nil, nil, err
		}
		return fe, func() {
			if err := fe.Close(); err != nil {
				slog.Warn("embedder close failed", "err", err)
			}
		}, nil
	case config.EmbedderOpenAI:
		oe := memory.NewOpenAIEmbedder(memory.OpenAIEmbedderConfig{
			APIKey:  settings.OpenAIAPIKey,
			BaseURL: settings.EmbeddingsBaseURL,
			Model:   settings.EmbeddingsModel,
			Timeout: settings.APITimeout,
		})
		return oe, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown embedder %q", settings.Embedder)
	}
}

func providerConfig(settings *config.Settings) llm.ProviderConfig {
	cfg := llm.ProviderConfig{
		Name:    settings.LLMProvider,
		Timeout: settings.APITimeout,
	}
	switch settings.LLMProvider {
	case config.ProviderLMStudio:
		cfg.BaseURL = settings.LLMBaseURL
		cfg.Model = settings.LLMModel
	case config.ProviderOpenAI:
		cfg.BaseURL = settings.OpenAIAPIBase
		cfg.Model = settings.OpenAIModel
		cfg.APIKey = settings.OpenAIAPIKey
	case config.ProviderGemini:
		cfg.Model = settings.GeminiModel
		cfg.APIKey = settings.GeminiAPIKey
	}
	return cfg
}

func transportConfig(settings *config.Settings) bot.TransportConfig {
	return bot.TransportConfig{
		Name: settings.Transport,
		Discord: bot.DiscordConfig{
			Token:           settings.DiscordToken,
			AllowedGuilds:   settings.AllowedServerIDs,
			AllowedChannels: settings.AllowedChannelIDs,
		},
		Matrix: bot.MatrixConfig{
			Homeserver:   settings.MatrixHomeserver,
			UserID:       settings.MatrixUserID,
			AccessToken:  settings.MatrixAccessToken,
			AllowedRooms: settings.MatrixAllowedRooms,
		},
	}
}
