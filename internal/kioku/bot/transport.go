package bot

import (
	"context"
	"fmt"
)

// Supported transport names.
const (
	TransportDiscord = "discord"
	TransportMatrix  = "matrix"
)

// Transport is one chat platform connection. Start blocks until ctx is
// cancelled or the connection fails; Stop tears the connection down from
// another goroutine.
type Transport interface {
	Start(ctx context.Context) error
	Stop()
}

// TransportConfig selects a platform and carries both platforms' settings;
// only the selected one is read.
type TransportConfig struct {
	Name    string
	Discord DiscordConfig
	Matrix  MatrixConfig
}

// NewTransport builds the configured platform connection around the shared
// orchestrator.
func NewTransport(cfg TransportConfig, bot *Bot) (Transport, error) {
	switch cfg.Name {
	case TransportDiscord:
		return NewDiscord(cfg.Discord, bot)
	case TransportMatrix:
		return NewMatrix(cfg.Matrix, bot)
	default:
		return nil, fmt.Errorf("bot: unknown transport %q", cfg.Name)
	}
}
