package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// MatrixConfig holds the Matrix connection and scoping settings.
type MatrixConfig struct {
	Homeserver  string
	UserID      string
	AccessToken string
	// AllowedRooms restricts which rooms the bot listens in.
	AllowedRooms []string
}

// Matrix relays messages between a Matrix homeserver and the orchestrator.
type Matrix struct {
	client *mautrix.Client
	bot    *Bot
	cfg    MatrixConfig
	stopCh chan struct{}
}

var _ Transport = (*Matrix)(nil)

// NewMatrix creates the Matrix transport.
func NewMatrix(cfg MatrixConfig, bot *Bot) (*Matrix, error) {
	client, err := mautrix.NewClient(cfg.Homeserver, id.UserID(cfg.UserID), cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("bot: matrix client: %w", err)
	}
	return &Matrix{
		client: client,
		bot:    bot,
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}, nil
}

// Start joins the allowed rooms and syncs until ctx is cancelled or Stop is
// called. A failed sync reconnects with exponential backoff; without
// retries a transient homeserver error would leave the bot deaf to all new
// messages.
func (m *Matrix) Start(ctx context.Context) error {
	// Stop must interrupt an in-flight sync, not just the backoff waits, so
	// it folds into the context the sync loop runs under.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-m.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	syncer := m.client.Syncer.(*mautrix.DefaultSyncer)
	syncer.OnEventType(event.EventMessage, func(eventCtx context.Context, evt *event.Event) {
		m.handleMessage(ctx, evt)
	})

	for _, room := range m.cfg.AllowedRooms {
		if _, err := m.client.JoinRoomByID(ctx, id.RoomID(room)); err != nil {
			slog.Warn("Matrix room join failed, continuing", "room", room, "err", err)
		}
	}
	slog.Info("Matrix transport syncing", "homeserver", m.cfg.Homeserver, "rooms", m.cfg.AllowedRooms)

	const (
		backoffMin = 2 * time.Second
		backoffMax = 5 * time.Minute
	)
	backoff := backoffMin
	for {
		// SyncWithContext, not Sync: a healthy sync blocks until the next
		// batch, so cancellation has to reach into the call itself for
		// signal-driven shutdown to work.
		err := m.client.SyncWithContext(ctx)
		if err == nil {
			// Sync returns nil only after a clean StopSync call.
			return nil
		}
		// Stop cancels the derived context too, so check stopCh first to
		// report a requested shutdown as a clean return.
		select {
		case <-m.stopCh:
			return nil
		default:
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Error("Matrix sync stopped, reconnecting", "err", err, "backoff", backoff)
		select {
		case <-m.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > backoffMax {
			backoff = backoffMax
		}
	}
}

// Stop ends the sync loop.
func (m *Matrix) Stop() {
	close(m.stopCh)
	m.client.StopSync()
}

func (m *Matrix) handleMessage(ctx context.Context, evt *event.Event) {
	if evt.Sender == id.UserID(m.cfg.UserID) {
		return
	}
	if !contains(m.cfg.AllowedRooms, evt.RoomID.String()) {
		return
	}
	content := evt.Content.AsMessage()
	if content == nil || content.MsgType != event.MsgText {
		return
	}
	if content.Body == "" {
		return
	}

	slog.Info("Matrix message received", "room", evt.RoomID, "sender", evt.Sender)

	// One goroutine per turn so one owner's retries never block the sync
	// loop or other rooms.
	go func() {
		chunks, err := m.bot.HandleTurn(ctx, evt.Sender.String(), content.Body)
		if err != nil {
			slog.Error("turn failed", "err", err)
			chunks = []string{"Something went wrong while handling that message."}
		}
		for _, chunk := range chunks {
			if _, err := m.client.SendText(ctx, evt.RoomID, chunk); err != nil {
				slog.Warn("Matrix send failed", "room", evt.RoomID, "err", err)
				return
			}
		}
	}()
}
