package bot

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// thinkingMessages are posted while a turn is in flight; the placeholder is
// later edited into the first reply chunk.
var thinkingMessages = []string{
	"🤔 Let me think about that...",
	"🧠 Processing your message...",
	"💭 Gathering my thoughts...",
	"⚡ Computing response...",
	"🔄 Analyzing context...",
}

// DiscordConfig holds the Discord connection and scoping settings.
type DiscordConfig struct {
	Token string
	// AllowedGuilds and AllowedChannels restrict where the bot responds.
	// Empty lists allow nothing; this bot never answers unsolicited.
	AllowedGuilds   []string
	AllowedChannels []string
}

// Discord relays messages between Discord and the orchestrator. Each
// inbound message is handled on its own goroutine by discordgo, so turns
// for distinct users overlap naturally.
type Discord struct {
	session *discordgo.Session
	bot     *Bot
	cfg     DiscordConfig
	ctx     context.Context
}

var _ Transport = (*Discord)(nil)

// NewDiscord creates the Discord transport. The session is configured but
// not yet connected; Start opens it.
func NewDiscord(cfg DiscordConfig, bot *Bot) (*Discord, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("bot: discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	d := &Discord{session: session, bot: bot, cfg: cfg}
	session.AddHandler(d.handleMessage)
	return d, nil
}

// Start opens the gateway connection and blocks until ctx is cancelled.
func (d *Discord) Start(ctx context.Context) error {
	d.ctx = ctx
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("bot: discord connect: %w", err)
	}
	slog.Info("Discord transport connected",
		"guilds", d.cfg.AllowedGuilds, "channels", d.cfg.AllowedChannels)

	<-ctx.Done()
	return d.session.Close()
}

// Stop closes the gateway connection.
func (d *Discord) Stop() {
	if err := d.session.Close(); err != nil {
		slog.Warn("Discord close failed", "err", err)
	}
}

func (d *Discord) allowed(guildID, channelID string) bool {
	return contains(d.cfg.AllowedGuilds, guildID) && contains(d.cfg.AllowedChannels, channelID)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func (d *Discord) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}
	if !d.allowed(m.GuildID, m.ChannelID) {
		return
	}
	// Messages that mention anyone are conversations between humans.
	if strings.Contains(m.Content, "@") {
		return
	}

	slog.Info("Discord message received", "channel", m.ChannelID, "author", m.Author.ID)

	thinking, err := s.ChannelMessageSend(m.ChannelID, thinkingMessages[rand.Intn(len(thinkingMessages))])
	if err != nil {
		slog.Warn("Discord placeholder send failed", "err", err)
		thinking = nil
	}

	chunks, err := d.bot.HandleTurn(d.ctx, m.Author.ID, m.Content)
	if err != nil {
		slog.Error("turn failed", "err", err)
		chunks = []string{"Something went wrong while handling that message."}
	}

	// The placeholder becomes the first chunk; the rest follow as new
	// messages so ordering is preserved.
	first := 0
	if thinking != nil {
		if _, err := s.ChannelMessageEdit(m.ChannelID, thinking.ID, chunks[0]); err != nil {
			slog.Warn("Discord edit failed", "err", err)
		} else {
			first = 1
		}
	}
	for _, chunk := range chunks[first:] {
		if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			slog.Warn("Discord send failed", "err", err)
			return
		}
	}
}
