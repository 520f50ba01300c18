package discord

import (
	"context"
	"fmt"
	"time"

	"doubloon-tracker/core/audit"
	"doubloon-tracker/feature/ledger"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// eventTimeout bounds the work done for one gateway event.
const eventTimeout = 30 * time.Second

// ReactionHandler applies reaction events to the ledger.
type ReactionHandler interface {
	Accepts(emoji string) bool
	HandleReaction(ctx context.Context, ev ledger.ReactionEvent) (*ledger.Result, error)
}

// NewSession creates a bot session with the intents the gateway needs.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent
	return s, nil
}

// Gateway turns chat events into ledger operations and command replies.
type Gateway struct {
	session    *discordgo.Session
	api        Session
	channel    string
	reactions  ReactionHandler
	dispatcher *Dispatcher
	logger     *zap.Logger
	trail      *audit.Trail

	remove []func()
}

// NewGateway creates a gateway. api is normally session itself.
func NewGateway(session *discordgo.Session, api Session, cfg Config, reactions ReactionHandler, dispatcher *Dispatcher, logger *zap.Logger, trail *audit.Trail) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		session:    session,
		api:        api,
		channel:    cfg.ReactionChannel,
		reactions:  reactions,
		dispatcher: dispatcher,
		logger:     logger,
		trail:      trail,
	}
}

// Open registers the event handlers and connects.
func (g *Gateway) Open() error {
	g.remove = append(g.remove,
		g.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
			g.logger.Info("Discord gateway ready", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
		}),
		g.session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
			ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
			defer cancel()
			g.HandleReaction(ctx, r.MessageReaction, ledger.ActionAdded)
		}),
		g.session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
			ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
			defer cancel()
			g.HandleReaction(ctx, r.MessageReaction, ledger.ActionRemoved)
		}),
		g.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
			ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
			defer cancel()
			g.HandleMessage(ctx, m.Message)
		}),
	)
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	return nil
}

// Close disconnects and unregisters the handlers.
func (g *Gateway) Close() error {
	for _, rm := range g.remove {
		rm()
	}
	g.remove = nil
	return g.session.Close()
}

// HandleReaction processes one reaction event from the reaction channel.
func (g *Gateway) HandleReaction(ctx context.Context, r *discordgo.MessageReaction, action ledger.Action) {
	if r == nil || r.ChannelID != g.channel {
		return
	}

	ev := ledger.ReactionEvent{
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		ReactorID: r.UserID,
		Emoji:     r.Emoji.Name,
		Action:    action,
	}
	// Recorded before any lookup so failed events still appear in the history.
	g.trail.Command("%s", ev.Describe())

	// The engine records and drops unknown emoji; skip the lookups for those.
	if g.reactions.Accepts(ev.Emoji) {
		msg, err := g.api.ChannelMessage(r.ChannelID, r.MessageID, withContext(ctx))
		if err != nil || msg.Author == nil {
			g.logger.Warn("Reacted message unavailable",
				zap.String("channel_id", r.ChannelID),
				zap.String("message_id", r.MessageID),
				zap.Error(err))
			g.trail.Error("Could not fetch message %s: %v", r.MessageID, err)
			return
		}
		ev.AuthorID = msg.Author.ID
		ev.AuthorName = DisplayName(msg.Author)

		ev.ReactorName = r.UserID
		if name, err := LookupUser(ctx, g.api, r.UserID); err == nil {
			ev.ReactorName = name
		}
	}

	if _, err := g.reactions.HandleReaction(ctx, ev); err != nil {
		g.logger.Debug("Reaction rejected", zap.String("key", ev.Key()), zap.Error(err))
	}
}

// HandleMessage runs a text command and posts the reply.
func (g *Gateway) HandleMessage(ctx context.Context, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot || g.dispatcher == nil {
		return
	}
	cmd, ok := ParseCommand(g.dispatcher.Prefix(), m.Content)
	if !ok {
		return
	}
	cmd.AuthorID = m.Author.ID
	cmd.AuthorName = DisplayName(m.Author)
	cmd.ChannelID = m.ChannelID

	reply := g.dispatcher.Dispatch(ctx, cmd)
	if reply == "" {
		return
	}
	if _, err := g.api.ChannelMessageSend(m.ChannelID, reply, withContext(ctx)); err != nil {
		g.logger.Warn("Failed to send reply", zap.String("channel_id", m.ChannelID), zap.Error(err))
	}
}
