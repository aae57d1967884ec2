// Package discord connects the dispatch tree to a Discord gateway session.
package discord

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/handler-bot/pkg/dispatch"
	"github.com/keshon/handler-bot/pkg/retrylimit"
)

// Listener is an extra gateway event handler, e.g.
// func(*discordgo.Session, *discordgo.GuildMemberAdd).
type Listener struct {
	Name    string
	Handler interface{}
}

// Options is the bootstrap input.
type Options struct {
	Token           string
	Prefix          string
	UsePingAsPrefix bool
	Listeners       []Listener
	GuildBlacklist  []string
}

// Bot is a Discord bot
type Bot struct {
	dg       *discordgo.Session
	root     *dispatch.HandlerNode
	resolver dispatch.PrefixResolver
	opts     Options
	log      zerolog.Logger
	limiter  *retrylimit.AdaptiveLimiter
	retry    retrylimit.RetryConfig
	ctx      context.Context
}

// NewBot prepares a bot dispatching to root. Nothing connects until Run.
func NewBot(root *dispatch.HandlerNode, opts Options, logger zerolog.Logger) *Bot {
	retry := retrylimit.DefaultRetryConfig()
	retry.Logger = logger
	return &Bot{
		root:     root,
		resolver: dispatch.PrefixResolver{Prefix: opts.Prefix, UsePingAsPrefix: opts.UsePingAsPrefix},
		opts:     opts,
		log:      logger,
		limiter:  retrylimit.NewAdaptiveLimiter(5, 1, 40, 1, 0.5),
		retry:    retry,
		ctx:      context.Background(),
	}
}

// Run opens the gateway session and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.opts.Token)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg
	b.ctx = ctx

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	b.attach(dg)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, closing session")
	return nil
}

// handlerAdder is the part of *discordgo.Session handlers are attached to.
type handlerAdder interface {
	AddHandler(handler interface{}) func()
}

func (b *Bot) attach(s handlerAdder) {
	s.AddHandler(b.onReady)
	s.AddHandler(b.onGuildCreate)
	s.AddHandler(b.onMessageCreate)
	for _, l := range b.opts.Listeners {
		s.AddHandler(l.Handler)
		b.log.Debug().Str("listener", l.Name).Msg("listener attached")
	}
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		b.leaveIfBlacklisted(s, g.ID)
	}
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if b.leaveIfBlacklisted(s, g.ID) {
		return
	}
	b.log.Debug().Str("guild", g.ID).Str("name", g.Name).Msg("guild available")
}

func (b *Bot) leaveIfBlacklisted(s *discordgo.Session, guildID string) bool {
	if !slices.Contains(b.opts.GuildBlacklist, guildID) {
		return false
	}
	b.log.Info().Str("guild", guildID).Msg("leaving blacklisted guild")
	if err := s.GuildLeave(guildID); err != nil {
		b.log.Error().Err(err).Str("guild", guildID).Msg("failed to leave guild")
	}
	return true
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	selfID := ""
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}
	if m.Author.ID == selfID {
		return
	}

	input, ok := b.resolver.Resolve(m.Content, mentionFor(m.Content, selfID))
	if !ok {
		return
	}

	logger := b.log.With().
		Str("guild", m.GuildID).
		Str("channel", m.ChannelID).
		Str("user", m.Author.ID).
		Logger()
	ctx := logger.WithContext(b.ctx)

	out := b.root.Run(ctx, b.newMessage(s, m.Message), input)
	logger.Debug().Str("result", out.Result.String()).Strs("path", out.Path).Msg("dispatched")
}

// mentionFor picks the mention form the body uses. Discord sends both
// <@!id> (nickname) and <@id>.
func mentionFor(body, selfID string) string {
	if selfID != "" && strings.HasPrefix(body, "<@"+selfID+">") {
		return "<@" + selfID + ">"
	}
	return dispatch.MentionToken(selfID)
}
