// Package telegram connects the dispatch tree to the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/keshon/handler-bot/pkg/dispatch"
	"github.com/keshon/handler-bot/pkg/retrylimit"
)

// Options is the bootstrap input.
type Options struct {
	Token           string
	Prefix          string
	UsePingAsPrefix bool
}

// Sender is the part of tgbotapi.BotAPI replies go through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api      *tgbotapi.BotAPI
	root     *dispatch.HandlerNode
	resolver dispatch.PrefixResolver
	opts     Options
	log      zerolog.Logger
	limiter  *retrylimit.AdaptiveLimiter
	retry    retrylimit.RetryConfig
}

func NewBot(root *dispatch.HandlerNode, opts Options, logger zerolog.Logger) *Bot {
	retry := retrylimit.DefaultRetryConfig()
	retry.Logger = logger
	return &Bot{
		root:     root,
		resolver: dispatch.PrefixResolver{Prefix: opts.Prefix, UsePingAsPrefix: opts.UsePingAsPrefix},
		opts:     opts,
		log:      logger,
		limiter:  retrylimit.NewAdaptiveLimiter(20, 1, 30, 1, 0.5),
		retry:    retry,
	}
}

// Run long-polls for updates until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	api, err := tgbotapi.NewBotAPI(b.opts.Token)
	if err != nil {
		return fmt.Errorf("failed to create telegram client: %w", err)
	}
	b.api = api
	b.log.Info().Str("user", api.Self.UserName).Msg("telegram bot is running")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			b.log.Info().Msg("shutdown signal received, stopping updates")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if upd.Message == nil {
				continue
			}
			go b.handle(ctx, api, upd.Message)
		}
	}
}

func (b *Bot) handle(ctx context.Context, api Sender, m *tgbotapi.Message) {
	if m.From == nil || m.From.IsBot {
		return
	}
	self := ""
	if b.api != nil {
		self = b.api.Self.UserName
	}
	input, ok := b.resolver.Resolve(m.Text, MentionToken(self))
	if !ok {
		return
	}

	msg := b.newMessage(api, m)
	logger := b.log.With().
		Str("chat", msg.GuildID()).
		Str("user", msg.AuthorID()).
		Logger()

	out := b.root.Run(logger.WithContext(ctx), msg, input)
	logger.Debug().Str("result", out.Result.String()).Strs("path", out.Path).Msg("dispatched")
}

// MentionToken is the Telegram self-mention for username.
func MentionToken(username string) string {
	if username == "" {
		username = "undefined"
	}
	return "@" + username
}

// Message adapts a Telegram message to dispatch.Message. Group chats play
// the role of guilds; private chats have no guild.
type Message struct {
	api Sender
	m   *tgbotapi.Message
	bot *Bot
}

func (b *Bot) newMessage(api Sender, m *tgbotapi.Message) *Message {
	return &Message{api: api, m: m, bot: b}
}

func (m *Message) Content() string   { return m.m.Text }
func (m *Message) ChannelID() string { return strconv.FormatInt(m.m.Chat.ID, 10) }

func (m *Message) AuthorID() string {
	if m.m.From == nil {
		return ""
	}
	return strconv.FormatInt(m.m.From.ID, 10)
}

func (m *Message) GuildID() string {
	if m.m.Chat == nil || m.m.Chat.IsPrivate() {
		return ""
	}
	return strconv.FormatInt(m.m.Chat.ID, 10)
}

func (m *Message) Reply(ctx context.Context, text string) error {
	out := tgbotapi.NewMessage(m.m.Chat.ID, text)
	out.ReplyToMessageID = m.m.MessageID
	return m.send(ctx, out)
}

func (m *Message) ReplyFailure(ctx context.Context, f dispatch.FailureReply) error {
	out := tgbotapi.NewMessage(m.m.Chat.ID, FormatFailure(f))
	out.ReplyToMessageID = m.m.MessageID
	return m.send(ctx, out)
}

func (m *Message) send(ctx context.Context, c tgbotapi.Chattable) error {
	return retrylimit.Do(ctx, m.bot.limiter, m.bot.retry, func() error {
		_, err := m.api.Send(c)
		return classify(err)
	})
}

// FormatFailure renders a failure reply as plain text.
func FormatFailure(f dispatch.FailureReply) string {
	return f.Title + "\n> " + f.Input + "\n" + f.Explanation
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code >= 500 {
			return &retrylimit.StatusError{Code: apiErr.Code, Err: err}
		}
		return &retrylimit.FatalError{Err: err}
	}
	return err
}
