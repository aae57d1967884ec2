package discord

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/handler-bot/pkg/dispatch"
	"github.com/keshon/handler-bot/pkg/retrylimit"
)

// FailureColor is the embed color of failure replies.
const FailureColor = 0xff4d4d

// Message adapts a gateway message to dispatch.Message.
type Message struct {
	s   *discordgo.Session
	m   *discordgo.Message
	bot *Bot
}

func (b *Bot) newMessage(s *discordgo.Session, m *discordgo.Message) *Message {
	return &Message{s: s, m: m, bot: b}
}

func (m *Message) Content() string   { return m.m.Content }
func (m *Message) GuildID() string   { return m.m.GuildID }
func (m *Message) ChannelID() string { return m.m.ChannelID }

func (m *Message) AuthorID() string {
	if m.m.Author == nil {
		return ""
	}
	return m.m.Author.ID
}

// Session exposes the live client to predicates and commands that need it.
func (m *Message) Session() *discordgo.Session { return m.s }

func (m *Message) Reply(ctx context.Context, text string) error {
	return m.send(ctx, func() error {
		_, err := m.s.ChannelMessageSend(m.m.ChannelID, text, discordgo.WithContext(ctx))
		return err
	})
}

func (m *Message) ReplyFailure(ctx context.Context, f dispatch.FailureReply) error {
	embed := FailureEmbed(f)
	return m.send(ctx, func() error {
		_, err := m.s.ChannelMessageSendEmbed(m.m.ChannelID, embed, discordgo.WithContext(ctx))
		return err
	})
}

// AuthorPermissions implements auth.PermissionSource.
func (m *Message) AuthorPermissions(ctx context.Context) (int64, error) {
	if m.m.GuildID == "" {
		// Direct messages carry no permission overwrites.
		return discordgo.PermissionSendMessages, nil
	}
	return m.s.UserChannelPermissions(m.AuthorID(), m.m.ChannelID, discordgo.WithContext(ctx))
}

// Latency implements commands.LatencySource.
func (m *Message) Latency() time.Duration { return m.s.HeartbeatLatency() }

func (m *Message) send(ctx context.Context, fn func() error) error {
	return retrylimit.Do(ctx, m.bot.limiter, m.bot.retry, func() error {
		return classify(fn())
	})
}

// FailureEmbed renders a failure reply.
func FailureEmbed(f dispatch.FailureReply) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color: FailureColor,
		Fields: []*discordgo.MessageEmbedField{{
			Name:  f.Title,
			Value: "```" + f.Input + "``` \n" + f.Explanation,
		}},
	}
}

// classify maps REST failures onto retry decisions: 429 and 5xx are
// retried, other client errors are final.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) || rest.Response == nil {
		return err
	}
	code := rest.Response.StatusCode
	if code == http.StatusTooManyRequests || code >= 500 {
		return &retrylimit.StatusError{Code: code, Err: err}
	}
	return &retrylimit.FatalError{Err: err}
}
