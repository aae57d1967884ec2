package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/handler-bot/pkg/dispatch"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	buy := dispatch.MustCommand(dispatch.CommandOptions{
		Name: "buy",
		Action: func(ctx context.Context, inv *dispatch.Invocation) error {
			return inv.Message.Reply(ctx, "bought "+inv.Args.Raw+" for "+inv.Message.AuthorID())
		},
	})
	locked := dispatch.MustCommand(dispatch.CommandOptions{
		Name:   "vault",
		CanRun: []dispatch.AuthFunc{func(context.Context, dispatch.Message) dispatch.Status { return dispatch.Failure("locked") }},
		Action: func(context.Context, *dispatch.Invocation) error { return nil },
	})
	shop, err := dispatch.NewHandler(dispatch.HandlerOptions{
		Name:     "shop",
		Commands: []*dispatch.CommandNode{buy, locked},
	})
	require.NoError(t, err)
	return &Session{
		Root:     shop,
		Resolver: dispatch.PrefixResolver{Prefix: "!"},
		Identity: Identity{UserID: "local", GuildID: "console"},
		Logger:   zerolog.Nop(),
	}
}

func TestSessionDispatchesPrefixedLines(t *testing.T) {
	s := newSession(t)
	var out bytes.Buffer

	in := strings.NewReader("hello\n!shop buy shield\n!shop nope\n")
	require.NoError(t, s.Run(context.Background(), in, &out))

	assert.Equal(t, "bought shield for local\n"+dispatch.NotFoundReply+"\n", out.String())
}

func TestSessionRendersFailures(t *testing.T) {
	s := newSession(t)
	var out bytes.Buffer

	require.NoError(t, s.Run(context.Background(), strings.NewReader("!shop vault\n"), &out))

	assert.Contains(t, out.String(), dispatch.FailureTitle)
	assert.Contains(t, out.String(), "locked")
	assert.Contains(t, out.String(), "!shop vault")
}

func TestMessageIdentity(t *testing.T) {
	var out bytes.Buffer
	m := NewMessage("!x", Identity{UserID: "u", GuildID: "g", ChannelID: "c"}, &out)
	assert.Equal(t, "!x", m.Content())
	assert.Equal(t, "u", m.AuthorID())
	assert.Equal(t, "g", m.GuildID())
	assert.Equal(t, "c", m.ChannelID())

	require.NoError(t, m.Reply(context.Background(), "hi"))
	assert.Equal(t, "hi\n", out.String())
}
