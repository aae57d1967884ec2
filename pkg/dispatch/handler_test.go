package dispatch_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/handler-bot/pkg/dispatch"
	"github.com/keshon/handler-bot/pkg/dispatch/dispatchtest"
)

func replyAction(text string) dispatch.Action {
	return func(ctx context.Context, inv *dispatch.Invocation) error {
		return inv.Message.Reply(ctx, text)
	}
}

func newShop(t *testing.T) (*dispatch.HandlerNode, *[]string) {
	t.Helper()
	var handled []string

	buy := dispatch.MustCommand(dispatch.CommandOptions{
		Name: "buy",
		Action: func(ctx context.Context, inv *dispatch.Invocation) error {
			handled = append(handled, "command:"+inv.Args.Raw)
			return inv.Message.Reply(ctx, "bought "+inv.Args.Raw)
		},
	})
	audit := dispatch.MustCommand(dispatch.CommandOptions{
		Name: "audit",
		Action: func(ctx context.Context, inv *dispatch.Invocation) error {
			handled = append(handled, "handler:"+inv.Args.Raw)
			return nil
		},
	})
	admin, err := dispatch.NewHandler(dispatch.HandlerOptions{
		Name:       "admin",
		NameRegExp: regexp.MustCompile(`.*`),
		Commands:   []*dispatch.CommandNode{audit},
	})
	require.NoError(t, err)

	shop, err := dispatch.NewHandler(dispatch.HandlerOptions{
		Name:     "shop",
		Commands: []*dispatch.CommandNode{buy},
		Handlers: []*dispatch.HandlerNode{admin},
	})
	require.NoError(t, err)
	return shop, &handled
}

func TestRunEndToEnd(t *testing.T) {
	shop, _ := newShop(t)
	msg := dispatchtest.New("!shop buy sword")

	input, ok := dispatch.PrefixResolver{Prefix: "!"}.Resolve(msg.Content(), dispatch.MentionToken("42"))
	require.True(t, ok)

	out := shop.Run(context.Background(), msg, input)

	assert.Equal(t, dispatch.Executed, out.Result)
	assert.Equal(t, []string{"buy"}, out.Path)
	assert.Equal(t, []string{"bought sword"}, msg.Replies())
	assert.Empty(t, msg.Failures())
}

func TestRunCommandBeatsHandler(t *testing.T) {
	shop, handled := newShop(t)
	msg := dispatchtest.New("shop buy sword")

	out := shop.Run(context.Background(), msg, "shop buy sword")

	assert.Equal(t, dispatch.Executed, out.Result)
	assert.Equal(t, []string{"command:sword"}, *handled)
}

func TestRunRecursesIntoHandler(t *testing.T) {
	shop, handled := newShop(t)
	msg := dispatchtest.New("shop anything audit now")

	out := shop.Run(context.Background(), msg, "shop anything audit now")

	assert.Equal(t, dispatch.Executed, out.Result)
	assert.Equal(t, []string{"anything", "audit"}, out.Path)
	assert.Equal(t, []string{"handler:now"}, *handled)
}

func TestRunNotFound(t *testing.T) {
	calls := 0
	counting := func(context.Context, dispatch.Message) dispatch.Status {
		calls++
		return dispatch.Success()
	}
	leaf := dispatch.MustCommand(dispatch.CommandOptions{Name: "ping", CanRun: []dispatch.AuthFunc{counting}, Action: replyAction("pong")})
	sub, err := dispatch.NewHandler(dispatch.HandlerOptions{Name: "sub", Commands: []*dispatch.CommandNode{leaf}, CanRun: []dispatch.AuthFunc{counting}})
	require.NoError(t, err)
	root, err := dispatch.NewHandler(dispatch.HandlerOptions{Name: "bot", Handlers: []*dispatch.HandlerNode{sub}})
	require.NoError(t, err)

	for _, input := range []string{"nope", "sub nope", ""} {
		msg := dispatchtest.New(input)
		out := root.Run(context.Background(), msg, input)

		assert.Equal(t, dispatch.NotFound, out.Result, input)
		assert.ErrorIs(t, out.Err, dispatch.ErrNotFound)
		assert.Equal(t, []string{dispatch.NotFoundReply}, msg.Replies(), input)
	}
	// Only "sub nope" reached the sub handler's auth; no leaf auth ran.
	assert.Equal(t, 1, calls)
}

func TestRunAuthDeniedExplained(t *testing.T) {
	executed := false
	deny := func(msg string) dispatch.AuthFunc {
		return func(context.Context, dispatch.Message) dispatch.Status { return dispatch.Failure(msg) }
	}
	cmd := dispatch.MustCommand(dispatch.CommandOptions{
		Name:   "nuke",
		CanRun: []dispatch.AuthFunc{deny("not an admin"), deny("not in a guild")},
		Action: func(context.Context, *dispatch.Invocation) error { executed = true; return nil },
	})
	root, err := dispatch.NewHandler(dispatch.HandlerOptions{Name: "bot", Commands: []*dispatch.CommandNode{cmd}})
	require.NoError(t, err)

	msg := dispatchtest.New("!nuke all")
	out := root.Run(context.Background(), msg, "nuke all")

	assert.Equal(t, dispatch.Denied, out.Result)
	assert.False(t, executed)
	assert.Empty(t, msg.Replies())
	require.Len(t, msg.Failures(), 1)
	f := msg.Failures()[0]
	assert.Equal(t, dispatch.FailureTitle, f.Title)
	assert.Equal(t, "!nuke all", f.Input)
	assert.Equal(t, "not an admin\nnot in a guild", f.Explanation)
}

func TestRunAuthDeniedSilently(t *testing.T) {
	silent := func(context.Context, dispatch.Message) dispatch.Status { return dispatch.Failure("") }
	sub, err := dispatch.NewHandler(dispatch.HandlerOptions{
		Name:     "secret",
		CanRun:   []dispatch.AuthFunc{silent},
		Commands: []*dispatch.CommandNode{dispatch.MustCommand(dispatch.CommandOptions{Name: "x", Action: replyAction("x")})},
	})
	require.NoError(t, err)
	root, err := dispatch.NewHandler(dispatch.HandlerOptions{Name: "bot", Handlers: []*dispatch.HandlerNode{sub}})
	require.NoError(t, err)

	msg := dispatchtest.New("secret x")
	out := root.Run(context.Background(), msg, "secret x")

	assert.Equal(t, dispatch.DeniedSilently, out.Result)
	assert.Empty(t, msg.Replies())
	assert.Empty(t, msg.Failures())
}

func TestRunActionFaultIsContained(t *testing.T) {
	boom := dispatch.MustCommand(dispatch.CommandOptions{
		Name:   "boom",
		Action: func(context.Context, *dispatch.Invocation) error { return errors.New("database on fire") },
	})
	panics := dispatch.MustCommand(dispatch.CommandOptions{
		Name:   "panic",
		Action: func(context.Context, *dispatch.Invocation) error { panic("nil map") },
	})
	root, err := dispatch.NewHandler(dispatch.HandlerOptions{
		Name:     "bot",
		Commands: []*dispatch.CommandNode{boom, panics, dispatch.MustCommand(dispatch.CommandOptions{Name: "ping", Action: replyAction("pong")})},
	})
	require.NoError(t, err)

	msg := dispatchtest.New("boom")
	out := root.Run(context.Background(), msg, "boom")
	assert.Equal(t, dispatch.Failed, out.Result)
	assert.EqualError(t, out.Err, "database on fire")
	assert.Equal(t, []string{dispatch.FaultReply}, msg.Replies())

	msg = dispatchtest.New("panic")
	out = root.Run(context.Background(), msg, "panic")
	assert.Equal(t, dispatch.Failed, out.Result)
	assert.ErrorIs(t, out.Err, dispatch.ErrPanic)
	assert.Equal(t, []string{dispatch.FaultReply}, msg.Replies())

	// The tree keeps serving independent dispatches.
	msg = dispatchtest.New("ping")
	out = root.Run(context.Background(), msg, "ping")
	assert.Equal(t, dispatch.Executed, out.Result)
	assert.Equal(t, []string{"pong"}, msg.Replies())
}

func TestRunAuthPanicIsContained(t *testing.T) {
	var seen map[string]bool
	ran := false
	guarded := dispatch.MustCommand(dispatch.CommandOptions{
		Name: "vault",
		CanRun: []dispatch.AuthFunc{func(_ context.Context, msg dispatch.Message) dispatch.Status {
			seen[msg.AuthorID()] = true
			return dispatch.Success()
		}},
		Action: func(context.Context, *dispatch.Invocation) error {
			ran = true
			return nil
		},
	})
	staff, err := dispatch.NewHandler(dispatch.HandlerOptions{
		Name: "staff",
		CanRun: []dispatch.AuthFunc{func(context.Context, dispatch.Message) dispatch.Status {
			panic("lookup failed")
		}},
	})
	require.NoError(t, err)
	root, err := dispatch.NewHandler(dispatch.HandlerOptions{
		Name:     "bot",
		Commands: []*dispatch.CommandNode{guarded, dispatch.MustCommand(dispatch.CommandOptions{Name: "ping", Action: replyAction("pong")})},
		Handlers: []*dispatch.HandlerNode{staff},
	})
	require.NoError(t, err)

	for _, input := range []string{"vault", "staff anything"} {
		msg := dispatchtest.New(input)
		var out dispatch.Outcome
		require.NotPanics(t, func() { out = root.Run(context.Background(), msg, input) }, input)
		assert.Equal(t, dispatch.Failed, out.Result, input)
		assert.ErrorIs(t, out.Err, dispatch.ErrPanic, input)
		assert.Equal(t, []string{dispatch.FaultReply}, msg.Replies(), input)
		assert.Empty(t, msg.Failures(), input)
	}
	assert.False(t, ran)

	msg := dispatchtest.New("ping")
	assert.Equal(t, dispatch.Executed, root.Run(context.Background(), msg, "ping").Result)
}

func TestRunStripsLiteralNameOnly(t *testing.T) {
	ping := dispatch.MustCommand(dispatch.CommandOptions{Name: "ping", Action: replyAction("pong")})
	root, err := dispatch.NewHandler(dispatch.HandlerOptions{
		Name:       "bot",
		NameRegExp: regexp.MustCompile(`^(bot|b)$`),
		Commands:   []*dispatch.CommandNode{ping},
	})
	require.NoError(t, err)

	msg := dispatchtest.New("bot ping")
	assert.Equal(t, dispatch.Executed, root.Run(context.Background(), msg, "bot ping").Result)

	// The expression is not used for stripping, so "b" stays and is looked up.
	msg = dispatchtest.New("b ping")
	assert.Equal(t, dispatch.NotFound, root.Run(context.Background(), msg, "b ping").Result)

	msg = dispatchtest.New("ping")
	assert.Equal(t, dispatch.Executed, root.Run(context.Background(), msg, "ping").Result)
}

func TestRunFreshInvocation(t *testing.T) {
	var seen []*dispatch.Invocation
	echo := dispatch.MustCommand(dispatch.CommandOptions{
		Name: "echo",
		Action: func(ctx context.Context, inv *dispatch.Invocation) error {
			seen = append(seen, inv)
			return inv.Message.Reply(ctx, inv.Args.Raw)
		},
	})
	root, err := dispatch.NewHandler(dispatch.HandlerOptions{Name: "bot", Commands: []*dispatch.CommandNode{echo}})
	require.NoError(t, err)

	root.Run(context.Background(), dispatchtest.New("echo a b"), "echo a b")
	root.Run(context.Background(), dispatchtest.New("echo c"), "echo c")

	require.Len(t, seen, 2)
	assert.NotSame(t, seen[0], seen[1])
	assert.NotEqual(t, seen[0].ID, seen[1].ID)
	assert.Equal(t, "a b", seen[0].Args.Raw)
	assert.Equal(t, "c", seen[1].Args.Raw)
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	mw := func(name string) dispatch.Middleware {
		return func(next dispatch.Action) dispatch.Action {
			return func(ctx context.Context, inv *dispatch.Invocation) error {
				order = append(order, name)
				return next(ctx, inv)
			}
		}
	}
	cmd := dispatch.MustCommand(dispatch.CommandOptions{
		Name:       "x",
		Middleware: []dispatch.Middleware{mw("outer"), mw("inner")},
		Action: func(context.Context, *dispatch.Invocation) error {
			order = append(order, "action")
			return nil
		},
	})
	root, err := dispatch.NewHandler(dispatch.HandlerOptions{Name: "bot", Commands: []*dispatch.CommandNode{cmd}})
	require.NoError(t, err)

	root.Run(context.Background(), dispatchtest.New("x"), "x")
	assert.Equal(t, []string{"outer", "inner", "action"}, order)
}

func TestNewNodeValidation(t *testing.T) {
	_, err := dispatch.NewCommand(dispatch.CommandOptions{Action: replyAction("x")})
	assert.ErrorIs(t, err, dispatch.ErrEmptyName)

	_, err = dispatch.NewCommand(dispatch.CommandOptions{Name: "x"})
	assert.ErrorIs(t, err, dispatch.ErrNilAction)

	_, err = dispatch.NewHandler(dispatch.HandlerOptions{})
	assert.ErrorIs(t, err, dispatch.ErrEmptyName)
}

func TestWalk(t *testing.T) {
	shop, _ := newShop(t)
	var paths []string
	shop.Walk(func(path []string, n dispatch.Node) {
		paths = append(paths, strings.Join(path, " "))
	})
	assert.Equal(t, []string{"shop buy", "shop admin", "shop admin audit"}, paths)
}
