package dispatch

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Replies sent by a handler on terminal states.
const (
	NotFoundReply = "I cannot find that command"
	FaultReply    = "Whoops, something bad happened"
	FailureTitle  = "Whoops something happened"
)

// Result is the terminal state of a dispatch.
type Result int

const (
	Executed Result = iota
	NotFound
	Denied
	DeniedSilently
	Failed
)

func (r Result) String() string {
	switch r {
	case Executed:
		return "executed"
	case NotFound:
		return "not_found"
	case Denied:
		return "denied"
	case DeniedSilently:
		return "denied_silently"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome describes how a dispatch ended. Err is set for NotFound and Failed.
type Outcome struct {
	Result Result
	Path   []string
	Err    error
}

// HandlerOptions describes a handler at registration time.
type HandlerOptions struct {
	Name        string
	NameRegExp  *regexp.Regexp
	Description string
	Commands    []*CommandNode
	Handlers    []*HandlerNode
	CanRun      []AuthFunc
}

// HandlerNode is an internal dispatch node. Children are fixed at
// construction and read concurrently by every in-flight dispatch, so a
// handler must never be modified after it is built.
type HandlerNode struct {
	name        string
	re          *regexp.Regexp
	description string
	auth        Chain
	commands    []*CommandNode
	handlers    []*HandlerNode
}

// NewHandler builds a handler from already constructed children.
func NewHandler(opts HandlerOptions) (*HandlerNode, error) {
	if opts.Name == "" {
		return nil, ErrEmptyName
	}
	h := &HandlerNode{
		name:        opts.Name,
		re:          opts.NameRegExp,
		description: opts.Description,
		auth:        NewChain(opts.CanRun...),
		commands:    make([]*CommandNode, 0, len(opts.Commands)),
		handlers:    make([]*HandlerNode, 0, len(opts.Handlers)),
	}
	for _, c := range opts.Commands {
		if c != nil {
			h.commands = append(h.commands, c)
		}
	}
	for _, sub := range opts.Handlers {
		if sub != nil {
			h.handlers = append(h.handlers, sub)
		}
	}
	return h, nil
}

func (h *HandlerNode) Name() string        { return h.name }
func (h *HandlerNode) Description() string { return h.description }

func (h *HandlerNode) Pattern() Pattern {
	return Pattern{Name: h.name, RegExp: h.re}
}

func (h *HandlerNode) CanRun(ctx context.Context, msg Message) Status {
	return h.auth.Evaluate(ctx, msg)
}

// Commands returns a copy of the child commands in priority order.
func (h *HandlerNode) Commands() []*CommandNode {
	out := make([]*CommandNode, len(h.commands))
	copy(out, h.commands)
	return out
}

// Handlers returns a copy of the child handlers in priority order.
func (h *HandlerNode) Handlers() []*HandlerNode {
	out := make([]*HandlerNode, len(h.handlers))
	copy(out, h.handlers)
	return out
}

// Resolve finds the child identified by token. Commands win over handlers.
func (h *HandlerNode) Resolve(token string) Node {
	for _, c := range h.commands {
		if Matches(c.Pattern(), token) {
			return c
		}
	}
	for _, sub := range h.handlers {
		if Matches(sub.Pattern(), token) {
			return sub
		}
	}
	return nil
}

// Run dispatches input below this handler and replies on msg.
//
// The literal name (never NameRegExp) is stripped from the head of input,
// the next space separated token selects a child, the child's authorization
// chain is evaluated and the child is executed. Failures end the dispatch
// with at most one reply and are never returned to the caller as panics.
func (h *HandlerNode) Run(ctx context.Context, msg Message, input string) Outcome {
	return h.run(ctx, msg, input, nil)
}

func (h *HandlerNode) run(ctx context.Context, msg Message, input string, path []string) Outcome {
	logger := zerolog.Ctx(ctx)

	input = strings.TrimPrefix(input, h.name)
	input = strings.TrimLeft(input, " ")

	token, rest, _ := strings.Cut(input, " ")
	path = append(path[:len(path):len(path)], token)

	node := h.Resolve(token)
	if node == nil {
		logger.Debug().Strs("path", path).Msg("command not found")
		h.reply(ctx, msg, NotFoundReply)
		return Outcome{Result: NotFound, Path: path, Err: ErrNotFound}
	}

	st, err := canRun(ctx, node, msg)
	if err != nil {
		logger.Error().Err(err).Bool("panic", true).Strs("path", path).Msg("authorization check failed")
		h.reply(ctx, msg, FaultReply)
		return Outcome{Result: Failed, Path: path, Err: err}
	}
	if st.Silent() {
		logger.Debug().Strs("path", path).Msg("authorization failed silently")
		return Outcome{Result: DeniedSilently, Path: path}
	}
	if !st.OK() {
		logger.Info().Strs("path", path).Str("reason", st.Message()).Msg("authorization failed")
		err := msg.ReplyFailure(ctx, FailureReply{
			Title:       FailureTitle,
			Input:       msg.Content(),
			Explanation: st.Message(),
		})
		if err != nil {
			logger.Warn().Err(err).Msg("failed to send failure reply")
		}
		return Outcome{Result: Denied, Path: path}
	}

	switch n := node.(type) {
	case *HandlerNode:
		return n.run(ctx, msg, rest, path)
	case *CommandNode:
		inv := newInvocation(msg, rest, path)
		if err := n.Execute(ctx, inv); err != nil {
			ev := logger.Error().Err(err)
			if errors.Is(err, ErrPanic) {
				ev = ev.Bool("panic", true)
			}
			ev.Str("invocation", inv.ID).Strs("path", path).Msg("command failed")
			h.reply(ctx, msg, FaultReply)
			return Outcome{Result: Failed, Path: path, Err: err}
		}
		logger.Debug().Str("invocation", inv.ID).Strs("path", path).Msg("command executed")
		return Outcome{Result: Executed, Path: path}
	default:
		// Foreign Node implementations cannot be executed.
		h.reply(ctx, msg, NotFoundReply)
		return Outcome{Result: NotFound, Path: path, Err: ErrNotFound}
	}
}

// canRun evaluates the node's authorization chain. A panicking predicate
// is returned as an error wrapping ErrPanic.
func canRun(ctx context.Context, n Node, msg Message) (st Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: authorization: %w: %v", n.Name(), ErrPanic, r)
		}
	}()
	return n.CanRun(ctx, msg), nil
}

func (h *HandlerNode) reply(ctx context.Context, msg Message, text string) {
	if err := msg.Reply(ctx, text); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to send reply")
	}
}

// Walk visits every node below h depth first, commands before handlers.
func (h *HandlerNode) Walk(fn func(path []string, n Node)) {
	h.walk([]string{h.name}, fn)
}

func (h *HandlerNode) walk(path []string, fn func([]string, Node)) {
	for _, c := range h.commands {
		fn(append(path[:len(path):len(path)], c.name), c)
	}
	for _, sub := range h.handlers {
		p := append(path[:len(path):len(path)], sub.name)
		fn(p, sub)
		sub.walk(p, fn)
	}
}
