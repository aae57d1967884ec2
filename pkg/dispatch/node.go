package dispatch

import (
	"context"
	"fmt"
	"regexp"
)

// Node is anything a handler can dispatch to.
type Node interface {
	Name() string
	Pattern() Pattern
	Description() string
	CanRun(ctx context.Context, msg Message) Status
}

// Action is the body of a command.
type Action func(ctx context.Context, inv *Invocation) error

// CommandOptions describes a command at registration time.
type CommandOptions struct {
	Name        string
	NameRegExp  *regexp.Regexp
	Description string
	Usage       string
	CanRun      []AuthFunc
	Action      Action
	// Middleware wraps Action; the first entry is the outermost.
	Middleware []Middleware
}

// CommandNode is a dispatch leaf. It is immutable once built.
type CommandNode struct {
	name        string
	re          *regexp.Regexp
	description string
	usage       string
	auth        Chain
	action      Action
}

// NewCommand builds a command node from opts.
func NewCommand(opts CommandOptions) (*CommandNode, error) {
	if opts.Name == "" {
		return nil, ErrEmptyName
	}
	if opts.Action == nil {
		return nil, fmt.Errorf("%s: %w", opts.Name, ErrNilAction)
	}
	return &CommandNode{
		name:        opts.Name,
		re:          opts.NameRegExp,
		description: opts.Description,
		usage:       opts.Usage,
		auth:        NewChain(opts.CanRun...),
		action:      Apply(opts.Action, opts.Middleware...),
	}, nil
}

// MustCommand is like NewCommand but panics on error. Meant for init-time
// registration of built-in commands.
func MustCommand(opts CommandOptions) *CommandNode {
	c, err := NewCommand(opts)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *CommandNode) Name() string        { return c.name }
func (c *CommandNode) Description() string { return c.description }
func (c *CommandNode) Usage() string       { return c.usage }

func (c *CommandNode) Pattern() Pattern {
	return Pattern{Name: c.name, RegExp: c.re}
}

func (c *CommandNode) CanRun(ctx context.Context, msg Message) Status {
	return c.auth.Evaluate(ctx, msg)
}

// Execute runs the action. A panic inside the action is returned as an
// error wrapping ErrPanic.
func (c *CommandNode) Execute(ctx context.Context, inv *Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w: %v", c.name, ErrPanic, r)
		}
	}()
	return c.action(ctx, inv)
}
