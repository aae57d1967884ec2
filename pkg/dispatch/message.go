package dispatch

import (
	"context"

	"github.com/google/uuid"
)

// Message is the inbound chat message as seen by the dispatcher. Platform
// adapters implement it over their own event types.
type Message interface {
	Content() string
	AuthorID() string
	GuildID() string
	ChannelID() string

	// Reply sends plain text back to where the message came from.
	Reply(ctx context.Context, text string) error
	// ReplyFailure sends a structured failure payload.
	ReplyFailure(ctx context.Context, f FailureReply) error
}

// FailureReply is the payload of a formatted failure reply.
type FailureReply struct {
	Title       string
	Input       string // the offending input, quoted verbatim
	Explanation string
}

// Args carries the unparsed argument string of an invocation.
type Args struct {
	Raw string
}

// Invocation is created fresh for every dispatch that reaches a command.
// It must not be retained after the action returns.
type Invocation struct {
	ID      string
	Message Message
	Args    Args
	Path    []string
}

func newInvocation(msg Message, raw string, path []string) *Invocation {
	p := make([]string, len(path))
	copy(p, path)
	return &Invocation{
		ID:      uuid.NewString(),
		Message: msg,
		Args:    Args{Raw: raw},
		Path:    p,
	}
}
