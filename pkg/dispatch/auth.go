package dispatch

import (
	"context"
	"strings"
)

// AuthFunc decides whether msg may run a node. It may block on I/O such as
// permission lookups.
type AuthFunc func(ctx context.Context, msg Message) Status

// Chain is an ordered list of authorization predicates.
type Chain []AuthFunc

// NewChain normalizes one or many predicates into a chain, dropping nils.
func NewChain(fns ...AuthFunc) Chain {
	c := make(Chain, 0, len(fns))
	for _, fn := range fns {
		if fn != nil {
			c = append(c, fn)
		}
	}
	return c
}

// Evaluate runs the chain against msg. See Evaluate.
func (c Chain) Evaluate(ctx context.Context, msg Message) Status {
	return Evaluate(ctx, msg, c...)
}

// Evaluate runs every predicate sequentially in declaration order, without
// short-circuiting. The messages of failing predicates are joined with
// newlines in evaluation order. A chain where only silent failures occurred
// fails silently.
func Evaluate(ctx context.Context, msg Message, fns ...AuthFunc) Status {
	if len(fns) == 0 {
		return Success()
	}

	var (
		failed   bool
		messages []string
	)
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		st := fn(ctx, msg)
		if st.OK() {
			continue
		}
		failed = true
		if st.Message() != "" {
			messages = append(messages, st.Message())
		}
	}

	if len(messages) > 0 {
		return Failure(strings.Join(messages, "\n"))
	}
	if failed {
		return Failure("")
	}
	return Success()
}
