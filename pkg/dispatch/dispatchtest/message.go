// Package dispatchtest provides an in-memory dispatch.Message for tests.
package dispatchtest

import (
	"context"
	"sync"

	"github.com/keshon/handler-bot/pkg/dispatch"
)

// Message records every reply sent through it.
type Message struct {
	Body    string
	Author  string
	Guild   string
	Channel string

	// ReplyErr, when set, is returned by Reply and ReplyFailure.
	ReplyErr error

	mu       sync.Mutex
	replies  []string
	failures []dispatch.FailureReply
}

// New returns a message with body sent by user "u1" in guild "g1".
func New(body string) *Message {
	return &Message{Body: body, Author: "u1", Guild: "g1", Channel: "c1"}
}

func (m *Message) Content() string   { return m.Body }
func (m *Message) AuthorID() string  { return m.Author }
func (m *Message) GuildID() string   { return m.Guild }
func (m *Message) ChannelID() string { return m.Channel }

func (m *Message) Reply(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, text)
	return m.ReplyErr
}

func (m *Message) ReplyFailure(_ context.Context, f dispatch.FailureReply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, f)
	return m.ReplyErr
}

// Replies returns the plain text replies in send order.
func (m *Message) Replies() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.replies...)
}

// Failures returns the failure replies in send order.
func (m *Message) Failures() []dispatch.FailureReply {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]dispatch.FailureReply(nil), m.failures...)
}
