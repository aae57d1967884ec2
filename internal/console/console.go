// Package console runs the dispatch tree against lines read from a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/keshon/handler-bot/pkg/dispatch"
)

var (
	failureTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4d4d"))
	failureBox   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#ff4d4d")).
			Padding(0, 1)
	inputStyle = lipgloss.NewStyle().Faint(true)
)

// Identity is who the console pretends to be.
type Identity struct {
	UserID    string
	GuildID   string
	ChannelID string
}

// Message is a console line. Replies go to Out.
type Message struct {
	body string
	id   Identity

	mu  *sync.Mutex
	out io.Writer
}

func NewMessage(body string, id Identity, out io.Writer) *Message {
	return &Message{body: body, id: id, out: out, mu: &sync.Mutex{}}
}

func (m *Message) Content() string   { return m.body }
func (m *Message) AuthorID() string  { return m.id.UserID }
func (m *Message) GuildID() string   { return m.id.GuildID }
func (m *Message) ChannelID() string { return m.id.ChannelID }

func (m *Message) Reply(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := fmt.Fprintln(m.out, text)
	return err
}

func (m *Message) ReplyFailure(_ context.Context, f dispatch.FailureReply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := fmt.Fprintln(m.out, RenderFailure(f))
	return err
}

// RenderFailure draws a failure reply as a red box.
func RenderFailure(f dispatch.FailureReply) string {
	body := failureTitle.Render(f.Title) + "\n" +
		inputStyle.Render(f.Input) + "\n" +
		f.Explanation
	return failureBox.Render(body)
}

// Session reads commands line by line and dispatches them.
type Session struct {
	Root     *dispatch.HandlerNode
	Resolver dispatch.PrefixResolver
	Identity Identity
	Logger   zerolog.Logger
}

// Run dispatches every line of in until EOF or ctx is done. Lines without
// the prefix are ignored, like chat messages would be.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	mu := &sync.Mutex{}
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line := strings.TrimRight(sc.Text(), "\r")
		input, ok := s.Resolver.Resolve(line, "")
		if !ok {
			continue
		}
		msg := &Message{body: line, id: s.Identity, out: out, mu: mu}
		outcome := s.Root.Run(s.Logger.WithContext(ctx), msg, input)
		s.Logger.Debug().Str("result", outcome.Result.String()).Strs("path", outcome.Path).Msg("dispatched")
	}
	return sc.Err()
}
