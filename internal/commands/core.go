package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/handler-bot/internal/version"
	"github.com/keshon/handler-bot/pkg/dispatch"
)

func pingAction(ctx context.Context, inv *dispatch.Invocation) error {
	if src, ok := inv.Message.(LatencySource); ok {
		return inv.Message.Reply(ctx, fmt.Sprintf("Pong! Latency: %dms", src.Latency().Milliseconds()))
	}
	return inv.Message.Reply(ctx, "Pong!")
}

func aboutAction(ctx context.Context, inv *dispatch.Invocation) error {
	goVer := strings.TrimPrefix(version.GoVersion, "go")
	if goVer == "" {
		goVer = "unknown"
	}
	release := version.Version
	if version.BuildDate != "" {
		release += " built " + version.BuildDate
	}
	text := fmt.Sprintf("**%s** %s\n%s\nRelease: %s (Go %s)",
		version.AppName, version.Version, version.AppDescription, release, goVer)
	return inv.Message.Reply(ctx, text)
}

// helpAction resolves the root lazily: the help command is itself part of
// the tree it lists.
func helpAction(f dispatch.NodeFactory) dispatch.Action {
	return func(ctx context.Context, inv *dispatch.Invocation) error {
		root, err := rootOf(f)
		if err != nil {
			return fmt.Errorf("help: %w", err)
		}
		return inv.Message.Reply(ctx, FormatTree(root))
	}
}

func rootOf(f dispatch.NodeFactory) (*dispatch.HandlerNode, error) {
	n, err := f.Construct(Root)
	if err != nil {
		return nil, err
	}
	root, ok := n.(*dispatch.HandlerNode)
	if !ok {
		return nil, fmt.Errorf("%q: %w", Root, dispatch.ErrWrongKind)
	}
	return root, nil
}

// FormatTree renders the tree below root as an indented list.
func FormatTree(root *dispatch.HandlerNode) string {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	root.Walk(func(path []string, n dispatch.Node) {
		depth := len(path) - 2
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("- `")
		if c, ok := n.(*dispatch.CommandNode); ok && c.Usage() != "" {
			b.WriteString(c.Usage())
		} else {
			b.WriteString(n.Pattern().String())
		}
		b.WriteString("`")
		if d := n.Description(); d != "" {
			b.WriteString(" ")
			b.WriteString(d)
		}
		b.WriteString("\n")
	})
	return strings.TrimRight(b.String(), "\n")
}
