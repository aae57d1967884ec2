package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/handler-bot/pkg/dispatch"
)

func historyAction(store Store) dispatch.Action {
	return func(ctx context.Context, inv *dispatch.Invocation) error {
		history, err := store.FetchCommandHistory(inv.Message.GuildID())
		if err != nil {
			return err
		}
		if len(history) == 0 {
			return inv.Message.Reply(ctx, "No commands recorded yet.")
		}

		var b strings.Builder
		b.WriteString("Latest commands:\n")
		for _, h := range history {
			fmt.Fprintf(&b, "`%s` <@%s> `%s", h.Datetime.Format("2006-01-02 15:04"), h.UserID, h.Command)
			if h.Param != "" {
				b.WriteString(" " + h.Param)
			}
			b.WriteString("`")
			if h.Result != "" && h.Result != "ok" {
				b.WriteString(" (" + h.Result + ")")
			}
			b.WriteString("\n")
		}
		return inv.Message.Reply(ctx, strings.TrimRight(b.String(), "\n"))
	}
}

func toggleAction(store Store, f dispatch.NodeFactory, disable bool) dispatch.Action {
	return func(ctx context.Context, inv *dispatch.Invocation) error {
		root, err := rootOf(f)
		if err != nil {
			return err
		}
		paths := togglePaths(root, f)

		tokens := strings.Fields(inv.Args.Raw)
		if len(tokens) == 0 {
			disabled, err := store.GetDisabledCommands(inv.Message.GuildID())
			if err != nil {
				return err
			}
			var available []string
			for _, d := range Toggleable {
				if p, ok := paths[d]; ok {
					available = append(available, p)
				}
			}
			text := "Toggleable commands: `" + strings.Join(available, "`, `") + "`"
			if len(disabled) > 0 {
				names := make([]string, 0, len(disabled))
				for _, key := range disabled {
					if p, ok := paths[dispatch.Descriptor(key)]; ok {
						names = append(names, p)
					} else {
						names = append(names, key)
					}
				}
				text += "\nDisabled: `" + strings.Join(names, "`, `") + "`"
			}
			return inv.Message.Reply(ctx, text)
		}

		path := strings.Join(tokens, " ")
		key, ok := toggleKey(f, lookupCommand(root, tokens))
		if !ok {
			return inv.Message.Reply(ctx, fmt.Sprintf("`%s` cannot be toggled.", path))
		}

		if disable {
			if err := store.DisableCommand(inv.Message.GuildID(), string(key)); err != nil {
				return err
			}
			return inv.Message.Reply(ctx, fmt.Sprintf("`%s` disabled.", path))
		}
		if err := store.EnableCommand(inv.Message.GuildID(), string(key)); err != nil {
			return err
		}
		return inv.Message.Reply(ctx, fmt.Sprintf("`%s` enabled.", path))
	}
}

// lookupCommand follows tokens from root the way Run resolves them. It
// returns nil unless the last token names a command.
func lookupCommand(root *dispatch.HandlerNode, tokens []string) *dispatch.CommandNode {
	h := root
	for i, tok := range tokens {
		switch n := h.Resolve(tok).(type) {
		case *dispatch.CommandNode:
			if i == len(tokens)-1 {
				return n
			}
			return nil
		case *dispatch.HandlerNode:
			h = n
		default:
			return nil
		}
	}
	return nil
}

// toggleKey finds the toggleable descriptor that built c.
func toggleKey(f dispatch.NodeFactory, c *dispatch.CommandNode) (dispatch.Descriptor, bool) {
	if c == nil {
		return "", false
	}
	for _, d := range Toggleable {
		n, err := f.Construct(d)
		if err == nil && n == dispatch.Node(c) {
			return d, true
		}
	}
	return "", false
}

// togglePaths maps each toggleable descriptor mounted in root to its
// command path, without the root name.
func togglePaths(root *dispatch.HandlerNode, f dispatch.NodeFactory) map[dispatch.Descriptor]string {
	paths := make(map[dispatch.Descriptor]string)
	root.Walk(func(path []string, n dispatch.Node) {
		c, ok := n.(*dispatch.CommandNode)
		if !ok {
			return
		}
		if d, ok := toggleKey(f, c); ok {
			if _, seen := paths[d]; !seen {
				paths[d] = strings.Join(path[1:], " ")
			}
		}
	})
	return paths
}
