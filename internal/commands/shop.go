package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/keshon/handler-bot/pkg/dispatch"
)

// Items is the shop inventory.
var Items = []string{"sword", "shield", "potion"}

func buyAction(ctx context.Context, inv *dispatch.Invocation) error {
	item := strings.TrimSpace(inv.Args.Raw)
	if item == "" {
		return inv.Message.Reply(ctx, "Usage: buy <item>")
	}
	if !slices.Contains(Items, item) {
		return inv.Message.Reply(ctx, fmt.Sprintf("We don't sell %q.", item))
	}
	return inv.Message.Reply(ctx, "bought "+item)
}

func listAction(ctx context.Context, inv *dispatch.Invocation) error {
	return inv.Message.Reply(ctx, "For sale: "+strings.Join(Items, ", "))
}
