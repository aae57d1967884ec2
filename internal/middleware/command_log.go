// Package middleware holds dispatch.Middleware implementations shared by the
// built-in commands.
package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/handler-bot/internal/storage"
	"github.com/keshon/handler-bot/pkg/dispatch"
)

// HistoryRecorder stores executed commands.
type HistoryRecorder interface {
	AppendCommandToHistory(guildID string, command storage.CommandHistoryRecord) error
}

// WithCommandLogger records every execution of the wrapped action, after it
// ran, together with its result.
func WithCommandLogger(rec HistoryRecorder) dispatch.Middleware {
	return func(next dispatch.Action) dispatch.Action {
		return func(ctx context.Context, inv *dispatch.Invocation) error {
			err := next(ctx, inv)

			result := "ok"
			if err != nil {
				result = "error"
			}
			msg := inv.Message
			e := rec.AppendCommandToHistory(msg.GuildID(), storage.CommandHistoryRecord{
				ChannelID: msg.ChannelID(),
				UserID:    msg.AuthorID(),
				Command:   strings.Join(inv.Path, " "),
				Param:     strings.TrimSpace(inv.Args.Raw),
				Result:    result,
				Datetime:  time.Now(),
			})
			if e != nil {
				zerolog.Ctx(ctx).Warn().Err(e).Strs("path", inv.Path).Msg("failed to log command")
			}
			return err
		}
	}
}

// WithTiming logs how long the wrapped action took.
func WithTiming() dispatch.Middleware {
	return func(next dispatch.Action) dispatch.Action {
		return func(ctx context.Context, inv *dispatch.Invocation) error {
			start := time.Now()
			err := next(ctx, inv)
			zerolog.Ctx(ctx).Debug().
				Str("invocation", inv.ID).
				Strs("path", inv.Path).
				Dur("took", time.Since(start)).
				Msg("command finished")
			return err
		}
	}
}
