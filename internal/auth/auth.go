// Package auth provides the authorization predicates used by the built-in
// command tree.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/handler-bot/pkg/dispatch"
)

// PermissionSource is implemented by messages whose platform can report the
// author's permissions in the channel the message was sent to.
type PermissionSource interface {
	AuthorPermissions(ctx context.Context) (int64, error)
}

// CommandToggles reports per-guild disabled command paths.
type CommandToggles interface {
	IsCommandDisabled(guildID, path string) (bool, error)
}

var PermissionNames = map[int64]string{
	discordgo.PermissionKickMembers:     "Kick Members",
	discordgo.PermissionBanMembers:      "Ban Members",
	discordgo.PermissionAdministrator:   "Administrator",
	discordgo.PermissionManageChannels:  "Manage Channels",
	discordgo.PermissionManageGuild:     "Manage Server",
	discordgo.PermissionViewAuditLogs:   "View Audit Logs",
	discordgo.PermissionSendMessages:    "Send Messages",
	discordgo.PermissionManageMessages:  "Manage Messages",
	discordgo.PermissionMentionEveryone: "Mention Everyone",
	discordgo.PermissionManageRoles:     "Manage Roles",
	discordgo.PermissionManageWebhooks:  "Manage Webhooks",
	discordgo.PermissionModerateMembers: "Moderate Members",
}

// GuildOnly rejects messages sent outside a guild.
func GuildOnly() dispatch.AuthFunc {
	return func(_ context.Context, msg dispatch.Message) dispatch.Status {
		if msg.GuildID() == "" {
			return dispatch.Failure("This command can only be used in a server.")
		}
		return dispatch.Success()
	}
}

// DeveloperOnly silently rejects everybody but the developer. An empty
// developerID rejects everybody.
func DeveloperOnly(developerID string) dispatch.AuthFunc {
	return func(_ context.Context, msg dispatch.Message) dispatch.Status {
		if developerID == "" || msg.AuthorID() != developerID {
			return dispatch.Failure("")
		}
		return dispatch.Success()
	}
}

// RequirePermissions passes when the author holds at least one of perms, is
// an administrator, or is the developer.
func RequirePermissions(developerID string, perms ...int64) dispatch.AuthFunc {
	return func(ctx context.Context, msg dispatch.Message) dispatch.Status {
		if developerID != "" && msg.AuthorID() == developerID {
			return dispatch.Success()
		}
		if len(perms) == 0 {
			return dispatch.Success()
		}

		src, ok := msg.(PermissionSource)
		if !ok {
			return dispatch.Failure("Permissions cannot be checked on this platform.")
		}
		have, err := src.AuthorPermissions(ctx)
		if err != nil {
			return dispatch.Failure("Failed to look up your permissions.")
		}
		if have&discordgo.PermissionAdministrator != 0 {
			return dispatch.Success()
		}
		for _, p := range perms {
			if have&p != 0 {
				return dispatch.Success()
			}
		}

		allowed := make([]string, 0, len(perms))
		for _, p := range perms {
			name := PermissionNames[p]
			if name == "" {
				name = fmt.Sprintf("0x%x", p)
			}
			allowed = append(allowed, name)
		}
		return dispatch.Failure(fmt.Sprintf(
			"You need at least one of the following permissions to run this command:\n`%s`",
			strings.Join(allowed, "`, `"),
		))
	}
}

// CommandEnabled rejects a command whose toggle key was disabled in the
// guild. label names the command in the reply.
func CommandEnabled(toggles CommandToggles, key, label string) dispatch.AuthFunc {
	return func(_ context.Context, msg dispatch.Message) dispatch.Status {
		disabled, err := toggles.IsCommandDisabled(msg.GuildID(), key)
		if err != nil {
			return dispatch.Failure("Failed to read command settings.")
		}
		if disabled {
			return dispatch.Failure(fmt.Sprintf("`%s` is disabled in this server.", label))
		}
		return dispatch.Success()
	}
}
