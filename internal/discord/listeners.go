package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// DefaultListeners are the gateway loggers attached by the discord binary.
func DefaultListeners(logger zerolog.Logger) []Listener {
	return []Listener{
		MemberJoinLogger(logger),
		MessageDeleteLogger(logger),
	}
}

// MemberJoinLogger logs members joining a guild.
func MemberJoinLogger(logger zerolog.Logger) Listener {
	return Listener{
		Name: "member-join-log",
		Handler: func(_ *discordgo.Session, e *discordgo.GuildMemberAdd) {
			if e.Member == nil || e.User == nil {
				return
			}
			logger.Info().
				Str("guild", e.GuildID).
				Str("user", e.User.ID).
				Str("username", e.User.Username).
				Msg("member joined")
		},
	}
}

// MessageDeleteLogger logs deleted messages. Only ids are known unless the
// message was cached.
func MessageDeleteLogger(logger zerolog.Logger) Listener {
	return Listener{
		Name: "message-delete-log",
		Handler: func(_ *discordgo.Session, e *discordgo.MessageDelete) {
			if e.Message == nil {
				return
			}
			ev := logger.Debug().
				Str("guild", e.GuildID).
				Str("channel", e.ChannelID).
				Str("message", e.ID)
			if e.BeforeDelete != nil && e.BeforeDelete.Author != nil {
				ev = ev.Str("user", e.BeforeDelete.Author.ID)
			}
			ev.Msg("message deleted")
		},
	}
}
