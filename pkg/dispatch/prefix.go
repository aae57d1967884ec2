package dispatch

import "strings"

// PrefixResolver extracts the command input from a raw message body.
type PrefixResolver struct {
	Prefix string
	// UsePingAsPrefix lets a mention of the bot stand in for Prefix.
	UsePingAsPrefix bool
}

// MentionToken is the self-mention marker for the given bot user id. An
// unknown id yields a token no real message starts with.
func MentionToken(userID string) string {
	if userID == "" {
		userID = "undefined"
	}
	return "<@!" + userID + ">"
}

// Resolve returns the input following the prefix or the mention token, with
// surrounding whitespace trimmed. ok is false when the message is not meant
// for the bot. The prefix is checked before the mention.
func (r PrefixResolver) Resolve(body, mention string) (input string, ok bool) {
	hasPrefix := strings.HasPrefix(body, r.Prefix)
	if !hasPrefix && !r.UsePingAsPrefix {
		return "", false
	}
	hasMention := strings.HasPrefix(body, mention)
	if !hasMention && r.UsePingAsPrefix && !hasPrefix {
		return "", false
	}

	if hasPrefix {
		input = body[len(r.Prefix):]
	} else {
		input = body[len(mention):]
	}
	return strings.TrimSpace(input), true
}
