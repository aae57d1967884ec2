package dispatch_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keshon/handler-bot/pkg/dispatch"
)

func TestMentionToken(t *testing.T) {
	assert.Equal(t, "<@!42>", dispatch.MentionToken("42"))
	assert.Equal(t, "<@!undefined>", dispatch.MentionToken(""))
}

func TestResolve(t *testing.T) {
	mention := dispatch.MentionToken("42")

	tests := []struct {
		name   string
		r      dispatch.PrefixResolver
		body   string
		want   string
		wantOK bool
	}{
		{"no prefix", dispatch.PrefixResolver{Prefix: "!"}, "hello", "", false},
		{"prefix", dispatch.PrefixResolver{Prefix: "!"}, "!shop buy sword", "shop buy sword", true},
		{"prefix trims", dispatch.PrefixResolver{Prefix: "!"}, "!  ping  ", "ping", true},
		{"multi char prefix", dispatch.PrefixResolver{Prefix: "bot:"}, "bot: ping", "ping", true},
		{"mention ignored when disabled", dispatch.PrefixResolver{Prefix: "!"}, mention + " ping", "", false},
		{"mention as prefix", dispatch.PrefixResolver{Prefix: "!", UsePingAsPrefix: true}, mention + " ping", "ping", true},
		{"prefix still works with ping", dispatch.PrefixResolver{Prefix: "!", UsePingAsPrefix: true}, "!ping", "ping", true},
		{"neither with ping", dispatch.PrefixResolver{Prefix: "!", UsePingAsPrefix: true}, "ping", "", false},
		{"other mention", dispatch.PrefixResolver{Prefix: "!", UsePingAsPrefix: true}, "<@!7> ping", "", false},
		{"unknown identity", dispatch.PrefixResolver{Prefix: "!", UsePingAsPrefix: true}, "<@!> ping", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mention
			if tt.name == "unknown identity" {
				m = dispatch.MentionToken("")
			}
			got, ok := tt.r.Resolve(tt.body, m)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveStripsExactlyPrefix(t *testing.T) {
	r := dispatch.PrefixResolver{Prefix: "!!"}
	for _, body := range []string{"!!a", "!!!a", "!! a b ", "!!"} {
		got, ok := r.Resolve(body, "<@!1>")
		assert.True(t, ok, body)
		assert.Equal(t, strings.TrimSpace(body[2:]), got, body)
	}
}
