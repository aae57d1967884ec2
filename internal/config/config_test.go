package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("COMMAND_PREFIX", "")
	os.Unsetenv("COMMAND_PREFIX")

	cfg, err := New(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "!", cfg.Prefix)
	assert.False(t, cfg.UsePingAsPrefix)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNewFromEnvironment(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "secret")
	t.Setenv("COMMAND_PREFIX", "?")
	t.Setenv("USE_PING_AS_PREFIX", "true")
	t.Setenv("DISCORD_GUILD_BLACKLIST", "1,2")

	cfg, err := New(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.DiscordToken)
	assert.Equal(t, "?", cfg.Prefix)
	assert.True(t, cfg.UsePingAsPrefix)
	assert.Equal(t, []string{"1", "2"}, cfg.GuildBlacklist)
	assert.NoError(t, cfg.RequireDiscord())
}

func TestNewFromDotEnv(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	os.Unsetenv("TELEGRAM_TOKEN")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TELEGRAM_TOKEN=tg\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("TELEGRAM_TOKEN") })

	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, "tg", cfg.TelegramToken)
	assert.NoError(t, cfg.RequireTelegram())
}

func TestRequireMissingToken(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.RequireDiscord(), ErrMissingToken)
	assert.ErrorIs(t, cfg.RequireTelegram(), ErrMissingToken)
}
