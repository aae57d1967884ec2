// Package config loads bot settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the bootstrap input of every binary.
type Config struct {
	DiscordToken  string `env:"DISCORD_TOKEN"`
	TelegramToken string `env:"TELEGRAM_TOKEN"`

	// Prefix is the literal a message must start with to be a command.
	Prefix string `env:"COMMAND_PREFIX" envDefault:"!"`
	// UsePingAsPrefix lets a mention of the bot act as the prefix too.
	UsePingAsPrefix bool `env:"USE_PING_AS_PREFIX" envDefault:"false"`

	StoragePath    string   `env:"STORAGE_PATH" envDefault:"datastore.json"`
	TreePath       string   `env:"TREE_PATH"`
	DeveloperID    string   `env:"DEVELOPER_ID"`
	GuildBlacklist []string `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`
}

// ErrMissingToken is returned when the selected platform has no token.
var ErrMissingToken = errors.New("platform token is not set")

// New reads .env files (if any exist) and parses the environment.
func New(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// RequireDiscord checks the settings needed by the Discord bot.
func (c *Config) RequireDiscord() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN: %w", ErrMissingToken)
	}
	return nil
}

// RequireTelegram checks the settings needed by the Telegram bot.
func (c *Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN: %w", ErrMissingToken)
	}
	return nil
}
