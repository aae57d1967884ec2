// cmd/telegram/main.go
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/keshon/handler-bot/internal/commands"
	"github.com/keshon/handler-bot/internal/config"
	"github.com/keshon/handler-bot/internal/logging"
	"github.com/keshon/handler-bot/internal/storage"
	"github.com/keshon/handler-bot/internal/telegram"
	v "github.com/keshon/handler-bot/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		boot := logging.New(logging.Options{})
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, JSON: cfg.LogJSON})
	logger.Info().Str("version", v.Version).Msgf("Starting %v telegram bot...", v.AppName)

	bot, store, err := newBot(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start")
	}
	defer store.Close()

	if err := bot.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("telegram bot error")
		return
	}
	logger.Info().Msg("Telegram bot exited cleanly")
}

// newBot opens storage and builds the command tree. The caller closes the
// returned store.
func newBot(cfg *config.Config, logger zerolog.Logger) (*telegram.Bot, *storage.Storage, error) {
	if err := cfg.RequireTelegram(); err != nil {
		return nil, nil, err
	}

	store, err := storage.New(cfg.StoragePath, logger)
	if err != nil {
		return nil, nil, err
	}

	root, _, err := commands.Load(commands.Deps{
		Store:       store,
		DeveloperID: cfg.DeveloperID,
		Stats:       commands.ReadHostStats,
	}, cfg.TreePath)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	return telegram.NewBot(root, telegram.Options{
		Token:           cfg.TelegramToken,
		Prefix:          cfg.Prefix,
		UsePingAsPrefix: cfg.UsePingAsPrefix,
	}, logger), store, nil
}
