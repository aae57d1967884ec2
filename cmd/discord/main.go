// cmd/discord/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/keshon/handler-bot/internal/commands"
	"github.com/keshon/handler-bot/internal/config"
	"github.com/keshon/handler-bot/internal/discord"
	"github.com/keshon/handler-bot/internal/logging"
	"github.com/keshon/handler-bot/internal/storage"
	v "github.com/keshon/handler-bot/internal/version"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		boot := logging.New(logging.Options{})
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, JSON: cfg.LogJSON})
	logger.Info().Str("version", v.Version).Msgf("Starting %v discord bot...", v.AppName)

	bot, store, err := newBot(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start")
	}
	defer store.Close()

	run(ctx, cancel, logger, bot.Run)
	logger.Info().Msg("Discord bot exited cleanly")
}

// newBot opens storage and builds the command tree. The caller closes the
// returned store.
func newBot(cfg *config.Config, logger zerolog.Logger) (*discord.Bot, *storage.Storage, error) {
	if err := cfg.RequireDiscord(); err != nil {
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

	return discord.NewBot(root, botOptions(cfg, logger), logger), store, nil
}

func botOptions(cfg *config.Config, logger zerolog.Logger) discord.Options {
	return discord.Options{
		Token:           cfg.DiscordToken,
		Prefix:          cfg.Prefix,
		UsePingAsPrefix: cfg.UsePingAsPrefix,
		GuildBlacklist:  cfg.GuildBlacklist,
		Listeners:       discord.DefaultListeners(logger),
	}
}

func run(ctx context.Context, cancel context.CancelFunc, logger zerolog.Logger, fn func(context.Context) error) {
	errCh := make(chan error, 1)
	go func() {
		if err := fn(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("discord bot error")
		}
		cancel()
	case <-ctx.Done():
	}
}
