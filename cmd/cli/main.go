// cmd/cli/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/keshon/handler-bot/internal/commands"
	"github.com/keshon/handler-bot/internal/config"
	"github.com/keshon/handler-bot/internal/console"
	"github.com/keshon/handler-bot/internal/logging"
	"github.com/keshon/handler-bot/internal/storage"
	v "github.com/keshon/handler-bot/internal/version"
	"github.com/keshon/handler-bot/pkg/dispatch"
)

type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	store  *storage.Storage
}

func (a *app) open(treePath string) (*dispatch.HandlerNode, error) {
	store, err := storage.New(a.cfg.StoragePath, a.logger)
	if err != nil {
		return nil, err
	}
	a.store = store
	root, _, err := commands.Load(commands.Deps{
		Store:       store,
		DeveloperID: a.cfg.DeveloperID,
		Stats:       commands.ReadHostStats,
	}, treePath)
	return root, err
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

func newRootCmd(a *app) *cobra.Command {
	var treePath string

	root := &cobra.Command{
		Use:           "handler-bot",
		Short:         v.AppDescription,
		Version:       v.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("tree") {
				treePath = a.cfg.TreePath
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&treePath, "tree", "", "YAML tree file (defaults to TREE_PATH)")

	var (
		userID  string
		guildID string
	)
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Read commands from stdin and dispatch them",
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := a.open(treePath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s := &console.Session{
				Root:     tree,
				Resolver: dispatch.PrefixResolver{Prefix: a.cfg.Prefix},
				Identity: console.Identity{UserID: userID, GuildID: guildID, ChannelID: "console"},
				Logger:   a.logger,
			}
			return s.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	runCmd.Flags().StringVar(&userID, "user", "console", "author id of typed commands")
	runCmd.Flags().StringVar(&guildID, "guild", "console", "guild id of typed commands, empty for direct messages")
	root.AddCommand(runCmd)

	root.AddCommand(&cobra.Command{
		Use:   "tree",
		Short: "Print the dispatch tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := a.open(treePath)
			if err != nil {
				return err
			}
			defer a.close()
			cmd.Println(commands.FormatTree(tree))
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "history [guild]",
		Short: "Dump stored command history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.New(a.cfg.StoragePath, a.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			guilds := store.Guilds()
			if len(args) == 1 {
				guilds = args
			}
			for _, g := range guilds {
				records, err := store.FetchCommandHistory(g)
				if err != nil {
					return fmt.Errorf("history of %s: %w", g, err)
				}
				cmd.Printf("%s (%d)\n", g, len(records))
				for _, r := range records {
					cmd.Printf("  %s %s %s %s [%s]\n", r.Datetime.Format("2006-01-02 15:04:05"), r.UserID, r.Command, r.Param, r.Result)
				}
			}
			return nil
		},
	})

	return root
}

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	a := &app{
		cfg:    cfg,
		logger: logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, JSON: cfg.LogJSON}),
	}

	if err := newRootCmd(a).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
