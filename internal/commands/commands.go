// Package commands registers the built-in dispatch tree.
package commands

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/handler-bot/internal/auth"
	"github.com/keshon/handler-bot/internal/middleware"
	"github.com/keshon/handler-bot/internal/storage"
	"github.com/keshon/handler-bot/internal/tree"
	"github.com/keshon/handler-bot/pkg/dispatch"
)

// Descriptors of the built-in nodes.
const (
	Root         dispatch.Descriptor = "root"
	Ping         dispatch.Descriptor = "core.ping"
	Help         dispatch.Descriptor = "core.help"
	About        dispatch.Descriptor = "core.about"
	Shop         dispatch.Descriptor = "shop"
	ShopBuy      dispatch.Descriptor = "shop.buy"
	ShopList     dispatch.Descriptor = "shop.list"
	Admin        dispatch.Descriptor = "admin"
	AdminHistory dispatch.Descriptor = "admin.history"
	AdminDisable dispatch.Descriptor = "admin.disable"
	AdminEnable  dispatch.Descriptor = "admin.enable"
	SystemStatus dispatch.Descriptor = "system"
)

// RootName is the optional leading word of every command.
const RootName = "bot"

// Store is the persistence the built-in commands need.
type Store interface {
	middleware.HistoryRecorder
	auth.CommandToggles
	FetchCommandHistory(guildID string) ([]storage.CommandHistoryRecord, error)
	DisableCommand(guildID, path string) error
	EnableCommand(guildID, path string) error
	GetDisabledCommands(guildID string) ([]string, error)
}

// LatencySource is implemented by messages whose platform reports the
// gateway round trip.
type LatencySource interface {
	Latency() time.Duration
}

// Deps are handed to every built-in constructor.
type Deps struct {
	Store       Store
	DeveloperID string
	// Stats reports host statistics for the system command.
	Stats func(ctx context.Context) (HostStats, error)
}

// Toggleable lists the commands admins may disable per guild. Toggles are
// stored by descriptor so they follow a command wherever a tree file
// mounts it.
var Toggleable = []dispatch.Descriptor{Ping, About, ShopBuy, ShopList}

// Register adds every built-in node to reg.
func Register(reg *dispatch.Registry, deps Deps) {
	if deps.Stats == nil {
		deps.Stats = ReadHostStats
	}

	logged := func() []dispatch.Middleware {
		return []dispatch.Middleware{middleware.WithCommandLogger(deps.Store), middleware.WithTiming()}
	}
	enabled := func(d dispatch.Descriptor, label string) []dispatch.AuthFunc {
		return []dispatch.AuthFunc{auth.CommandEnabled(deps.Store, string(d), label)}
	}

	reg.RegisterCommand(Ping, dispatch.CommandOptions{
		Name:        "ping",
		Description: "Check that the bot is alive",
		CanRun:      enabled(Ping, "ping"),
		Middleware:  logged(),
		Action:      pingAction,
	})
	reg.RegisterCommand(About, dispatch.CommandOptions{
		Name:        "about",
		Description: "Discover the origin of this bot",
		CanRun:      enabled(About, "about"),
		Middleware:  logged(),
		Action:      aboutAction,
	})
	reg.Register(Help, func(f dispatch.NodeFactory) (dispatch.Node, error) {
		return dispatch.NewCommand(dispatch.CommandOptions{
			Name:        "help",
			Description: "List available commands",
			Action:      helpAction(f),
		})
	})

	reg.RegisterCommand(ShopBuy, dispatch.CommandOptions{
		Name:        "buy",
		Description: "Buy an item",
		Usage:       "buy <item>",
		CanRun:      enabled(ShopBuy, "buy"),
		Middleware:  logged(),
		Action:      buyAction,
	})
	reg.RegisterCommand(ShopList, dispatch.CommandOptions{
		Name:        "list",
		Description: "Show what is for sale",
		CanRun:      enabled(ShopList, "list"),
		Middleware:  logged(),
		Action:      listAction,
	})
	reg.RegisterHandler(Shop, dispatch.HandlerSpec{
		Name:        "shop",
		Description: "Browse and buy items",
		Commands:    []dispatch.Descriptor{ShopBuy, ShopList},
	})

	reg.RegisterCommand(AdminHistory, dispatch.CommandOptions{
		Name:        "history",
		Description: "Show the latest commands run in this server",
		Middleware:  logged(),
		Action:      historyAction(deps.Store),
	})
	reg.Register(AdminDisable, func(f dispatch.NodeFactory) (dispatch.Node, error) {
		return dispatch.NewCommand(dispatch.CommandOptions{
			Name:        "disable",
			Description: "Disable a command in this server",
			Usage:       "disable <command path>",
			Middleware:  logged(),
			Action:      toggleAction(deps.Store, f, true),
		})
	})
	reg.Register(AdminEnable, func(f dispatch.NodeFactory) (dispatch.Node, error) {
		return dispatch.NewCommand(dispatch.CommandOptions{
			Name:        "enable",
			Description: "Enable a command in this server",
			Usage:       "enable <command path>",
			Middleware:  logged(),
			Action:      toggleAction(deps.Store, f, false),
		})
	})
	reg.RegisterHandler(Admin, dispatch.HandlerSpec{
		Name:        "admin",
		Description: "Server administration",
		Commands:    []dispatch.Descriptor{AdminHistory, AdminDisable, AdminEnable},
		CanRun: []dispatch.AuthFunc{
			auth.GuildOnly(),
			auth.RequirePermissions(deps.DeveloperID, discordgo.PermissionManageGuild),
		},
	})

	reg.RegisterCommand(SystemStatus, dispatch.CommandOptions{
		Name:        "system",
		Description: "Host statistics",
		CanRun:      []dispatch.AuthFunc{auth.DeveloperOnly(deps.DeveloperID)},
		Action:      systemAction(deps.Stats),
	})

	reg.RegisterHandler(Root, dispatch.HandlerSpec{
		Name:     RootName,
		Commands: []dispatch.Descriptor{Ping, Help, About, SystemStatus},
		Handlers: []dispatch.Descriptor{Shop, Admin},
	})
}

// Build registers the built-in nodes in a fresh registry and returns the
// root handler.
func Build(deps Deps) (*dispatch.HandlerNode, *dispatch.Registry, error) {
	reg := dispatch.NewRegistry()
	Register(reg, deps)
	root, err := reg.Handler(Root)
	if err != nil {
		return nil, nil, err
	}
	return root, reg, nil
}

// Predicates names the authorization predicates a tree file may use.
func Predicates(deps Deps) map[string]dispatch.AuthFunc {
	return map[string]dispatch.AuthFunc{
		"guild_only":      auth.GuildOnly(),
		"developer_only":  auth.DeveloperOnly(deps.DeveloperID),
		"manage_server":   auth.RequirePermissions(deps.DeveloperID, discordgo.PermissionManageGuild),
		"manage_messages": auth.RequirePermissions(deps.DeveloperID, discordgo.PermissionManageMessages),
		"moderate":        auth.RequirePermissions(deps.DeveloperID, discordgo.PermissionModerateMembers, discordgo.PermissionKickMembers),
	}
}

// BuildFromFile is like Build but takes the tree layout from a YAML file.
// The built-in descriptors stay available to the file.
func BuildFromFile(deps Deps, path string) (*dispatch.HandlerNode, *dispatch.Registry, error) {
	f, err := tree.Load(path)
	if err != nil {
		return nil, nil, err
	}
	reg := dispatch.NewRegistry()
	Register(reg, deps)
	// The file replaces the built-in root so help lists the file's layout.
	reg.Register(Root, func(dispatch.NodeFactory) (dispatch.Node, error) {
		return f.Build(reg, Predicates(deps))
	})
	root, err := reg.Handler(Root)
	if err != nil {
		return nil, nil, err
	}
	return root, reg, nil
}

// Load builds the tree from path when set, otherwise the built-in tree.
func Load(deps Deps, path string) (*dispatch.HandlerNode, *dispatch.Registry, error) {
	if path == "" {
		return Build(deps)
	}
	return BuildFromFile(deps, path)
}
