// Package version holds build metadata injected through -ldflags.
package version

import "runtime"

var (
	AppName        = "handler-bot"
	AppDescription = "Chat bot that routes prefixed messages through a tree of handlers and commands."
	Version        = "dev"
	BuildDate      = ""
	GoVersion      = runtime.Version()
)
