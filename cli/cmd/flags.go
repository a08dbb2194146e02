// Package cmd provides CLI commands for the inbox binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags for commands that talk to a backend.
var (
	// ConfigFlag points at an inbox.yaml file. Flags override its values.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to inbox.yaml config file",
	}

	// ThreadFlag selects the conversation thread.
	ThreadFlag = &cli.StringFlag{
		Name:    "thread",
		Aliases: []string{"t"},
		Usage:   "Thread ID to open",
	}

	// AddrFlag is the backend address.
	AddrFlag = &cli.StringFlag{
		Name:  "addr",
		Usage: "Backend address: host:port or a unix socket path",
	}

	// StubFlag runs against the in-memory stub backend.
	StubFlag = &cli.BoolFlag{
		Name:  "stub",
		Usage: "Use the in-memory stub backend with a demo thread",
	}

	// LogFileFlag redirects structured logs to a file. The TUI owns the
	// terminal, so logs are discarded unless a file is given.
	LogFileFlag = &cli.StringFlag{
		Name:  "log-file",
		Usage: "Write structured logs to this file",
	}
)

// BackendFlags returns the shared flags for backend-facing commands.
func BackendFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		AddrFlag,
		StubFlag,
		LogFileFlag,
	}
}
