package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/peroskyX/inbox-poc/types"
)

// VersionCommand returns the version command. All components share a
// single version; the wire contract version is reported alongside it
// since backend compatibility hangs on it.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "inbox %s (commit: %s, contract: %s)\n",
				types.Version, commit, types.WireContractVersion)
			return nil
		},
	}
}
