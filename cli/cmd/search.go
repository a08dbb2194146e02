package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

// searchTimeout bounds the one-shot search call.
const searchTimeout = 10 * time.Second

// SearchCommand returns the search command, a one-shot entity lookup
// against the backend. Useful for checking what a disambiguation query
// would surface before the agent proposes a change.
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search schedule entities by free text",
		ArgsUsage: "<query>",
		Flags:     BackendFlags(),
		Action:    searchAction,
	}
}

func searchAction(c *cli.Context) error {
	query := c.Args().First()
	if query == "" {
		return cli.Exit("a query argument is required", 1)
	}

	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	logger, closeLogger, err := buildLogger(cfg.ClientID, c.String("log-file"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer closeLogger()

	client, err := buildClient(c, cfg, cfg.Thread.ID, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("backend: %v", err), 1)
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()
	matches, err := client.SearchEntities(ctx, query)
	if err != nil {
		return cli.Exit(fmt.Sprintf("search failed: %v", err), 1)
	}

	out, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return fmt.Errorf("encode matches: %w", err)
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}
