package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/peroskyX/inbox-poc/adapter"
	"github.com/peroskyX/inbox-poc/adapter/redis"
	"github.com/peroskyX/inbox-poc/adapter/webhook"
	"github.com/peroskyX/inbox-poc/audit"
	"github.com/peroskyX/inbox-poc/backend"
	"github.com/peroskyX/inbox-poc/cli/config"
	"github.com/peroskyX/inbox-poc/cli/tui"
	"github.com/peroskyX/inbox-poc/log"
	"github.com/peroskyX/inbox-poc/types"
)

// closeTimeout bounds the final audit flush and teardown.
const closeTimeout = 10 * time.Second

// ChatCommand returns the chat command, the interactive entrypoint.
func ChatCommand() *cli.Command {
	return &cli.Command{
		Name:   "chat",
		Usage:  "Open an interactive thread session",
		Flags:  append(BackendFlags(), ThreadFlag),
		Action: chatAction,
	}
}

func chatAction(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	threadID := pickString(c.String("thread"), cfg.Thread.ID)
	if threadID == "" {
		return cli.Exit("a thread is required: pass --thread or set thread.id in the config", 1)
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "inbox-cli"
	}

	logger, closeLogger, err := buildLogger(clientID, c.String("log-file"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer closeLogger()

	client, err := buildClient(c, cfg, threadID, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("backend: %v", err), 1)
	}
	defer func() { _ = client.Close() }()

	trail, err := buildTrail(cfg.Audit, clientID, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("audit: %v", err), 1)
	}
	if trail != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			defer cancel()
			if err := trail.Close(ctx); err != nil {
				logger.Warn("audit trail close failed", map[string]any{"error": err.Error()})
			}
		}()
	}

	notifier, err := buildNotifier(cfg.Adapter)
	if err != nil {
		return cli.Exit(fmt.Sprintf("adapter: %v", err), 1)
	}
	if notifier != nil {
		defer func() { _ = notifier.Close() }()
	}

	model := tui.NewChatModel(tui.Session{
		Client:       client,
		ThreadID:     threadID,
		ClientID:     clientID,
		PageSize:     cfg.Thread.PageSize,
		PollInterval: cfg.Backend.PollInterval.Duration,
		Logger:       logger,
		Trail:        trail,
		Notifier:     notifier,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return cli.Exit(fmt.Sprintf("chat session failed: %v", err), 1)
	}
	return nil
}

// loadConfig reads the config file when a path is given; an empty path
// yields an all-defaults config.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// pickString returns the flag value when set, otherwise the config value.
func pickString(flagVal, cfgVal string) string {
	if flagVal != "" {
		return flagVal
	}
	return cfgVal
}

// buildLogger returns the session logger and its cleanup. The TUI owns
// the terminal, so without a log file everything is discarded.
func buildLogger(clientID, logFile string) (*log.Logger, func(), error) {
	if logFile == "" {
		return log.Nop(), func() {}, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := log.NewLogger(log.Meta{ClientID: clientID}).WithOutput(f)
	return logger, func() { _ = f.Close() }, nil
}

func buildClient(c *cli.Context, cfg *config.Config, threadID string, logger *log.Logger) (backend.Client, error) {
	if c.Bool("stub") || cfg.Backend.UseStub {
		stub := backend.NewStubClient()
		seedDemoThread(stub, threadID)
		return stub, nil
	}
	addr := pickString(c.String("addr"), cfg.Backend.Addr)
	if addr == "" {
		return nil, fmt.Errorf("an address is required: pass --addr, set backend.addr, or use --stub")
	}
	return backend.Dial(addr, logger)
}

// buildTrail assembles the audit trail from config, or nil when auditing
// is disabled.
func buildTrail(cfg config.AuditConfig, clientID string, logger *log.Logger) (*audit.Trail, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	dataset := cfg.Dataset
	if dataset == "" {
		dataset = "inbox_audit"
	}
	sinkCfg := audit.Config{
		Dataset:  dataset,
		ClientID: clientID,
		Day:      audit.DeriveDay(time.Now()),
	}

	var sink audit.Sink
	var err error
	switch cfg.Backend {
	case "fs", "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("audit.path is required for the fs backend")
		}
		sink, err = audit.NewLodeSink(sinkCfg, cfg.Path)
	case "s3":
		bucket, prefix := audit.ParseS3Path(cfg.Path)
		sink, err = audit.NewS3Sink(sinkCfg, audit.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown audit backend: %s (must be fs or s3)", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	trailCfg := audit.DefaultTrailConfig()
	trailCfg.Logger = logger
	if cfg.BufferEvents > 0 {
		trailCfg.MaxBufferEvents = cfg.BufferEvents
	}
	return audit.NewTrail(sink, trailCfg)
}

// buildNotifier assembles the decision notification adapter, or nil when
// none is configured.
func buildNotifier(cfg config.AdapterConfig) (adapter.Adapter, error) {
	retries := func(def int) int {
		if cfg.Retries != nil {
			return *cfg.Retries
		}
		return def
	}

	switch cfg.Type {
	case "":
		return nil, nil
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: retries(webhook.DefaultRetries),
		})
	case "redis":
		return redis.New(redis.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Timeout: cfg.Timeout.Duration,
			Retries: retries(redis.DefaultRetries),
		})
	default:
		return nil, fmt.Errorf("unknown adapter type: %s (must be webhook or redis)", cfg.Type)
	}
}

// seedDemoThread populates the stub backend with a conversation that
// exercises streaming text, a pending approval, and disambiguation.
func seedDemoThread(stub *backend.StubClient, threadID string) {
	stub.SeedThread(threadID, []types.MessageEnvelope{
		{
			ID: "demo-1", ThreadID: threadID, Role: string(types.RoleUser),
			Order: 1, Status: string(types.StatusSuccess),
			Parts: []types.RawPart{{Type: "text", Text: "Move my dentist appointment to next Tuesday"}},
		},
		{
			ID: "demo-2", ThreadID: threadID, Role: string(types.RoleAssistant),
			Order: 2, Status: string(types.StatusSuccess), AgentName: "Scheduler",
			Parts: []types.RawPart{{Type: "text", Text: "Sure. I found your dentist appointment; here is the change I propose."}},
		},
		{
			ID: "demo-3", ThreadID: threadID, Role: string(types.RoleAssistant),
			Order: 3, Status: string(types.StatusPending), AgentName: "Scheduler",
			Parts: []types.RawPart{{
				Type:       "tool-call",
				ToolName:   types.ToolUpdateSchedule,
				ToolCallID: "demo-call-1",
				State:      string(types.ToolStateInputAvailable),
				Input: map[string]any{
					"userMessage": "Moving the appointment as requested.",
					"operations": []any{map[string]any{
						"query":   "dentist appointment",
						"updates": map[string]any{"startDate": "2026-09-08T10:00:00Z"},
					}},
				},
			}},
		},
	})
	stub.SeedMatches("dentist appointment", []types.CandidateMatch{
		{ID: "evt-101", Title: "Dentist appointment", Type: "event", StartDate: "2026-09-03T10:00:00Z"},
		{ID: "evt-102", Title: "Dentist follow-up", Type: "event", StartDate: "2026-09-17T09:00:00Z"},
	})
}
