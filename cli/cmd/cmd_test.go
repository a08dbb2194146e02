package cmd

import (
	"strings"
	"testing"

	"github.com/peroskyX/inbox-poc/backend"
	"github.com/peroskyX/inbox-poc/cli/config"
	"github.com/peroskyX/inbox-poc/log"
	"github.com/peroskyX/inbox-poc/types"
)

func TestPickString(t *testing.T) {
	if got := pickString("flag", "cfg"); got != "flag" {
		t.Errorf("pickString = %q, want flag value to win", got)
	}
	if got := pickString("", "cfg"); got != "cfg" {
		t.Errorf("pickString = %q, want config fallback", got)
	}
	if got := pickString("", ""); got != "" {
		t.Errorf("pickString = %q, want empty", got)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.ClientID != "" || cfg.Backend.Addr != "" {
		t.Fatalf("empty path should yield a zero config, got %+v", cfg)
	}
}

func TestBuildNotifier(t *testing.T) {
	n, err := buildNotifier(config.AdapterConfig{})
	if err != nil {
		t.Fatalf("empty adapter config: %v", err)
	}
	if n != nil {
		t.Fatal("empty adapter config should yield no notifier")
	}

	n, err = buildNotifier(config.AdapterConfig{Type: "webhook", URL: "https://example.com/hook"})
	if err != nil {
		t.Fatalf("webhook config: %v", err)
	}
	if n == nil {
		t.Fatal("webhook config yielded nil notifier")
	}
	_ = n.Close()

	if _, err := buildNotifier(config.AdapterConfig{Type: "webhook"}); err == nil {
		t.Fatal("webhook without URL should fail")
	}

	_, err = buildNotifier(config.AdapterConfig{Type: "kafka", URL: "x"})
	if err == nil || !strings.Contains(err.Error(), "unknown adapter type") {
		t.Fatalf("unknown type error = %v", err)
	}
}

func TestBuildTrail(t *testing.T) {
	trail, err := buildTrail(config.AuditConfig{}, "c1", log.Nop())
	if err != nil {
		t.Fatalf("disabled audit: %v", err)
	}
	if trail != nil {
		t.Fatal("disabled audit should yield no trail")
	}

	if _, err := buildTrail(config.AuditConfig{Enabled: true}, "c1", log.Nop()); err == nil {
		t.Fatal("fs backend without a path should fail")
	}

	trail, err = buildTrail(config.AuditConfig{
		Enabled: true,
		Backend: "fs",
		Path:    t.TempDir(),
	}, "c1", log.Nop())
	if err != nil {
		t.Fatalf("fs audit: %v", err)
	}
	if trail == nil {
		t.Fatal("fs audit yielded nil trail")
	}
	if err := trail.Close(t.Context()); err != nil {
		t.Fatalf("close trail: %v", err)
	}

	_, err = buildTrail(config.AuditConfig{Enabled: true, Backend: "dynamo", Path: "x"}, "c1", log.Nop())
	if err == nil || !strings.Contains(err.Error(), "unknown audit backend") {
		t.Fatalf("unknown backend error = %v", err)
	}
}

func TestBackendFlagsIncludeStub(t *testing.T) {
	hasStub := false
	for _, f := range BackendFlags() {
		if f.Names()[0] == "stub" {
			hasStub = true
			break
		}
	}
	if !hasStub {
		t.Error("BackendFlags should include --stub")
	}
}

func TestSeedDemoThreadHasPendingApproval(t *testing.T) {
	stub := backend.NewStubClient()
	seedDemoThread(stub, "t1")

	resp, err := stub.ListThreadMessages(t.Context(), backend.ListRequest{ThreadID: "t1"})
	if err != nil {
		t.Fatalf("list demo thread: %v", err)
	}
	if len(resp.Page.Messages) == 0 {
		t.Fatal("demo thread is empty")
	}

	found := false
	for _, env := range resp.Page.Messages {
		for _, p := range env.Parts {
			if p.Type == string(types.PartToolCall) && p.State == string(types.ToolStateInputAvailable) {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("demo thread has no pending tool call to approve")
	}

	matches, err := stub.SearchEntities(t.Context(), "dentist appointment")
	if err != nil {
		t.Fatalf("search demo entities: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("demo search query resolves no candidates")
	}
}
