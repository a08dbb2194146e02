package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "inbox.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", field, got, want)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	yaml := `client_id: laptop-01

backend:
  addr: 127.0.0.1:7450
  poll_interval: 2s

thread:
  id: thread-abc
  page_size: 25

audit:
  enabled: true
  dataset: inbox
  backend: s3
  path: my-bucket/trail
  region: us-east-1
  endpoint: https://example.com
  s3_path_style: true
  buffer_events: 500

adapter:
  type: webhook
  url: https://hooks.example.com/inbox
  headers:
    Authorization: Bearer token123
  timeout: 10s
  retries: 3
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assertEqual(t, "client_id", cfg.ClientID, "laptop-01")
	assertEqual(t, "backend.addr", cfg.Backend.Addr, "127.0.0.1:7450")
	if cfg.Backend.PollInterval.Duration != 2*time.Second {
		t.Errorf("backend.poll_interval: got %v", cfg.Backend.PollInterval.Duration)
	}

	assertEqual(t, "thread.id", cfg.Thread.ID, "thread-abc")
	if cfg.Thread.PageSize != 25 {
		t.Errorf("thread.page_size: got %d, want 25", cfg.Thread.PageSize)
	}

	if !cfg.Audit.Enabled {
		t.Error("expected audit.enabled=true")
	}
	assertEqual(t, "audit.backend", cfg.Audit.Backend, "s3")
	assertEqual(t, "audit.path", cfg.Audit.Path, "my-bucket/trail")
	if !cfg.Audit.S3PathStyle {
		t.Error("expected audit.s3_path_style=true")
	}
	if cfg.Audit.BufferEvents != 500 {
		t.Errorf("audit.buffer_events: got %d", cfg.Audit.BufferEvents)
	}

	assertEqual(t, "adapter.type", cfg.Adapter.Type, "webhook")
	assertEqual(t, "adapter.url", cfg.Adapter.URL, "https://hooks.example.com/inbox")
	assertEqual(t, "adapter headers", cfg.Adapter.Headers["Authorization"], "Bearer token123")
	if cfg.Adapter.Timeout.Duration != 10*time.Second {
		t.Errorf("adapter.timeout: got %v", cfg.Adapter.Timeout.Duration)
	}
	if cfg.Adapter.Retries == nil || *cfg.Adapter.Retries != 3 {
		t.Errorf("adapter.retries: got %v", cfg.Adapter.Retries)
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	path := writeTemp(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ClientID != "" || cfg.Backend.Addr != "" {
		t.Errorf("empty config should yield zero values, got %+v", cfg)
	}
	if cfg.Adapter.Retries != nil {
		t.Error("unset retries must stay nil so defaults apply")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("got %v, want not-found error", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "backend: [unclosed")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeTemp(t, "backend:\n  poll_interval: fast\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("INBOX_TEST_ADDR", "10.0.0.5:7450")
	yaml := `backend:
  addr: ${INBOX_TEST_ADDR}
thread:
  id: ${INBOX_TEST_THREAD:-thread-default}
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "backend.addr", cfg.Backend.Addr, "10.0.0.5:7450")
	assertEqual(t, "thread.id", cfg.Thread.ID, "thread-default")
}
