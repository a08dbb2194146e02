package config

import (
	"fmt"
	"time"
)

// Config represents an inbox.yaml configuration file.
// All values are optional and act as defaults for chat flags.
// CLI flags always override config values.
type Config struct {
	ClientID string        `yaml:"client_id"`
	Backend  BackendConfig `yaml:"backend"`
	Thread   ThreadConfig  `yaml:"thread"`
	Audit    AuditConfig   `yaml:"audit"`
	Adapter  AdapterConfig `yaml:"adapter"`
}

// BackendConfig holds backend connection defaults.
type BackendConfig struct {
	// Addr is the backend address: host:port or a unix socket path.
	Addr string `yaml:"addr"`
	// UseStub runs against the in-memory stub backend instead of Addr.
	UseStub bool `yaml:"use_stub"`
	// PollInterval is the refresh cadence for thread data.
	PollInterval Duration `yaml:"poll_interval"`
}

// ThreadConfig holds thread defaults.
type ThreadConfig struct {
	ID       string `yaml:"id"`
	PageSize int    `yaml:"page_size"`
}

// AuditConfig holds decision-trail storage defaults.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dataset string `yaml:"dataset"`
	// Backend selects the storage backend: fs or s3.
	Backend      string `yaml:"backend"`
	Path         string `yaml:"path"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	S3PathStyle  bool   `yaml:"s3_path_style"`
	BufferEvents int    `yaml:"buffer_events"`
}

// AdapterConfig holds decision notification defaults.
type AdapterConfig struct {
	// Type selects the adapter: webhook, redis, or empty for none.
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
