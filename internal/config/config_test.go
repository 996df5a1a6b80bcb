package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Forums.Path != "subreddits.md" {
		t.Fatalf("expected default forums path, got %q", cfg.Forums.Path)
	}
	if cfg.HTTPTimeout() != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %v", cfg.HTTPTimeout())
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.ForumDelay() != 2*time.Second {
		t.Fatalf("expected 2s forum delay, got %v", cfg.ForumDelay())
	}
	if cfg.HasCredentials() {
		t.Fatal("expected no credentials by default")
	}
	if !cfg.Logging.Development {
		t.Fatal("expected development logging by default")
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
forums:
  path: forums.list
http:
  timeout_seconds: 10
  user_agent: test-agent
retry:
  max_attempts: 5
  base_delay_ms: 100
  max_delay_ms: 500
pacing:
  forum_delay_seconds: 0
reddit:
  client_id: id
  client_secret: secret
  user_agent: github:test:v1
  listing_limit: 50
archive:
  root: out
logging:
  development: false
  level: warn
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Forums.Path != "forums.list" {
		t.Fatalf("expected forums override, got %q", cfg.Forums.Path)
	}
	if cfg.HTTPTimeout() != 10*time.Second {
		t.Fatalf("expected 10s timeout, got %v", cfg.HTTPTimeout())
	}
	if cfg.RetryBaseDelay() != 100*time.Millisecond || cfg.RetryMaxDelay() != 500*time.Millisecond {
		t.Fatalf("expected retry delay overrides: %+v", cfg.Retry)
	}
	if cfg.ForumDelay() != 0 {
		t.Fatalf("expected zero pacing, got %v", cfg.ForumDelay())
	}
	if !cfg.HasCredentials() {
		t.Fatal("expected credentials to be set")
	}
	if cfg.Reddit.ListingLimit != 50 {
		t.Fatalf("expected listing limit 50, got %d", cfg.Reddit.ListingLimit)
	}
	if cfg.Archive.Root != "out" {
		t.Fatalf("expected archive root override, got %q", cfg.Archive.Root)
	}
	if cfg.Logging.Development {
		t.Fatal("expected production logging")
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected warn log level, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"zero timeout":      func(c *Config) { c.HTTP.TimeoutSeconds = 0 },
		"zero attempts":     func(c *Config) { c.Retry.MaxAttempts = 0 },
		"negative pacing":   func(c *Config) { c.Pacing.ForumDelaySeconds = -1 },
		"empty forums path": func(c *Config) { c.Forums.Path = " " },
		"empty archive":     func(c *Config) { c.Archive.Root = "" },
		"zero limit":        func(c *Config) { c.Reddit.ListingLimit = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
