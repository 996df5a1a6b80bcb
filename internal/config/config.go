// Package config loads and validates archiver configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// defaultUserAgent mimics a desktop browser for the unauthenticated
// strategies; the blocked endpoints are the whole reason the fallback
// chain exists.
const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Forums  ForumsConfig  `mapstructure:"forums"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Pacing  PacingConfig  `mapstructure:"pacing"`
	Reddit  RedditConfig  `mapstructure:"reddit"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ForumsConfig points at the forum list file.
type ForumsConfig struct {
	Path string `mapstructure:"path"`
}

// HTTPConfig configures the shared HTTP transport.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// RetryConfig governs per-strategy retry behavior.
type RetryConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
	BaseDelayMs int `mapstructure:"base_delay_ms"`
	MaxDelayMs  int `mapstructure:"max_delay_ms"`
}

// PacingConfig spaces forum-to-forum processing.
type PacingConfig struct {
	ForumDelaySeconds int `mapstructure:"forum_delay_seconds"`
}

// RedditConfig carries the API credentials. The client id and secret
// normally arrive through ARCHIVER_REDDIT_CLIENT_ID and
// ARCHIVER_REDDIT_CLIENT_SECRET; when absent, only the authenticated
// strategy is disabled.
type RedditConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	UserAgent    string `mapstructure:"user_agent"`
	ListingLimit int    `mapstructure:"listing_limit"`
}

// ArchiveConfig sets the archive root directory.
type ArchiveConfig struct {
	Root string `mapstructure:"root"`
}

// LoggingConfig toggles zap development features. Level is optional;
// when empty the mode's default threshold applies.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARCHIVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("forums.path", "subreddits.md")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.user_agent", defaultUserAgent)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay_ms", 2000)
	v.SetDefault("retry.max_delay_ms", 15000)
	v.SetDefault("pacing.forum_delay_seconds", 2)
	v.SetDefault("reddit.client_id", "")
	v.SetDefault("reddit.client_secret", "")
	v.SetDefault("reddit.user_agent", "github:reddit-archiver:v1.0")
	v.SetDefault("reddit.listing_limit", 25)
	v.SetDefault("archive.root", "data")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Forums.Path) == "" {
		return fmt.Errorf("forums.path must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be > 0")
	}
	if c.Pacing.ForumDelaySeconds < 0 {
		return fmt.Errorf("pacing.forum_delay_seconds must be >= 0")
	}
	if c.Reddit.ListingLimit <= 0 {
		return fmt.Errorf("reddit.listing_limit must be > 0")
	}
	if strings.TrimSpace(c.Archive.Root) == "" {
		return fmt.Errorf("archive.root must be set")
	}
	return nil
}

// HTTPTimeout returns the per-attempt timeout as a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RetryBaseDelay returns the initial backoff delay.
func (c Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Retry.BaseDelayMs) * time.Millisecond
}

// RetryMaxDelay returns the backoff ceiling.
func (c Config) RetryMaxDelay() time.Duration {
	return time.Duration(c.Retry.MaxDelayMs) * time.Millisecond
}

// ForumDelay returns the inter-forum pacing interval.
func (c Config) ForumDelay() time.Duration {
	return time.Duration(c.Pacing.ForumDelaySeconds) * time.Second
}

// HasCredentials reports whether the authenticated strategy can run.
func (c Config) HasCredentials() bool {
	return c.Reddit.ClientID != "" && c.Reddit.ClientSecret != ""
}
