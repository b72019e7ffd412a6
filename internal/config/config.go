package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Default tuning values, matching the upstream feed contract.
const (
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectIntervalMS  = 2000
	DefaultCacheTTLMS           = 60 * 60 * 1000
	DefaultSweepIntervalMS      = 60 * 1000
	DefaultGapThresholdMS       = 10000
)

// Config represents the daemon configuration file (config.toml).
type Config struct {
	FeedURL string `toml:"feed_url"`
	DataDir string `toml:"data_dir"`

	Feed        FeedConfig        `toml:"feed"`
	Ingest      IngestConfig      `toml:"ingest"`
	Consistency ConsistencyConfig `toml:"consistency"`
}

// FeedConfig tunes the feed connector's reconnection behavior.
type FeedConfig struct {
	MaxReconnectAttempts int   `toml:"max_reconnect_attempts"`
	ReconnectIntervalMS  int64 `toml:"reconnect_interval_ms"`
}

// IngestConfig tunes the dedup cache.
type IngestConfig struct {
	CacheTTLMS      int64 `toml:"cache_ttl_ms"`
	SweepIntervalMS int64 `toml:"sweep_interval_ms"`
}

// ConsistencyConfig tunes the missed-message detector.
type ConsistencyConfig struct {
	GapThresholdMS int64 `toml:"gap_threshold_ms"`
}

// Load reads config from the given path and fills in defaults for any
// unset values. Returns an error if the file is missing or malformed.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config with all defaults applied and no feed URL.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// ApplyEnv overrides config values from environment variables.
// FEED_URL takes precedence over the file so deployments can point the
// connector at a different upstream without editing config.toml.
func (c *Config) ApplyEnv() {
	if url := os.Getenv("FEED_URL"); url != "" {
		c.FeedURL = url
	}
	if dir := os.Getenv("FEEDSINK_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
}

func (c *Config) applyDefaults() {
	if c.Feed.MaxReconnectAttempts == 0 {
		c.Feed.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Feed.ReconnectIntervalMS == 0 {
		c.Feed.ReconnectIntervalMS = DefaultReconnectIntervalMS
	}
	if c.Ingest.CacheTTLMS == 0 {
		c.Ingest.CacheTTLMS = DefaultCacheTTLMS
	}
	if c.Ingest.SweepIntervalMS == 0 {
		c.Ingest.SweepIntervalMS = DefaultSweepIntervalMS
	}
	if c.Consistency.GapThresholdMS == 0 {
		c.Consistency.GapThresholdMS = DefaultGapThresholdMS
	}
}

// ReconnectInterval returns the base reconnect backoff as a duration.
func (c *Config) ReconnectInterval() time.Duration {
	return time.Duration(c.Feed.ReconnectIntervalMS) * time.Millisecond
}

// CacheTTL returns the dedup cache entry lifetime as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Ingest.CacheTTLMS) * time.Millisecond
}

// SweepInterval returns the dedup cache janitor period as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Ingest.SweepIntervalMS) * time.Millisecond
}
