package internal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderConfig configures one provider kind reached through a relay
type ProviderConfig struct {
	URL         string        `yaml:"url"`
	DialTimeout time.Duration `yaml:"dial_timeout,omitempty"`
}

// Config is the contents of config.yaml
type Config struct {
	DataDir         string                    `yaml:"data_dir"`
	SessionDB       string                    `yaml:"session_db"`
	CacheDir        string                    `yaml:"cache_dir"`
	PageSize        int                       `yaml:"page_size"`
	SyncInterval    time.Duration             `yaml:"sync_interval"`
	SyncConcurrency int                       `yaml:"sync_concurrency"`
	LogLevel        string                    `yaml:"log_level"`
	Providers       map[string]ProviderConfig `yaml:"providers"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig(paths AppPaths) *Config {
	return &Config{
		DataDir:         paths.DataDir,
		SessionDB:       paths.SessionDBPath(),
		CacheDir:        paths.CacheDir,
		PageSize:        DefaultPageSize,
		SyncInterval:    DefaultSyncInterval,
		SyncConcurrency: DefaultSyncConcurrency,
		LogLevel:        "warn",
		Providers:       map[string]ProviderConfig{},
	}
}

// LoadConfig reads config.yaml at path over the defaults. A missing file is
// not an error. Unknown keys are.
func LoadConfig(path string, paths AppPaths) (*Config, error) {
	cfg := DefaultConfig(paths)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		LogDebug("No config file at %s, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.fillDefaults(paths)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// fillDefaults restores defaults for keys the file set to zero values
func (c *Config) fillDefaults(paths AppPaths) {
	def := DefaultConfig(paths)
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.SessionDB == "" {
		c.SessionDB = def.SessionDB
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.PageSize == 0 {
		c.PageSize = def.PageSize
	}
	if c.SyncInterval == 0 {
		c.SyncInterval = def.SyncInterval
	}
	if c.SyncConcurrency == 0 {
		c.SyncConcurrency = def.SyncConcurrency
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.PageSize < 1 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.SyncInterval < time.Second {
		return fmt.Errorf("sync_interval must be at least 1s, got %s", c.SyncInterval)
	}
	if c.SyncConcurrency < 1 {
		return fmt.Errorf("sync_concurrency must be positive, got %d", c.SyncConcurrency)
	}
	switch c.LogLevel {
	case "error", "warn", "warning", "info", "debug":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	for kind, p := range c.Providers {
		if p.URL == "" {
			return fmt.Errorf("provider %q has no url", kind)
		}
	}
	return nil
}

// Save writes the config to path
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
