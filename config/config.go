package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration.
type Config struct {
	Store     StoreConfig     `json:"store" yaml:"store"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Verify    VerifyConfig    `json:"verify" yaml:"verify"`
	Market    MarketConfig    `json:"market" yaml:"market"`
}

// StoreConfig selects and locates persistence.
type StoreConfig struct {
	Type   string `json:"type" yaml:"type"` // "sqlite" or "memory"
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// SchedulerConfig tunes the periodic verification sweep.
type SchedulerConfig struct {
	Interval    string `json:"interval" yaml:"interval"` // e.g. "2m"
	Parallelism int    `json:"parallelism" yaml:"parallelism"`
}

// VerifyConfig tunes the background verification dispatcher.
type VerifyConfig struct {
	Workers   int    `json:"workers" yaml:"workers"`
	QueueSize int    `json:"queue_size" yaml:"queue_size"`
	Timeout   string `json:"timeout" yaml:"timeout"` // e.g. "10s"
}

// MarketConfig tunes the simulated price oracle.
type MarketConfig struct {
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"` // 0 = seed from clock
}

// ParseInterval converts the scheduler interval to a duration.
func (s SchedulerConfig) ParseInterval() (time.Duration, error) {
	if s.Interval == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Interval)
}

// ParseTimeout converts the verify timeout to a duration.
func (v VerifyConfig) ParseTimeout() (time.Duration, error) {
	if v.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(v.Timeout)
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Store.Type != "sqlite" && c.Store.Type != "memory" {
		return fmt.Errorf("store.type must be 'sqlite' or 'memory'")
	}
	if c.Store.Type == "sqlite" && c.Store.DBPath == "" {
		return fmt.Errorf("store.db_path required for sqlite type")
	}
	if _, err := c.Scheduler.ParseInterval(); err != nil {
		return fmt.Errorf("scheduler.interval: %w", err)
	}
	if c.Scheduler.Parallelism < 0 {
		return fmt.Errorf("scheduler.parallelism must not be negative")
	}
	if _, err := c.Verify.ParseTimeout(); err != nil {
		return fmt.Errorf("verify.timeout: %w", err)
	}
	if c.Verify.Workers < 0 || c.Verify.QueueSize < 0 {
		return fmt.Errorf("verify.workers and verify.queue_size must not be negative")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Type:   "sqlite",
			DBPath: "./propdesk.db",
		},
		Scheduler: SchedulerConfig{
			Interval:    "2m",
			Parallelism: 8,
		},
		Verify: VerifyConfig{
			Workers:   4,
			QueueSize: 64,
			Timeout:   "10s",
		},
		Market: MarketConfig{},
	}
}
