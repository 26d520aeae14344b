// Package config holds portopt configuration, loaded from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all portopt configuration.
type Config struct {
	// Data directory for price CSV files.
	DataDir string `yaml:"data_dir"`

	// Market data endpoint.
	Market MarketConfig `yaml:"market"`

	// Optimizer defaults.
	Optimizer OptimizerConfig `yaml:"optimizer"`

	// Annealing schedule.
	Annealing AnnealingConfig `yaml:"annealing"`

	// Store settings.
	Store StoreConfig `yaml:"store"`

	// Logging.
	Logging LoggingConfig `yaml:"logging"`
}

// MarketConfig configures the quote client.
type MarketConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
	Retries int    `yaml:"retries"`
	// LookbackDays is how far back fetch reaches by default.
	LookbackDays int `yaml:"lookback_days"`
}

// OptimizerConfig configures the exhaustive search defaults.
type OptimizerConfig struct {
	Granularity  int     `yaml:"granularity"`
	Objective    string  `yaml:"objective"`
	RiskFree     float64 `yaml:"risk_free"`
	RiskAversion float64 `yaml:"risk_aversion"`
	Workers      int     `yaml:"workers"`
}

// AnnealingConfig configures the simulated annealing schedule.
type AnnealingConfig struct {
	Steps       int     `yaml:"steps"`
	InitialTemp float64 `yaml:"initial_temp"`
	Cooling     float64 `yaml:"cooling"`
}

// StoreConfig configures the run ledger.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration rooted under ~/.portopt.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	root := filepath.Join(home, ".portopt")
	return &Config{
		DataDir: filepath.Join(root, "prices"),
		Market: MarketConfig{
			BaseURL:      "https://stooq.com/q/d/l/",
			Timeout:      "30s",
			Retries:      2,
			LookbackDays: 365,
		},
		Optimizer: OptimizerConfig{
			Granularity: 20,
			Objective:   "max-sharpe",
			RiskFree:    0.0,
		},
		Annealing: AnnealingConfig{
			Steps:       100000,
			InitialTemp: 1.0,
			Cooling:     0.9995,
		},
		Store: StoreConfig{
			Path: filepath.Join(root, "portopt.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config at path, falling back to defaults when the file is
// absent, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from PORTOPT_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("PORTOPT_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("PORTOPT_MARKET_URL"); v != "" {
		c.Market.BaseURL = v
	}
	if v := os.Getenv("PORTOPT_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("PORTOPT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects configurations no command could run with.
func (c *Config) Validate() error {
	if c.Optimizer.Granularity <= 0 {
		return fmt.Errorf("config: optimizer granularity must be positive, got %d", c.Optimizer.Granularity)
	}
	if c.Annealing.Cooling != 0 && (c.Annealing.Cooling <= 0 || c.Annealing.Cooling >= 1) {
		return fmt.Errorf("config: annealing cooling must be in (0, 1), got %v", c.Annealing.Cooling)
	}
	if _, err := c.MarketTimeout(); err != nil {
		return err
	}
	return nil
}

// MarketTimeout parses the market timeout string.
func (c *Config) MarketTimeout() (time.Duration, error) {
	if c.Market.Timeout == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Market.Timeout)
	if err != nil {
		return 0, fmt.Errorf("config: bad market timeout %q: %w", c.Market.Timeout, err)
	}
	return d, nil
}
