package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Optimizer.Granularity != 20 {
		t.Errorf("expected Granularity=20, got %d", cfg.Optimizer.Granularity)
	}
	if cfg.Optimizer.Objective != "max-sharpe" {
		t.Errorf("expected Objective=max-sharpe, got %s", cfg.Optimizer.Objective)
	}
	if cfg.Annealing.Steps != 100000 {
		t.Errorf("expected Steps=100000, got %d", cfg.Annealing.Steps)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("PORTOPT_DATA_DIR", "")
	t.Setenv("PORTOPT_STORE_PATH", "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.DataDir = "/data/prices"
	cfg.Optimizer.Granularity = 50
	cfg.Market.Timeout = "10s"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.DataDir != "/data/prices" {
		t.Errorf("expected DataDir=/data/prices, got %s", loaded.DataDir)
	}
	if loaded.Optimizer.Granularity != 50 {
		t.Errorf("expected Granularity=50, got %d", loaded.Optimizer.Granularity)
	}
	d, err := loaded.MarketTimeout()
	if err != nil {
		t.Fatalf("MarketTimeout: %v", err)
	}
	if d != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", d)
	}
}

func TestConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PORTOPT_DATA_DIR", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Optimizer.Granularity != 20 {
		t.Errorf("expected default granularity, got %d", cfg.Optimizer.Granularity)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORTOPT_DATA_DIR", "/env/prices")
	t.Setenv("PORTOPT_STORE_PATH", "/env/ledger.db")
	t.Setenv("PORTOPT_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataDir != "/env/prices" {
		t.Errorf("expected env DataDir, got %s", cfg.DataDir)
	}
	if cfg.Store.Path != "/env/ledger.db" {
		t.Errorf("expected env Store.Path, got %s", cfg.Store.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected env log level, got %s", cfg.Logging.Level)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero granularity", func(c *Config) { c.Optimizer.Granularity = 0 }},
		{"cooling above one", func(c *Config) { c.Annealing.Cooling = 1.5 }},
		{"bad timeout", func(c *Config) { c.Market.Timeout = "soon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data_dir: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
