package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FromFile(t *testing.T) {
	content := []byte(`
scan:
  interval: 30s
  bars: 50

feed:
  type: jsonl
  path: "/tmp/pulse/bars.jsonl"

watchlist:
  - symbol: BTCUSDT
    generators: [technical, trend]

filter:
  min_confidence: 0.7
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Scan.Interval != 30*time.Second {
		t.Errorf("expected interval 30s, got %s", cfg.Scan.Interval)
	}
	if cfg.Scan.Bars != 50 {
		t.Errorf("expected 50 bars, got %d", cfg.Scan.Bars)
	}
	if cfg.Feed.Path != "/tmp/pulse/bars.jsonl" {
		t.Errorf("expected feed path, got %s", cfg.Feed.Path)
	}
	if len(cfg.Watchlist) != 1 || cfg.Watchlist[0].Symbol != "BTCUSDT" {
		t.Errorf("unexpected watchlist: %+v", cfg.Watchlist)
	}
	if cfg.Filter.MinConfidence != 0.7 {
		t.Errorf("expected min_confidence 0.7, got %f", cfg.Filter.MinConfidence)
	}

	// Unset values keep their defaults.
	if cfg.Filter.MaxDailySignals != 20 {
		t.Errorf("expected default max_daily_signals 20, got %d", cfg.Filter.MaxDailySignals)
	}
	if cfg.Output.Type != "log" {
		t.Errorf("expected default output type log, got %s", cfg.Output.Type)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Scan.Interval != 60*time.Second {
		t.Errorf("expected default interval 60s, got %s", cfg.Scan.Interval)
	}
	if cfg.Filter.MinConfidence != 0.5 {
		t.Errorf("expected default min_confidence 0.5, got %f", cfg.Filter.MinConfidence)
	}
	if !cfg.Generators["technical"].Enabled {
		t.Error("expected technical generator enabled by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := Defaults()
		cfg.Feed.Path = "/tmp/bars.jsonl"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "zero scan interval",
			mutate:  func(c *Config) { c.Scan.Interval = 0 },
			wantErr: true,
		},
		{
			name:    "jsonl feed without path",
			mutate:  func(c *Config) { c.Feed.Path = "" },
			wantErr: true,
		},
		{
			name:    "unknown output type",
			mutate:  func(c *Config) { c.Output.Type = "kafka" },
			wantErr: true,
		},
		{
			name:    "confidence above one",
			mutate:  func(c *Config) { c.Filter.MinConfidence = 1.5 },
			wantErr: true,
		},
		{
			name:    "negative cooldown",
			mutate:  func(c *Config) { c.Filter.Cooldown = -time.Second },
			wantErr: true,
		},
		{
			name: "watchlist item without symbol",
			mutate: func(c *Config) {
				c.Watchlist = []WatchlistItem{{Name: "Bitcoin"}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("PULSE_TEST_FEED", "/data/bars.jsonl")

	content := []byte(`
feed:
  type: jsonl
  path: "${PULSE_TEST_FEED}"
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Feed.Path != "/data/bars.jsonl" {
		t.Errorf("env var not expanded, got %s", cfg.Feed.Path)
	}
}
