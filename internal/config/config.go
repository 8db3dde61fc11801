package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/westquant/pulse/internal/core"
	"github.com/westquant/pulse/internal/filter"
)

type Config struct {
	Logging    LoggingConfig              `mapstructure:"logging"`
	Scan       ScanConfig                 `mapstructure:"scan"`
	Feed       FeedConfig                 `mapstructure:"feed"`
	Watchlist  []WatchlistItem            `mapstructure:"watchlist"`
	Generators map[string]GeneratorConfig `mapstructure:"generators"`
	Filter     filter.Config              `mapstructure:"filter"`
	Output     OutputConfig               `mapstructure:"output"`
	Metrics    MetricsConfig              `mapstructure:"metrics"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

type ScanConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Bars     int           `mapstructure:"bars"`
}

type FeedConfig struct {
	Type string `mapstructure:"type"` // "jsonl"
	Path string `mapstructure:"path"`
}

type WatchlistItem struct {
	Symbol     string   `mapstructure:"symbol"`
	Name       string   `mapstructure:"name"`
	Generators []string `mapstructure:"generators"`
}

type GeneratorConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Params  map[string]any `mapstructure:"params"`
}

type OutputConfig struct {
	Type string `mapstructure:"type"` // "log" or "jsonl"
	Path string `mapstructure:"path"` // For jsonl
}

// MetricsConfig holds metrics exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Scan: ScanConfig{
			Interval: 60 * time.Second,
			Bars:     100,
		},
		Feed: FeedConfig{
			Type: "jsonl",
		},
		Generators: map[string]GeneratorConfig{
			"technical": {Enabled: true},
			"trend":     {Enabled: true},
			"breakout":  {Enabled: true},
		},
		Filter: filter.DefaultConfig(),
		Output: OutputConfig{
			Type: "log",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Listen:  ":9090",
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Scan.Interval <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("scan interval must be positive, got %s", c.Scan.Interval))
	}
	if c.Scan.Bars < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("scan bars must be at least 1, got %d", c.Scan.Bars))
	}

	switch c.Feed.Type {
	case "jsonl":
		if c.Feed.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("feed path required when type is jsonl"))
		}
	case "":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown feed type %q", c.Feed.Type))
	}

	switch c.Output.Type {
	case "log", "":
	case "jsonl":
		if c.Output.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("output path required when type is jsonl"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown output type %q", c.Output.Type))
	}

	if c.Filter.MinConfidence < 0 || c.Filter.MinConfidence > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_confidence must be between 0 and 1, got %f", c.Filter.MinConfidence))
	}
	if c.Filter.Cooldown < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("filter cooldown cannot be negative, got %s", c.Filter.Cooldown))
	}
	if c.Filter.MaxDailySignals < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_daily_signals cannot be negative, got %d", c.Filter.MaxDailySignals))
	}

	for i, item := range c.Watchlist {
		if item.Symbol == "" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("watchlist item %d has no symbol", i))
		}
	}

	return nil
}
