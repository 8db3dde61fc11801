package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/westquant/pulse/internal/app"
	"github.com/westquant/pulse/internal/config"
	"github.com/westquant/pulse/internal/feed"
	"github.com/westquant/pulse/internal/sink"
)

// loadConfig reads the config file or falls back to defaults.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// buildApp wires the feed source and output sinks from configuration.
func buildApp(cfg *config.Config, log *zap.Logger) (*app.App, error) {
	a, err := app.New(cfg, log)
	if err != nil {
		return nil, err
	}

	switch cfg.Feed.Type {
	case "jsonl", "":
		a.SetSource(feed.NewFileSource(cfg.Feed.Path, log.Named("feed")))
	default:
		return nil, fmt.Errorf("unknown feed type %q", cfg.Feed.Type)
	}

	switch cfg.Output.Type {
	case "log", "":
		a.AddSink(sink.NewLogSink(log.Named("sink")))
	case "jsonl":
		s, err := sink.NewJSONLSink(cfg.Output.Path)
		if err != nil {
			return nil, fmt.Errorf("creating output sink: %w", err)
		}
		a.AddSink(s)
	default:
		return nil, fmt.Errorf("unknown output type %q", cfg.Output.Type)
	}

	return a, nil
}
