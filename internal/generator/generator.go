// Package generator turns market data snapshots into candidate trading
// signals. Each generator owns its configuration and per-symbol state;
// independent instances never share state.
package generator

import (
	"fmt"

	"github.com/westquant/pulse/internal/core"
)

// Config holds generator configuration. Params is a flat, named option
// set: unknown keys are ignored and missing keys fall back to defaults.
type Config struct {
	Enabled bool
	Params  map[string]any
}

// Generator is the single capability implemented by all variants.
type Generator interface {
	Name() string
	Description() string
	Init(cfg Config) error
	Generate(md core.MarketData) ([]core.Signal, error)
}

// floatParam reads a numeric parameter. A present key with a non-numeric
// value is a configuration-shape error and is raised.
func floatParam(params map[string]any, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("parameter %q: expected number, got %T", key, v))
	}
}

// intParam reads an integer parameter.
func intParam(params map[string]any, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("parameter %q: expected integer, got %T", key, v))
	}
}

// boolParam reads a boolean parameter.
func boolParam(params map[string]any, key string, def bool) (bool, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("parameter %q: expected bool, got %T", key, v))
	}
	return b, nil
}

// stringParam reads a string parameter.
func stringParam(params map[string]any, key string, def string) (string, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", core.WrapError(core.ErrConfigInvalid, fmt.Errorf("parameter %q: expected string, got %T", key, v))
	}
	return s, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
