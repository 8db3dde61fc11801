// Package filter screens candidate signals through a prioritized rule
// chain. Rules run in ascending priority order and the first rejection
// wins; filter state (history, cooldowns, daily counters) advances only
// for signals that pass every rule.
package filter

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/westquant/pulse/internal/core"
)

// Config tunes the rule chain.
type Config struct {
	MinConfidence       float64       `mapstructure:"min_confidence"`
	Cooldown            time.Duration `mapstructure:"cooldown"`
	MinVolume           float64       `mapstructure:"min_volume"`
	MinPrice            float64       `mapstructure:"min_price"`
	VolatilityThreshold float64       `mapstructure:"volatility_threshold"`
	VolatilityWindow    int           `mapstructure:"volatility_window"`
	DuplicateWindow     time.Duration `mapstructure:"duplicate_window"`
	DuplicateDepth      int           `mapstructure:"duplicate_depth"`
	MaxDailySignals     int           `mapstructure:"max_daily_signals"`
	MaxSignalsPerSymbol int           `mapstructure:"max_signals_per_symbol"`
	Blacklist           []string      `mapstructure:"blacklist"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MinConfidence:       0.5,
		Cooldown:            300 * time.Second,
		MinVolume:           1000,
		MinPrice:            0.01,
		VolatilityThreshold: 0.1,
		VolatilityWindow:    20,
		DuplicateWindow:     600 * time.Second,
		DuplicateDepth:      50,
		MaxDailySignals:     20,
		MaxSignalsPerSymbol: 3,
	}
}

// Accepted is a history entry: the signal plus the clock time it was
// accepted. Window checks compare against At, not the signal's bar
// timestamp, so replayed historical bars still dedupe.
type Accepted struct {
	Signal core.Signal
	At     time.Time
}

// Context is the read-only view a rule checks a signal against.
type Context struct {
	Now          time.Time
	Market       map[string]core.MarketData
	History      []Accepted
	LastAccepted map[string]time.Time
	DailyCount   int
}

// Rule is one link of the chain. Check returns nil to accept; a non-nil
// error rejects the signal and its message becomes the logged cause. The
// rule's name is the recorded rejection reason.
type Rule struct {
	Name        string
	Priority    int
	Enabled     bool
	Description string
	Check       func(sig core.Signal, ctx *Context) error
}

// Stats aggregates filter activity since the last reset.
type Stats struct {
	Processed int64            `json:"processed"`
	Accepted  int64            `json:"accepted"`
	Rejected  int64            `json:"rejected"`
	Reasons   map[string]int64 `json:"reasons"`
}

// Rejection reasons outside the named rules.
const (
	reasonValidation = "validation_failed"
	reasonRuleError  = "rule_error"
)

// Filter applies the rule chain and owns all cross-batch state.
type Filter struct {
	mu     sync.Mutex
	logger *zap.Logger
	cfg    Config
	rules  []Rule

	history      []Accepted
	lastAccepted map[string]time.Time
	blacklist    map[string]struct{}
	dailyCount   int
	dailyDate    string // calendar day of the counter, YYYY-MM-DD

	stats Stats
	now   func() time.Time
}

// New creates a filter with the default rule chain.
func New(cfg Config, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Filter{
		logger:       logger,
		cfg:          cfg,
		lastAccepted: make(map[string]time.Time),
		blacklist:    make(map[string]struct{}),
		stats:        Stats{Reasons: make(map[string]int64)},
		now:          time.Now,
	}
	for _, sym := range cfg.Blacklist {
		f.blacklist[sym] = struct{}{}
	}
	f.rules = f.defaultRules()
	sort.SliceStable(f.rules, func(i, j int) bool {
		return f.rules[i].Priority < f.rules[j].Priority
	})
	return f
}

// Apply screens a batch of candidates against market context and returns
// the accepted signals, highest confidence first, capped per symbol.
func (f *Filter) Apply(candidates []core.Signal, market map[string]core.MarketData) []core.Signal {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	f.rollDailyCounter(now)

	var accepted []core.Signal
	for _, sig := range candidates {
		f.stats.Processed++

		if err := sig.Validate(); err != nil {
			f.reject(sig, reasonValidation, err)
			continue
		}

		ctx := &Context{
			Now:          now,
			Market:       market,
			History:      f.history,
			LastAccepted: f.lastAccepted,
			DailyCount:   f.dailyCount,
		}
		if reason, err := f.runRules(sig, ctx); err != nil {
			f.reject(sig, reason, err)
			continue
		}

		f.accept(sig, now)
		accepted = append(accepted, sig)
	}

	return capPerSymbol(accepted, f.cfg.MaxSignalsPerSymbol)
}

// runRules walks the chain in priority order. A panicking rule rejects the
// signal rather than letting it through unchecked.
func (f *Filter) runRules(sig core.Signal, ctx *Context) (reason string, err error) {
	for _, rule := range f.rules {
		if !rule.Enabled {
			continue
		}
		if reason, err = f.runRule(rule, sig, ctx); err != nil {
			return reason, err
		}
	}
	return "", nil
}

func (f *Filter) runRule(rule Rule, sig core.Signal, ctx *Context) (reason string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reason = reasonRuleError
			err = core.WrapError(core.ErrRuleFailed, fmt.Errorf("rule %s panicked: %v", rule.Name, rec))
		}
	}()
	if err := rule.Check(sig, ctx); err != nil {
		return rule.Name, err
	}
	return "", nil
}

func (f *Filter) reject(sig core.Signal, reason string, err error) {
	f.stats.Rejected++
	f.stats.Reasons[reason]++
	f.logger.Debug("signal rejected",
		zap.String("symbol", sig.Symbol),
		zap.String("generator", sig.Generator),
		zap.String("reason", reason),
		zap.Error(err),
	)
}

func (f *Filter) accept(sig core.Signal, now time.Time) {
	f.stats.Accepted++
	f.dailyCount++
	f.lastAccepted[sig.Symbol] = now
	f.history = append(f.history, Accepted{Signal: sig, At: now})
	if len(f.history) > maxHistory {
		f.history = f.history[len(f.history)-trimHistory:]
	}
}

// rollDailyCounter resets the daily limit counter on a calendar day change.
func (f *Filter) rollDailyCounter(now time.Time) {
	day := now.Format("2006-01-02")
	if day != f.dailyDate {
		f.dailyDate = day
		f.dailyCount = 0
	}
}

// capPerSymbol keeps the top max signals per symbol by confidence and
// returns the survivors sorted by descending confidence.
func capPerSymbol(sigs []core.Signal, max int) []core.Signal {
	sort.SliceStable(sigs, func(i, j int) bool {
		return sigs[i].Confidence > sigs[j].Confidence
	})
	if max <= 0 {
		return sigs
	}

	counts := make(map[string]int)
	out := sigs[:0]
	for _, sig := range sigs {
		if counts[sig.Symbol] >= max {
			continue
		}
		counts[sig.Symbol]++
		out = append(out, sig)
	}
	return out
}

// Rules returns a copy of the chain in evaluation order.
func (f *Filter) Rules() []Rule {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Rule(nil), f.rules...)
}

// SetRuleEnabled toggles a rule by name.
func (f *Filter) SetRuleEnabled(name string, enabled bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rules {
		if f.rules[i].Name == name {
			f.rules[i].Enabled = enabled
			return true
		}
	}
	return false
}

// AddBlacklist blocks a symbol.
func (f *Filter) AddBlacklist(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blacklist[symbol] = struct{}{}
}

// RemoveBlacklist unblocks a symbol.
func (f *Filter) RemoveBlacklist(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blacklist, symbol)
}

// Blacklisted reports whether a symbol is blocked.
func (f *Filter) Blacklisted(symbol string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blacklist[symbol]
	return ok
}

// DailyCount returns the number of signals accepted during the current
// calendar day.
func (f *Filter) DailyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dailyCount
}

// Stats returns a snapshot of the counters.
func (f *Filter) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := Stats{
		Processed: f.stats.Processed,
		Accepted:  f.stats.Accepted,
		Rejected:  f.stats.Rejected,
		Reasons:   make(map[string]int64, len(f.stats.Reasons)),
	}
	for k, v := range f.stats.Reasons {
		out.Reasons[k] = v
	}
	return out
}

// ResetStats zeroes the counters.
func (f *Filter) ResetStats() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats = Stats{Reasons: make(map[string]int64)}
}

// ClearHistory drops accepted-signal history and cooldown state. The daily
// counter is left alone.
func (f *Filter) ClearHistory() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = nil
	f.lastAccepted = make(map[string]time.Time)
}

// History bounds, matching the generators.
const (
	maxHistory  = 1000
	trimHistory = 500
)
