package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/westquant/pulse/internal/config"
	"github.com/westquant/pulse/internal/core"
	"github.com/westquant/pulse/internal/generator"
)

// fakeSource serves canned market data per symbol.
type fakeSource struct {
	data  map[string]core.MarketData
	fails map[string]bool
}

func (f *fakeSource) Fetch(ctx context.Context, symbol string, limit int) (core.MarketData, error) {
	if f.fails[symbol] {
		return core.MarketData{}, fmt.Errorf("feed down")
	}
	md, ok := f.data[symbol]
	if !ok {
		return core.MarketData{}, core.ErrNoData
	}
	return md, nil
}

// fakeSink records every emitted batch.
type fakeSink struct {
	mu      sync.Mutex
	batches [][]core.Signal
	closed  bool
}

func (f *fakeSink) Name() string { return "fake" }
func (f *fakeSink) Emit(ctx context.Context, signals []core.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, signals)
	return nil
}
func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSink) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *fakeSink) wasClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// deathCrossData yields a series whose 5-period SMA crosses below the
// 20-period SMA on the final bar.
func deathCrossData(symbol string) core.MarketData {
	closes := make([]float64, 0, 25)
	for i := 0; i < 20; i++ {
		closes = append(closes, 100+float64(i))
	}
	closes = append(closes, 120, 120, 120, 120, 70)

	base := time.Now()
	bars := make([]core.Bar, len(closes))
	for i, c := range closes {
		ct := base.Add(-time.Duration(len(closes)-1-i) * time.Minute)
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		high, low := open, open
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
		bars[i] = core.Bar{
			Symbol: symbol, OpenTime: ct.Add(-time.Minute), CloseTime: ct,
			Open: open, High: high + 1, Low: low - 1, Close: c, Volume: 5000,
		}
	}
	return core.MarketData{Symbol: symbol, Bars: bars}
}

// testConfig enables only the trend generator and relaxes the filter
// thresholds that would swallow its signals.
func testConfig(symbols ...string) *config.Config {
	cfg := config.Defaults()
	cfg.Generators = map[string]config.GeneratorConfig{
		"trend": {Enabled: true},
	}
	cfg.Filter.MinConfidence = 0.2
	cfg.Filter.VolatilityThreshold = 100
	for _, s := range symbols {
		cfg.Watchlist = append(cfg.Watchlist, config.WatchlistItem{Symbol: s})
	}
	return cfg
}

func TestAppRunOnce(t *testing.T) {
	cfg := testConfig("BTCUSDT")
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out := &fakeSink{}
	a.SetSource(&fakeSource{data: map[string]core.MarketData{
		"BTCUSDT": deathCrossData("BTCUSDT"),
	}})
	a.AddSink(out)

	accepted := a.RunOnce(context.Background())
	if len(accepted) != 1 {
		t.Fatalf("accepted %d signals, want 1", len(accepted))
	}
	if accepted[0].Side != core.SideSell || accepted[0].Symbol != "BTCUSDT" {
		t.Errorf("unexpected signal: %+v", accepted[0])
	}
	if len(out.batches) != 1 || len(out.batches[0]) != 1 {
		t.Fatalf("sink received %d batches", len(out.batches))
	}

	stats := a.Filter().Stats()
	if stats.Accepted != 1 {
		t.Errorf("filter stats = %+v", stats)
	}
}

func TestAppRunOnceEmptyWatchlist(t *testing.T) {
	a, err := New(testConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.SetSource(&fakeSource{})

	if accepted := a.RunOnce(context.Background()); len(accepted) != 0 {
		t.Fatalf("accepted %d signals with empty watchlist", len(accepted))
	}
}

func TestAppFetchFailureIsolated(t *testing.T) {
	cfg := testConfig("DOWNUSDT", "BTCUSDT")
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a.SetSource(&fakeSource{
		data:  map[string]core.MarketData{"BTCUSDT": deathCrossData("BTCUSDT")},
		fails: map[string]bool{"DOWNUSDT": true},
	})

	accepted := a.RunOnce(context.Background())
	if len(accepted) != 1 {
		t.Fatalf("accepted %d signals, want 1 despite a failing symbol", len(accepted))
	}
}

func TestAppWatchlistGeneratorRestriction(t *testing.T) {
	cfg := testConfig()
	cfg.Watchlist = []config.WatchlistItem{
		{Symbol: "BTCUSDT", Generators: []string{"breakout"}}, // trend not allowed
	}
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.SetSource(&fakeSource{data: map[string]core.MarketData{
		"BTCUSDT": deathCrossData("BTCUSDT"),
	}})

	// Only the trend generator is registered and the item excludes it.
	if accepted := a.RunOnce(context.Background()); len(accepted) != 0 {
		t.Fatalf("accepted %d signals, want 0", len(accepted))
	}
}

func TestAppUnknownGeneratorRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Generators["astrology"] = config.GeneratorConfig{Enabled: true}

	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected error for unknown generator")
	}
}

// failingGenerator errors on every scan.
type failingGenerator struct{}

func (failingGenerator) Name() string                { return "broken" }
func (failingGenerator) Description() string         { return "always errors" }
func (failingGenerator) Init(generator.Config) error { return nil }
func (failingGenerator) Generate(core.MarketData) ([]core.Signal, error) {
	return nil, fmt.Errorf("no feed")
}

func TestAppGeneratorFailureMetric(t *testing.T) {
	cfg := testConfig("BTCUSDT")
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Registry().Register(failingGenerator{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	a.SetSource(&fakeSource{data: map[string]core.MarketData{
		"BTCUSDT": deathCrossData("BTCUSDT"),
	}})

	a.RunOnce(context.Background())

	families, err := a.Metrics().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var got float64
	for _, mf := range families {
		if mf.GetName() != "pulse_generator_failures_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "generator" && l.GetValue() == "broken" {
					got = m.GetCounter().GetValue()
				}
			}
		}
	}
	if got != 1 {
		t.Errorf("pulse_generator_failures_total{generator=broken} = %v, want 1", got)
	}
}

func TestAppStartRequiresSource(t *testing.T) {
	a, err := New(testConfig("BTCUSDT"), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Start(ctx); err == nil {
		t.Fatal("Start without a source should fail")
	}
}

func TestAppStartStop(t *testing.T) {
	cfg := testConfig("BTCUSDT")
	cfg.Metrics.Enabled = false
	cfg.Scan.Interval = time.Hour

	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out := &fakeSink{}
	a.SetSource(&fakeSource{data: map[string]core.MarketData{
		"BTCUSDT": deathCrossData("BTCUSDT"),
	}})
	a.AddSink(out)

	done := make(chan error, 1)
	go func() { done <- a.Start(context.Background()) }()

	// Wait for the initial cycle to reach the sink, then stop.
	deadline := time.After(5 * time.Second)
	for out.batchCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("initial scan cycle never completed")
		case <-time.After(10 * time.Millisecond):
		}
	}
	a.Stop()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Start returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
	if !out.wasClosed() {
		t.Error("sink was not closed on shutdown")
	}
}
