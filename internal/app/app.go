// Package app wires the feed, generators, filter and sinks into the scan
// loop.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/westquant/pulse/internal/config"
	"github.com/westquant/pulse/internal/core"
	"github.com/westquant/pulse/internal/feed"
	"github.com/westquant/pulse/internal/filter"
	"github.com/westquant/pulse/internal/generator"
	"github.com/westquant/pulse/internal/metrics"
	"github.com/westquant/pulse/internal/sink"
)

// App is the main application orchestrator
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *generator.Registry
	filter   *filter.Filter
	metrics  *metrics.Registry

	source feed.Source
	sinks  []sink.Sink

	watchlist []config.WatchlistItem
	interval  time.Duration
	bars      int

	mu          sync.RWMutex
	running     bool
	cancel      context.CancelFunc
	lastReasons map[string]int64
}

// New creates an App from configuration. The known generators are built
// and initialized from their config sections; a feed source and at least
// one sink must be attached before starting.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Defaults()
	}

	a := &App{
		cfg:         cfg,
		logger:      logger,
		registry:    generator.NewRegistry(logger.Named("generator")),
		filter:      filter.New(cfg.Filter, logger.Named("filter")),
		metrics:     metrics.NewRegistry(),
		watchlist:   cfg.Watchlist,
		interval:    cfg.Scan.Interval,
		bars:        cfg.Scan.Bars,
		lastReasons: make(map[string]int64),
	}

	a.registry.OnFailure(func(name string) {
		a.metrics.RecordGeneratorFailure(name)
	})

	if err := a.buildGenerators(); err != nil {
		return nil, err
	}
	return a, nil
}

// buildGenerators constructs the enabled generators from configuration.
func (a *App) buildGenerators() error {
	for name, gcfg := range a.cfg.Generators {
		if !gcfg.Enabled {
			continue
		}

		var g generator.Generator
		switch name {
		case "technical":
			g = generator.NewTechnical(a.logger.Named("technical"))
		case "trend":
			g = generator.NewTrend(a.logger.Named("trend"))
		case "breakout":
			g = generator.NewBreakout(a.logger.Named("breakout"))
		default:
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown generator %q", name))
		}

		if err := g.Init(generator.Config{Enabled: gcfg.Enabled, Params: gcfg.Params}); err != nil {
			return fmt.Errorf("initializing generator %s: %w", name, err)
		}
		if err := a.registry.Register(g); err != nil {
			return err
		}
	}
	return nil
}

// SetSource attaches the market data source.
func (a *App) SetSource(s feed.Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = s
}

// AddSink attaches an output sink.
func (a *App) AddSink(s sink.Sink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sinks = append(a.sinks, s)
}

// Registry exposes the generator registry.
func (a *App) Registry() *generator.Registry { return a.registry }

// Filter exposes the rule chain.
func (a *App) Filter() *filter.Filter { return a.filter }

// Metrics exposes the Prometheus registry.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// Start begins the periodic scan loop and blocks until the context is
// canceled.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	if a.source == nil {
		a.mu.Unlock()
		return fmt.Errorf("no feed source attached")
	}
	a.running = true

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	a.logger.Info("pulse starting",
		zap.Int("watchlist_count", len(a.watchlist)),
		zap.Duration("interval", a.interval),
	)

	if a.cfg.Metrics.Enabled {
		go a.serveMetrics(ctx)
	}

	// Initial run
	a.RunOnce(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("pulse shutting down")
			a.mu.Lock()
			a.running = false
			a.mu.Unlock()
			a.closeSinks()
			return ctx.Err()
		case <-ticker.C:
			a.RunOnce(ctx)
		}
	}
}

// Close releases the attached sinks. Start does this on shutdown; callers
// using RunOnce directly should Close when done.
func (a *App) Close() {
	a.closeSinks()
}

// Stop cancels the scan loop.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// RunOnce performs a single scan cycle over the watchlist and returns the
// accepted signals.
func (a *App) RunOnce(ctx context.Context) []core.Signal {
	a.mu.RLock()
	items := make([]config.WatchlistItem, len(a.watchlist))
	copy(items, a.watchlist)
	source := a.source
	a.mu.RUnlock()

	if len(items) == 0 {
		a.logger.Debug("watchlist is empty")
		return nil
	}
	if source == nil {
		a.logger.Warn("no feed source attached")
		return nil
	}

	start := time.Now()
	a.metrics.SetWatchlistSize(len(items))

	market := make(map[string]core.MarketData, len(items))
	var candidates []core.Signal

	for _, item := range items {
		if ctx.Err() != nil {
			return nil
		}

		md, err := source.Fetch(ctx, item.Symbol, a.bars)
		if err != nil {
			a.logger.Debug("failed to fetch bars",
				zap.String("symbol", item.Symbol),
				zap.Error(err),
			)
			continue
		}
		market[item.Symbol] = md

		sigs := a.registry.GenerateNamed(md, item.Generators)
		for _, sig := range sigs {
			a.metrics.RecordGenerated(sig.Generator, string(sig.Side))
		}
		candidates = append(candidates, sigs...)
	}

	accepted := a.filter.Apply(candidates, market)
	for _, sig := range accepted {
		a.metrics.RecordAccepted(sig.Generator, string(sig.Side))
	}
	a.recordRejections()
	a.metrics.SetDailySignals(int64(a.filter.DailyCount()))

	a.emit(ctx, accepted)

	a.metrics.RecordScanCycle(time.Since(start).Seconds())
	a.logger.Info("scan cycle complete",
		zap.Int("symbols", len(items)),
		zap.Int("candidates", len(candidates)),
		zap.Int("accepted", len(accepted)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return accepted
}

// recordRejections pushes the filter's per-reason counter deltas into the
// metrics registry.
func (a *App) recordRejections() {
	stats := a.filter.Stats()

	a.mu.Lock()
	defer a.mu.Unlock()
	for reason, count := range stats.Reasons {
		if delta := count - a.lastReasons[reason]; delta > 0 {
			a.metrics.RecordRejected(reason, delta)
		}
		a.lastReasons[reason] = count
	}
}

func (a *App) emit(ctx context.Context, signals []core.Signal) {
	if len(signals) == 0 {
		return
	}

	a.mu.RLock()
	sinks := make([]sink.Sink, len(a.sinks))
	copy(sinks, a.sinks)
	a.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Emit(ctx, signals); err != nil {
			a.logger.Error("sink emit failed",
				zap.String("sink", s.Name()),
				zap.Error(err),
			)
		}
	}
}

func (a *App) closeSinks() {
	a.mu.RLock()
	sinks := make([]sink.Sink, len(a.sinks))
	copy(sinks, a.sinks)
	a.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Close(); err != nil {
			a.logger.Warn("sink close failed",
				zap.String("sink", s.Name()),
				zap.Error(err),
			)
		}
	}
}

// serveMetrics exposes the Prometheus registry over HTTP until the
// context is canceled.
func (a *App) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle(a.cfg.Metrics.Path, promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: a.cfg.Metrics.Listen, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("metrics listening",
		zap.String("addr", a.cfg.Metrics.Listen),
		zap.String("path", a.cfg.Metrics.Path),
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		a.logger.Error("metrics server failed", zap.Error(err))
	}
}

// GetStats returns application statistics
func (a *App) GetStats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"running":    a.running,
		"watchlist":  len(a.watchlist),
		"generators": a.registry.Names(),
		"filter":     a.filter.Stats(),
	}
}
