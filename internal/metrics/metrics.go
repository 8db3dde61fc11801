package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	signalsGenerated  *prometheus.CounterVec
	signalsAccepted   *prometheus.CounterVec
	signalsRejected   *prometheus.CounterVec
	scanCycles        prometheus.Counter
	scanDuration      prometheus.Histogram
	generatorFailures *prometheus.CounterVec
	watchlistSymbols  prometheus.Gauge
	dailySignals      prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		signalsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_signals_generated_total",
				Help: "Total number of candidate signals generated",
			},
			[]string{"generator", "side"},
		),
		signalsAccepted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_signals_accepted_total",
				Help: "Total number of signals that passed the filter chain",
			},
			[]string{"generator", "side"},
		),
		signalsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_signals_rejected_total",
				Help: "Total number of signals rejected, by rule",
			},
			[]string{"rule"},
		),
		scanCycles: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pulse_scan_cycles_total",
				Help: "Total number of scan cycles completed",
			},
		),
		scanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pulse_scan_duration_seconds",
				Help:    "Scan cycle duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		generatorFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_generator_failures_total",
				Help: "Total number of generator errors",
			},
			[]string{"generator"},
		),
		watchlistSymbols: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pulse_watchlist_symbols",
				Help: "Number of symbols in watchlist",
			},
		),
		dailySignals: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pulse_daily_signals",
				Help: "Signals accepted during the current day",
			},
		),
	}

	reg.MustRegister(r.signalsGenerated)
	reg.MustRegister(r.signalsAccepted)
	reg.MustRegister(r.signalsRejected)
	reg.MustRegister(r.scanCycles)
	reg.MustRegister(r.scanDuration)
	reg.MustRegister(r.generatorFailures)
	reg.MustRegister(r.watchlistSymbols)
	reg.MustRegister(r.dailySignals)

	return r
}

// RecordGenerated records a candidate signal.
func (r *Registry) RecordGenerated(generator, side string) {
	r.signalsGenerated.WithLabelValues(generator, side).Inc()
}

// RecordAccepted records a signal that survived the filter chain.
func (r *Registry) RecordAccepted(generator, side string) {
	r.signalsAccepted.WithLabelValues(generator, side).Inc()
}

// RecordRejected records a filter rejection by rule name.
func (r *Registry) RecordRejected(rule string, count int64) {
	r.signalsRejected.WithLabelValues(rule).Add(float64(count))
}

// RecordScanCycle records a scan cycle completion.
func (r *Registry) RecordScanCycle(duration float64) {
	r.scanCycles.Inc()
	r.scanDuration.Observe(duration)
}

// RecordGeneratorFailure records a generator error.
func (r *Registry) RecordGeneratorFailure(generator string) {
	r.generatorFailures.WithLabelValues(generator).Inc()
}

// SetWatchlistSize sets the watchlist size.
func (r *Registry) SetWatchlistSize(size int) {
	r.watchlistSymbols.Set(float64(size))
}

// SetDailySignals sets the day's accepted-signal count.
func (r *Registry) SetDailySignals(count int64) {
	r.dailySignals.Set(float64(count))
}
