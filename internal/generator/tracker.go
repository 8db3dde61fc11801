package generator

import (
	"sync"
	"time"

	"github.com/westquant/pulse/internal/core"
)

// History bounds shared by generators and the filter: once the buffer
// exceeds maxHistory entries it is trimmed to the most recent trimHistory.
const (
	maxHistory  = 1000
	trimHistory = 500
)

// Duplicate-suppression tolerances.
const (
	dupPriceTolerance = 0.01
	dupConfTolerance  = 0.1
)

// tracked is a history entry stamped with the emission clock time. The
// duplicate window runs off that stamp, not the signal's bar timestamp,
// so suppression works over replayed historical bars.
type tracked struct {
	sig core.Signal
	at  time.Time
}

// tracker owns the mutable per-instance state of a generator: the bounded
// signal history, per-symbol last-signal times, and the cooldown and
// duplicate-suppression windows. All methods are safe for concurrent use.
type tracker struct {
	mu         sync.Mutex
	cooldown   time.Duration
	dupWindow  time.Duration
	dupDepth   int
	history    []tracked
	lastSignal map[string]time.Time
	now        func() time.Time
}

func newTracker(cooldown, dupWindow time.Duration, dupDepth int) *tracker {
	return &tracker{
		cooldown:   cooldown,
		dupWindow:  dupWindow,
		dupDepth:   dupDepth,
		lastSignal: make(map[string]time.Time),
		now:        time.Now,
	}
}

// inCooldown reports whether the symbol emitted a signal within the
// cooldown window.
func (t *tracker) inCooldown(symbol string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.lastSignal[symbol]
	if !ok {
		return false
	}
	return t.now().Sub(last) < t.cooldown
}

// isDuplicate compares the candidate against the most recent dupDepth
// history entries inside the duplicate window.
func (t *tracker) isDuplicate(sig core.Signal) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	start := len(t.history) - t.dupDepth
	if start < 0 {
		start = 0
	}
	for _, prev := range t.history[start:] {
		if now.Sub(prev.at) > t.dupWindow {
			continue
		}
		if core.Similar(sig, prev.sig, dupPriceTolerance, dupConfTolerance) {
			return true
		}
	}
	return false
}

// accept records an emitted signal: appends to history (trimming past the
// bound) and stamps the symbol's last-signal time.
func (t *tracker) accept(sig core.Signal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.history = append(t.history, tracked{sig: sig, at: now})
	if len(t.history) > maxHistory {
		t.history = t.history[len(t.history)-trimHistory:]
	}
	t.lastSignal[sig.Symbol] = now
}

// History returns a copy of the signal history, optionally restricted to
// one symbol, newest last.
func (t *tracker) History(symbol string, limit int) []core.Signal {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]core.Signal, 0, len(t.history))
	for _, entry := range t.history {
		if symbol == "" || entry.sig.Symbol == symbol {
			out = append(out, entry.sig)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Clear drops all history and per-symbol state.
func (t *tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = nil
	t.lastSignal = make(map[string]time.Time)
}
