package core

import "time"

// Side represents the direction of a trading signal
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Strength represents the strength tier of a signal
type Strength string

const (
	StrengthWeak     Strength = "WEAK"
	StrengthModerate Strength = "MODERATE"
	StrengthStrong   Strength = "STRONG"
)

// StrengthThresholds maps confidence to a strength tier. The pair is a
// per-generator configuration value, not a global constant.
type StrengthThresholds struct {
	Strong   float64
	Moderate float64
}

// DefaultStrengthThresholds is the mapping used by the composite generator.
var DefaultStrengthThresholds = StrengthThresholds{Strong: 0.8, Moderate: 0.6}

// Tier returns the strength tier for a confidence value.
func (t StrengthThresholds) Tier(confidence float64) Strength {
	switch {
	case confidence >= t.Strong:
		return StrengthStrong
	case confidence >= t.Moderate:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// Bar represents one fixed-interval OHLCV sample. Immutable once produced.
type Bar struct {
	Symbol    string    `json:"symbol"`
	OpenTime  time.Time `json:"open_time"`
	CloseTime time.Time `json:"close_time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// MarketData is an ordered, time-ascending sequence of bars for one symbol.
// It is supplied whole per generation cycle and treated as an immutable
// snapshot.
type MarketData struct {
	Symbol string
	Bars   []Bar
}

// Closes returns the close prices of all bars.
func (m MarketData) Closes() []float64 {
	out := make([]float64, len(m.Bars))
	for i, b := range m.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high prices of all bars.
func (m MarketData) Highs() []float64 {
	out := make([]float64, len(m.Bars))
	for i, b := range m.Bars {
		out[i] = b.High
	}
	return out
}

// Lows returns the low prices of all bars.
func (m MarketData) Lows() []float64 {
	out := make([]float64, len(m.Bars))
	for i, b := range m.Bars {
		out[i] = b.Low
	}
	return out
}

// Volumes returns the volumes of all bars.
func (m MarketData) Volumes() []float64 {
	out := make([]float64, len(m.Bars))
	for i, b := range m.Bars {
		out[i] = b.Volume
	}
	return out
}

// Latest returns the most recent bar, if any.
func (m MarketData) Latest() (Bar, bool) {
	if len(m.Bars) == 0 {
		return Bar{}, false
	}
	return m.Bars[len(m.Bars)-1], true
}

// Signal represents a candidate or accepted trading signal.
// Read-only once it leaves its generator.
type Signal struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Price      float64   `json:"price"`
	Confidence float64   `json:"confidence"`
	Strength   Strength  `json:"strength"`
	Reason     string    `json:"reason"`
	Generator  string    `json:"generator,omitempty"`
	Timestamp  time.Time `json:"timestamp"`

	// Optional fields; zero means unset.
	StopLoss   float64 `json:"stop_loss,omitempty"`
	TakeProfit float64 `json:"take_profit,omitempty"`
	Volume     float64 `json:"volume,omitempty"`
}
