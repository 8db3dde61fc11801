package generator

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/westquant/pulse/internal/core"
	"github.com/westquant/pulse/internal/indicator"
)

// Breakout emits momentum signals: price escaping its recent range by a
// configurable margin, and volume surges confirmed by a price move. A
// breakout clearing every detected resistance (or support) level earns a
// small confidence bump.
type Breakout struct {
	logger *zap.Logger
	track  *tracker

	lookback       int
	breakoutMargin float64 // relative escape beyond the range
	volumeFactor   float64 // surge multiple of average volume
	srWindow       int
	srThreshold    float64
	strength       core.StrengthThresholds
}

// NewBreakout creates a breakout generator with a 20-bar range and a 2%
// escape margin.
func NewBreakout(logger *zap.Logger) *Breakout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Breakout{
		logger:         logger,
		track:          newTracker(300*time.Second, 300*time.Second, 10),
		lookback:       20,
		breakoutMargin: 0.02,
		volumeFactor:   2.0,
		srWindow:       10,
		srThreshold:    0.02,
		strength:       core.StrengthThresholds{Strong: 0.7, Moderate: 0.5},
	}
}

func (g *Breakout) Name() string { return "breakout" }

func (g *Breakout) Description() string {
	return fmt.Sprintf("range breakout (%d bars, %.1f%% margin) with volume confirmation", g.lookback, g.breakoutMargin*100)
}

func (g *Breakout) Init(cfg Config) error {
	p := cfg.Params
	var err error
	if g.lookback, err = intParam(p, "lookback", g.lookback); err != nil {
		return err
	}
	if g.breakoutMargin, err = floatParam(p, "breakout_margin", g.breakoutMargin); err != nil {
		return err
	}
	if g.volumeFactor, err = floatParam(p, "volume_factor", g.volumeFactor); err != nil {
		return err
	}
	if g.strength.Strong, err = floatParam(p, "strength_strong", g.strength.Strong); err != nil {
		return err
	}
	if g.strength.Moderate, err = floatParam(p, "strength_moderate", g.strength.Moderate); err != nil {
		return err
	}
	cooldown, err := intParam(p, "cooldown_seconds", int(g.track.cooldown/time.Second))
	if err != nil {
		return err
	}
	g.track.cooldown = time.Duration(cooldown) * time.Second
	return nil
}

func (g *Breakout) Generate(md core.MarketData) ([]core.Signal, error) {
	latest, ok := md.Latest()
	if !ok {
		return nil, nil
	}
	if len(md.Bars) < g.lookback {
		return nil, nil
	}
	if g.track.inCooldown(md.Symbol) {
		return nil, nil
	}

	closes := md.Closes()
	volumes := md.Volumes()

	var candidates []core.Signal
	if sig := g.rangeBreakout(md.Symbol, latest, closes); sig != nil {
		candidates = append(candidates, *sig)
	}
	if sig := g.volumeSurge(md.Symbol, latest, closes, volumes); sig != nil {
		candidates = append(candidates, *sig)
	}

	var out []core.Signal
	for _, sig := range candidates {
		if g.track.isDuplicate(sig) {
			continue
		}
		g.track.accept(sig)
		out = append(out, sig)
	}
	return out, nil
}

// rangeBreakout checks whether the latest close escaped the recent
// high/low range by more than the margin.
func (g *Breakout) rangeBreakout(symbol string, latest core.Bar, closes []float64) *core.Signal {
	window := closes[len(closes)-g.lookback : len(closes)-1] // exclude the current close
	if len(window) == 0 {
		return nil
	}

	high, low := window[0], window[0]
	for _, p := range window {
		if p > high {
			high = p
		}
		if p < low {
			low = p
		}
	}

	price := latest.Close
	var side core.Side
	var confidence float64
	var reason string

	switch {
	case price > high*(1+g.breakoutMargin):
		side = core.SideBuy
		confidence = math.Min(0.8, (price-high)/high*5)
		reason = fmt.Sprintf("upside breakout: price (%.4f) above %d-bar high (%.4f)", price, g.lookback, high)
	case price < low*(1-g.breakoutMargin):
		side = core.SideSell
		confidence = math.Min(0.8, (low-price)/low*5)
		reason = fmt.Sprintf("downside breakout: price (%.4f) below %d-bar low (%.4f)", price, g.lookback, low)
	default:
		return nil
	}

	// Clearing every detected level strengthens the case.
	supports, resistances := indicator.SupportResistance(closes, g.srWindow, g.srThreshold)
	if side == core.SideBuy && aboveAll(price, resistances) {
		confidence = math.Min(0.9, confidence+0.05)
		reason += ", above all resistance levels"
	}
	if side == core.SideSell && belowAll(price, supports) {
		confidence = math.Min(0.9, confidence+0.05)
		reason += ", below all support levels"
	}

	return &core.Signal{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Side:       side,
		Price:      price,
		Confidence: confidence,
		Strength:   g.strength.Tier(confidence),
		Reason:     reason,
		Generator:  g.Name(),
		Timestamp:  latest.CloseTime,
		Volume:     latest.Volume,
	}
}

// volumeSurge checks for a volume spike confirmed by a price move over 1%.
func (g *Breakout) volumeSurge(symbol string, latest core.Bar, closes, volumes []float64) *core.Signal {
	if len(volumes) < g.lookback || len(closes) < 2 {
		return nil
	}

	var sum float64
	for _, v := range volumes[len(volumes)-g.lookback:] {
		sum += v
	}
	avg := sum / float64(g.lookback)
	if avg == 0 || latest.Volume <= avg*g.volumeFactor {
		return nil
	}

	prev := closes[len(closes)-2]
	if prev == 0 {
		return nil
	}
	change := (latest.Close - prev) / prev
	if math.Abs(change) <= 0.01 {
		return nil
	}

	side := core.SideBuy
	if change < 0 {
		side = core.SideSell
	}
	ratio := latest.Volume / avg
	confidence := math.Min(0.8, ratio*0.2)

	return &core.Signal{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Side:       side,
		Price:      latest.Close,
		Confidence: confidence,
		Strength:   g.strength.Tier(confidence),
		Reason:     fmt.Sprintf("volume surge: %.1fx average volume with %.2f%% price move", ratio, change*100),
		Generator:  g.Name(),
		Timestamp:  latest.CloseTime,
		Volume:     latest.Volume,
	}
}

func aboveAll(price float64, levels []float64) bool {
	if len(levels) == 0 {
		return false
	}
	for _, l := range levels {
		if price <= l {
			return false
		}
	}
	return true
}

func belowAll(price float64, levels []float64) bool {
	if len(levels) == 0 {
		return false
	}
	for _, l := range levels {
		if price >= l {
			return false
		}
	}
	return true
}
