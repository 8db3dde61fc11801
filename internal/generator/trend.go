package generator

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/westquant/pulse/internal/core"
	"github.com/westquant/pulse/internal/indicator"
)

// Trend emits a signal on a moving average crossover between a fast and a
// slow line. The MA type (SMA or EMA) is configurable.
type Trend struct {
	logger *zap.Logger
	track  *tracker

	maType     string // "sma" or "ema"
	fastPeriod int
	slowPeriod int
	strength   core.StrengthThresholds
}

// NewTrend creates a crossover generator with 5/20 SMA defaults.
func NewTrend(logger *zap.Logger) *Trend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trend{
		logger:     logger,
		track:      newTracker(300*time.Second, 300*time.Second, 10),
		maType:     "sma",
		fastPeriod: 5,
		slowPeriod: 20,
		strength:   core.StrengthThresholds{Strong: 0.7, Moderate: 0.5},
	}
}

func (g *Trend) Name() string { return "trend" }

func (g *Trend) Description() string {
	return fmt.Sprintf("%s crossover (%d/%d)", g.maType, g.fastPeriod, g.slowPeriod)
}

func (g *Trend) Init(cfg Config) error {
	p := cfg.Params
	var err error
	if g.maType, err = stringParam(p, "ma_type", g.maType); err != nil {
		return err
	}
	if g.maType != "sma" && g.maType != "ema" {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("ma_type %q: want sma or ema", g.maType))
	}
	if g.fastPeriod, err = intParam(p, "fast_period", g.fastPeriod); err != nil {
		return err
	}
	if g.slowPeriod, err = intParam(p, "slow_period", g.slowPeriod); err != nil {
		return err
	}
	if g.fastPeriod >= g.slowPeriod {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("fast period %d must be below slow period %d", g.fastPeriod, g.slowPeriod))
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

func (g *Trend) Generate(md core.MarketData) ([]core.Signal, error) {
	latest, ok := md.Latest()
	if !ok {
		return nil, nil
	}
	// Two consecutive slow-MA values are needed to see a cross.
	if len(md.Bars) < g.slowPeriod+1 {
		return nil, nil
	}
	if g.track.inCooldown(md.Symbol) {
		return nil, nil
	}

	closes := md.Closes()
	ma := indicator.SMA
	label := "SMA"
	if g.maType == "ema" {
		ma = indicator.EMA
		label = "EMA"
	}
	fast := ma(closes, g.fastPeriod)
	slow := ma(closes, g.slowPeriod)
	if len(fast) < 2 || len(slow) < 2 {
		return nil, nil
	}

	curFast, prevFast := fast[len(fast)-1], fast[len(fast)-2]
	curSlow, prevSlow := slow[len(slow)-1], slow[len(slow)-2]

	var side core.Side
	var reason string
	switch {
	case prevFast <= prevSlow && curFast > curSlow:
		side = core.SideBuy
		reason = fmt.Sprintf("%s%d golden cross: fast (%.4f) crossed above %s%d (%.4f)",
			label, g.fastPeriod, curFast, label, g.slowPeriod, curSlow)
	case prevFast >= prevSlow && curFast < curSlow:
		side = core.SideSell
		reason = fmt.Sprintf("%s%d death cross: fast (%.4f) crossed below %s%d (%.4f)",
			label, g.fastPeriod, curFast, label, g.slowPeriod, curSlow)
	default:
		return nil, nil
	}

	gap := curFast - curSlow
	if gap < 0 {
		gap = -gap
	}
	confidence := clamp(gap/curSlow*10, 0.3, 0.8)

	sig := core.Signal{
		ID:         uuid.NewString(),
		Symbol:     md.Symbol,
		Side:       side,
		Price:      latest.Close,
		Confidence: confidence,
		Strength:   g.strength.Tier(confidence),
		Reason:     reason,
		Generator:  g.Name(),
		Timestamp:  latest.CloseTime,
		Volume:     latest.Volume,
	}

	if g.track.isDuplicate(sig) {
		return nil, nil
	}

	g.track.accept(sig)
	g.logger.Debug("crossover signal",
		zap.String("symbol", sig.Symbol),
		zap.String("side", string(sig.Side)),
		zap.Float64("confidence", sig.Confidence),
	)
	return []core.Signal{sig}, nil
}
