package generator

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/westquant/pulse/internal/core"
	"github.com/westquant/pulse/internal/indicator"
)

// Technical synthesizes one signal per invocation from a weighted blend of
// indicator families: SMA crossover, RSI, MACD, Bollinger position and
// KDJ. A family whose input is too short contributes a zero score rather
// than aborting generation.
type Technical struct {
	logger *zap.Logger
	track  *tracker

	smaEnabled bool
	smaFast    int
	smaSlow    int
	smaWeight  float64

	rsiEnabled    bool
	rsiPeriod     int
	rsiOversold   float64
	rsiOverbought float64
	rsiWeight     float64

	macdEnabled bool
	macdFast    int
	macdSlow    int
	macdSignal  int
	macdWeight  float64

	bollEnabled bool
	bollPeriod  int
	bollStdDev  float64
	bollWeight  float64

	kdjEnabled bool
	kdjPeriod  int
	kdjM1      int
	kdjM2      int
	kdjWeight  float64

	emissionThreshold float64
	strength          core.StrengthThresholds
}

// NewTechnical creates a composite technical generator with documented
// defaults. Weights nominally sum to 1.
func NewTechnical(logger *zap.Logger) *Technical {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Technical{
		logger: logger,
		track:  newTracker(300*time.Second, 300*time.Second, 10),

		smaEnabled: true, smaFast: 5, smaSlow: 20, smaWeight: 0.3,
		rsiEnabled: true, rsiPeriod: 14, rsiOversold: 30, rsiOverbought: 70, rsiWeight: 0.2,
		macdEnabled: true, macdFast: 12, macdSlow: 26, macdSignal: 9, macdWeight: 0.25,
		bollEnabled: true, bollPeriod: 20, bollStdDev: 2.0, bollWeight: 0.15,
		kdjEnabled: true, kdjPeriod: 9, kdjM1: 3, kdjM2: 3, kdjWeight: 0.1,

		emissionThreshold: 0.3,
		strength:          core.StrengthThresholds{Strong: 0.8, Moderate: 0.6},
	}
}

func (g *Technical) Name() string { return "technical" }

func (g *Technical) Description() string {
	return "weighted multi-indicator synthesis (SMA/RSI/MACD/Bollinger/KDJ)"
}

// Init applies configuration parameters. Invalid parameter types are
// configuration-shape errors and are raised; unknown keys are ignored.
func (g *Technical) Init(cfg Config) error {
	p := cfg.Params
	var err error
	read := func(dst *float64, key string) {
		if err == nil {
			*dst, err = floatParam(p, key, *dst)
		}
	}
	readInt := func(dst *int, key string) {
		if err == nil {
			*dst, err = intParam(p, key, *dst)
		}
	}
	readBool := func(dst *bool, key string) {
		if err == nil {
			*dst, err = boolParam(p, key, *dst)
		}
	}

	readBool(&g.smaEnabled, "sma_enabled")
	readInt(&g.smaFast, "sma_fast_period")
	readInt(&g.smaSlow, "sma_slow_period")
	read(&g.smaWeight, "sma_weight")

	readBool(&g.rsiEnabled, "rsi_enabled")
	readInt(&g.rsiPeriod, "rsi_period")
	read(&g.rsiOversold, "rsi_oversold")
	read(&g.rsiOverbought, "rsi_overbought")
	read(&g.rsiWeight, "rsi_weight")

	readBool(&g.macdEnabled, "macd_enabled")
	readInt(&g.macdFast, "macd_fast_period")
	readInt(&g.macdSlow, "macd_slow_period")
	readInt(&g.macdSignal, "macd_signal_period")
	read(&g.macdWeight, "macd_weight")

	readBool(&g.bollEnabled, "bb_enabled")
	readInt(&g.bollPeriod, "bb_period")
	read(&g.bollStdDev, "bb_std_dev")
	read(&g.bollWeight, "bb_weight")

	readBool(&g.kdjEnabled, "kdj_enabled")
	readInt(&g.kdjPeriod, "kdj_period")
	readInt(&g.kdjM1, "kdj_m1")
	readInt(&g.kdjM2, "kdj_m2")
	read(&g.kdjWeight, "kdj_weight")

	read(&g.emissionThreshold, "emission_threshold")
	read(&g.strength.Strong, "strength_strong")
	read(&g.strength.Moderate, "strength_moderate")
	if err != nil {
		return err
	}

	cooldown, err := intParam(p, "cooldown_seconds", int(g.track.cooldown/time.Second))
	if err != nil {
		return err
	}
	dupWindow, err := intParam(p, "duplicate_window_seconds", int(g.track.dupWindow/time.Second))
	if err != nil {
		return err
	}
	g.track.cooldown = time.Duration(cooldown) * time.Second
	g.track.dupWindow = time.Duration(dupWindow) * time.Second
	return nil
}

// minBars is the largest required lookback across enabled indicator
// families.
func (g *Technical) minBars() int {
	min := 1
	grow := func(n int) {
		if n > min {
			min = n
		}
	}
	if g.smaEnabled {
		grow(g.smaSlow + 1) // crossover needs two consecutive values
	}
	if g.rsiEnabled {
		grow(g.rsiPeriod + 1)
	}
	if g.macdEnabled {
		grow(g.macdSlow + g.macdSignal)
	}
	if g.bollEnabled {
		grow(g.bollPeriod)
	}
	if g.kdjEnabled {
		grow(g.kdjPeriod)
	}
	return min
}

// Generate runs the weighted synthesis over the snapshot and emits at most
// one signal.
func (g *Technical) Generate(md core.MarketData) ([]core.Signal, error) {
	latest, ok := md.Latest()
	if !ok {
		return nil, nil
	}
	if len(md.Bars) < g.minBars() {
		g.logger.Debug("insufficient bars",
			zap.String("symbol", md.Symbol),
			zap.Int("bars", len(md.Bars)),
			zap.Int("required", g.minBars()),
		)
		return nil, nil
	}
	if g.track.inCooldown(md.Symbol) {
		return nil, nil
	}

	closes := md.Closes()
	price := latest.Close

	var total float64
	var reasons []string

	// RSI: oversold/overbought thresholds.
	rsiScore, rsiLatest := 0.0, 50.0
	if g.rsiEnabled {
		if rsi := indicator.RSI(closes, g.rsiPeriod); len(rsi) > 0 {
			rsiLatest = rsi[len(rsi)-1]
			switch {
			case rsiLatest <= g.rsiOversold:
				rsiScore = 1
				reasons = append(reasons, fmt.Sprintf("RSI oversold (%.2f)", rsiLatest))
			case rsiLatest >= g.rsiOverbought:
				rsiScore = -1
				reasons = append(reasons, fmt.Sprintf("RSI overbought (%.2f)", rsiLatest))
			}
		}
		total += rsiScore * g.rsiWeight
	}

	// SMA crossover: score scaled by the relative gap between the lines.
	if g.smaEnabled {
		score, reason := crossoverScore(
			indicator.SMA(closes, g.smaFast),
			indicator.SMA(closes, g.smaSlow),
			fmt.Sprintf("SMA%d/%d", g.smaFast, g.smaSlow),
		)
		if reason != "" {
			reasons = append(reasons, reason)
		}
		total += score * g.smaWeight
	}

	// MACD: signed distance of the MACD line from the signal line.
	macdDiff := 0.0
	if g.macdEnabled {
		line, signal, _ := indicator.MACD(closes, g.macdFast, g.macdSlow, g.macdSignal)
		if len(line) > 0 && len(signal) > 0 {
			curMACD := line[len(line)-1]
			curSignal := signal[len(signal)-1]
			macdDiff = curMACD - curSignal

			var score float64
			if curSignal != 0 {
				score = clamp(macdDiff/math.Abs(curSignal)*2, -1, 1)
			} else if macdDiff > 0 {
				score = 0.5
			} else if macdDiff < 0 {
				score = -0.5
			}
			if score > 0.3 {
				reasons = append(reasons, fmt.Sprintf("MACD above signal (%.4f > %.4f)", curMACD, curSignal))
			} else if score < -0.3 {
				reasons = append(reasons, fmt.Sprintf("MACD below signal (%.4f < %.4f)", curMACD, curSignal))
			}
			total += score * g.macdWeight
		}
	}

	// Bollinger position: band touches only.
	if g.bollEnabled {
		upper, _, lower := indicator.Bollinger(closes, g.bollPeriod, g.bollStdDev)
		if len(upper) > 0 {
			curUpper, curLower := upper[len(upper)-1], lower[len(lower)-1]
			if price <= curLower {
				total += 1 * g.bollWeight
				reasons = append(reasons, fmt.Sprintf("price at lower band (%.4f <= %.4f)", price, curLower))
			} else if price >= curUpper {
				total += -1 * g.bollWeight
				reasons = append(reasons, fmt.Sprintf("price at upper band (%.4f >= %.4f)", price, curUpper))
			}
		}
	}

	// KDJ: both K and D in the oversold/overbought zone.
	if g.kdjEnabled {
		k, d, _ := indicator.KDJ(md.Highs(), md.Lows(), closes, g.kdjPeriod, g.kdjM1, g.kdjM2)
		if len(k) > 0 {
			curK, curD := k[len(k)-1], d[len(d)-1]
			if curK <= 20 && curD <= 20 {
				total += 1 * g.kdjWeight
				reasons = append(reasons, fmt.Sprintf("KDJ oversold (K %.2f, D %.2f)", curK, curD))
			} else if curK >= 80 && curD >= 80 {
				total += -1 * g.kdjWeight
				reasons = append(reasons, fmt.Sprintf("KDJ overbought (K %.2f, D %.2f)", curK, curD))
			}
		}
	}

	if math.Abs(total) < g.emissionThreshold {
		return nil, nil
	}

	side := core.SideBuy
	if total < 0 {
		side = core.SideSell
	}
	confidence := math.Min(math.Abs(total), 1.0)

	// Consistency bonus: one re-score before the signal leaves the
	// generator.
	confidence = math.Min(0.95, confidence+g.consistencyBonus(side, rsiLatest, macdDiff))

	if len(reasons) > 3 {
		reasons = reasons[:3]
	}
	reason := "composite technical signal"
	if len(reasons) > 0 {
		reason = "technical: " + strings.Join(reasons, ", ")
	}

	sig := core.Signal{
		ID:         uuid.NewString(),
		Symbol:     md.Symbol,
		Side:       side,
		Price:      price,
		Confidence: confidence,
		Strength:   g.strength.Tier(confidence),
		Reason:     reason,
		Generator:  g.Name(),
		Timestamp:  latest.CloseTime,
		Volume:     latest.Volume,
	}

	if g.track.isDuplicate(sig) {
		g.logger.Debug("duplicate signal suppressed",
			zap.String("symbol", sig.Symbol),
			zap.String("side", string(sig.Side)),
		)
		return nil, nil
	}

	g.track.accept(sig)
	return []core.Signal{sig}, nil
}

// consistencyBonus rewards candidates whose direction agrees with the
// broader indicator state, +0.05 per agreeing indicator.
func (g *Technical) consistencyBonus(side core.Side, rsi, macdDiff float64) float64 {
	var bonus float64
	if (side == core.SideBuy && rsi < 50) || (side == core.SideSell && rsi > 50) {
		bonus += 0.05
	}
	if (side == core.SideBuy && macdDiff > 0) || (side == core.SideSell && macdDiff < 0) {
		bonus += 0.05
	}
	return bonus
}

// History exposes the generator's bounded signal history.
func (g *Technical) History(symbol string, limit int) []core.Signal {
	return g.track.History(symbol, limit)
}

// ClearHistory drops all per-symbol state.
func (g *Technical) ClearHistory() { g.track.Clear() }

// crossoverScore detects a golden or death cross between two tail-aligned
// moving average series and scales the score by the relative gap. No cross
// means a zero score.
func crossoverScore(fast, slow []float64, label string) (float64, string) {
	if len(fast) < 2 || len(slow) < 2 {
		return 0, ""
	}

	curFast, prevFast := fast[len(fast)-1], fast[len(fast)-2]
	curSlow, prevSlow := slow[len(slow)-1], slow[len(slow)-2]
	if curSlow == 0 {
		return 0, ""
	}

	// Golden cross
	if prevFast <= prevSlow && curFast > curSlow {
		score := clamp((curFast-curSlow)/curSlow*10, 0, 1)
		return score, fmt.Sprintf("%s golden cross (%.4f > %.4f)", label, curFast, curSlow)
	}
	// Death cross
	if prevFast >= prevSlow && curFast < curSlow {
		score := -clamp((curSlow-curFast)/curSlow*10, 0, 1)
		return score, fmt.Sprintf("%s death cross (%.4f < %.4f)", label, curFast, curSlow)
	}
	return 0, ""
}
