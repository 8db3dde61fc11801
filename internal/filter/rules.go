package filter

import (
	"fmt"

	"github.com/westquant/pulse/internal/core"
	"github.com/westquant/pulse/internal/indicator"
)

// Duplicate tolerances: price within 1% relative, confidence within 0.1
// absolute.
const (
	dupPriceTolerance = 0.01
	dupConfTolerance  = 0.1
)

// Fewer closes than this and the volatility rule fails open.
const minVolatilityCloses = 10

// defaultRules builds the chain. Priorities are fixed so that cheap checks
// run before the ones that walk history or market data.
func (f *Filter) defaultRules() []Rule {
	return []Rule{
		{
			Name:        "confidence",
			Priority:    1,
			Enabled:     true,
			Description: fmt.Sprintf("confidence at or above %.2f", f.cfg.MinConfidence),
			Check:       f.checkConfidence,
		},
		{
			Name:        "cooldown",
			Priority:    2,
			Enabled:     true,
			Description: fmt.Sprintf("no accepted signal for the symbol within %s", f.cfg.Cooldown),
			Check:       f.checkCooldown,
		},
		{
			Name:        "volume",
			Priority:    3,
			Enabled:     true,
			Description: fmt.Sprintf("bar volume at or above %.0f", f.cfg.MinVolume),
			Check:       f.checkVolume,
		},
		{
			Name:        "price",
			Priority:    4,
			Enabled:     true,
			Description: fmt.Sprintf("price at or above %.2f", f.cfg.MinPrice),
			Check:       f.checkPrice,
		},
		{
			Name:        "volatility",
			Priority:    5,
			Enabled:     true,
			Description: fmt.Sprintf("realized volatility below %.2f", f.cfg.VolatilityThreshold),
			Check:       f.checkVolatility,
		},
		{
			Name:        "blacklist",
			Priority:    6,
			Enabled:     true,
			Description: "symbol not on the blacklist",
			Check:       f.checkBlacklist,
		},
		{
			Name:        "duplicate",
			Priority:    7,
			Enabled:     true,
			Description: fmt.Sprintf("no near-identical accepted signal within %s", f.cfg.DuplicateWindow),
			Check:       f.checkDuplicate,
		},
		{
			Name:        "daily_limit",
			Priority:    8,
			Enabled:     true,
			Description: fmt.Sprintf("at most %d accepted signals per day", f.cfg.MaxDailySignals),
			Check:       f.checkDailyLimit,
		},
	}
}

func (f *Filter) checkConfidence(sig core.Signal, _ *Context) error {
	if sig.Confidence < f.cfg.MinConfidence {
		return fmt.Errorf("confidence %.3f below %.3f", sig.Confidence, f.cfg.MinConfidence)
	}
	return nil
}

func (f *Filter) checkCooldown(sig core.Signal, ctx *Context) error {
	last, ok := ctx.LastAccepted[sig.Symbol]
	if !ok {
		return nil
	}
	if elapsed := ctx.Now.Sub(last); elapsed < f.cfg.Cooldown {
		return fmt.Errorf("symbol in cooldown, %s of %s elapsed", elapsed, f.cfg.Cooldown)
	}
	return nil
}

// checkVolume reads the latest bar's volume for the signal's symbol.
// Missing or empty market data fails open.
func (f *Filter) checkVolume(sig core.Signal, ctx *Context) error {
	md, ok := ctx.Market[sig.Symbol]
	if !ok {
		return nil
	}
	latest, ok := md.Latest()
	if !ok {
		return nil
	}
	if latest.Volume < f.cfg.MinVolume {
		return fmt.Errorf("bar volume %.2f below %.2f", latest.Volume, f.cfg.MinVolume)
	}
	return nil
}

func (f *Filter) checkPrice(sig core.Signal, _ *Context) error {
	if sig.Price < f.cfg.MinPrice {
		return fmt.Errorf("price %.6f below %.6f", sig.Price, f.cfg.MinPrice)
	}
	return nil
}

// checkVolatility measures realized volatility over the recent closes of
// the signal's symbol. Missing or thin market data fails open.
func (f *Filter) checkVolatility(sig core.Signal, ctx *Context) error {
	md, ok := ctx.Market[sig.Symbol]
	if !ok {
		return nil
	}
	closes := md.Closes()
	if len(closes) > f.cfg.VolatilityWindow {
		closes = closes[len(closes)-f.cfg.VolatilityWindow:]
	}
	if len(closes) < minVolatilityCloses {
		return nil
	}

	vol := indicator.Volatility(closes, len(closes)-1)
	if len(vol) == 0 {
		return nil
	}
	if v := vol[len(vol)-1]; v > f.cfg.VolatilityThreshold {
		return fmt.Errorf("realized volatility %.4f above %.4f", v, f.cfg.VolatilityThreshold)
	}
	return nil
}

func (f *Filter) checkBlacklist(sig core.Signal, _ *Context) error {
	if _, ok := f.blacklist[sig.Symbol]; ok {
		return fmt.Errorf("symbol %s is blacklisted", sig.Symbol)
	}
	return nil
}

// checkDuplicate compares the candidate against the most recent accepted
// signals inside the duplicate window.
func (f *Filter) checkDuplicate(sig core.Signal, ctx *Context) error {
	start := len(ctx.History) - f.cfg.DuplicateDepth
	if start < 0 {
		start = 0
	}
	for _, prev := range ctx.History[start:] {
		if ctx.Now.Sub(prev.At) > f.cfg.DuplicateWindow {
			continue
		}
		if core.Similar(sig, prev.Signal, dupPriceTolerance, dupConfTolerance) {
			return fmt.Errorf("near-duplicate of signal %s", prev.Signal.ID)
		}
	}
	return nil
}

func (f *Filter) checkDailyLimit(_ core.Signal, ctx *Context) error {
	if f.cfg.MaxDailySignals > 0 && ctx.DailyCount >= f.cfg.MaxDailySignals {
		return fmt.Errorf("daily limit of %d reached", f.cfg.MaxDailySignals)
	}
	return nil
}
