package core

import (
	"fmt"
	"math"
)

// Validate checks the structural invariants of a bar.
func (b Bar) Validate() error {
	if b.Symbol == "" {
		return WrapError(ErrValidation, fmt.Errorf("bar has no symbol"))
	}
	if !b.CloseTime.After(b.OpenTime) {
		return WrapError(ErrValidation, fmt.Errorf("close_time %v not after open_time %v", b.CloseTime, b.OpenTime))
	}
	if b.High < math.Max(b.Open, b.Close) {
		return WrapError(ErrValidation, fmt.Errorf("high %.8f below max(open, close)", b.High))
	}
	if b.Low > math.Min(b.Open, b.Close) {
		return WrapError(ErrValidation, fmt.Errorf("low %.8f above min(open, close)", b.Low))
	}
	if b.Volume < 0 {
		return WrapError(ErrValidation, fmt.Errorf("negative volume %.4f", b.Volume))
	}
	return nil
}

// Validate checks the structural invariants of a signal: enum membership,
// price and confidence ranges, and stop/take ordering consistent with the
// side. It never inspects market state.
func (s Signal) Validate() error {
	if s.Symbol == "" {
		return WrapError(ErrValidation, fmt.Errorf("signal has no symbol"))
	}
	if s.Side != SideBuy && s.Side != SideSell {
		return WrapError(ErrValidation, fmt.Errorf("unknown side %q", s.Side))
	}
	switch s.Strength {
	case StrengthWeak, StrengthModerate, StrengthStrong:
	default:
		return WrapError(ErrValidation, fmt.Errorf("unknown strength %q", s.Strength))
	}
	if !(s.Price > 0) || math.IsNaN(s.Price) || math.IsInf(s.Price, 0) {
		return WrapError(ErrValidation, fmt.Errorf("price %.8f not positive", s.Price))
	}
	if s.Confidence < 0 || s.Confidence > 1 || math.IsNaN(s.Confidence) {
		return WrapError(ErrValidation, fmt.Errorf("confidence %.4f outside [0,1]", s.Confidence))
	}
	if s.Reason == "" {
		return WrapError(ErrValidation, fmt.Errorf("signal has no reason"))
	}
	if err := s.validateExits(); err != nil {
		return err
	}
	return nil
}

// validateExits checks that stop loss and take profit, when set, sit on the
// correct side of the entry price.
func (s Signal) validateExits() error {
	switch s.Side {
	case SideBuy:
		if s.StopLoss != 0 && s.StopLoss >= s.Price {
			return WrapError(ErrValidation, fmt.Errorf("buy stop_loss %.8f at or above price %.8f", s.StopLoss, s.Price))
		}
		if s.TakeProfit != 0 && s.TakeProfit <= s.Price {
			return WrapError(ErrValidation, fmt.Errorf("buy take_profit %.8f at or below price %.8f", s.TakeProfit, s.Price))
		}
	case SideSell:
		if s.StopLoss != 0 && s.StopLoss <= s.Price {
			return WrapError(ErrValidation, fmt.Errorf("sell stop_loss %.8f at or below price %.8f", s.StopLoss, s.Price))
		}
		if s.TakeProfit != 0 && s.TakeProfit >= s.Price {
			return WrapError(ErrValidation, fmt.Errorf("sell take_profit %.8f at or above price %.8f", s.TakeProfit, s.Price))
		}
	}
	return nil
}
