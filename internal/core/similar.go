package core

import "math"

// Similar reports whether two signals are near-duplicates: same symbol and
// side, price within priceTol relative difference, and confidence within
// confTol absolute difference.
func Similar(a, b Signal, priceTol, confTol float64) bool {
	if a.Symbol != b.Symbol || a.Side != b.Side {
		return false
	}
	if b.Price == 0 {
		return false
	}
	if math.Abs(a.Price-b.Price)/b.Price > priceTol {
		return false
	}
	return math.Abs(a.Confidence-b.Confidence) <= confTol
}
