package indicator

import "math"

// tradingDaysPerYear annualizes per-bar volatility for daily bars.
const tradingDaysPerYear = 252

// Volatility calculates the rolling annualized volatility of log returns:
// the sample standard deviation of the last period log returns, scaled by
// sqrt(252). Needs period+1 prices per value; returns a slice of length
// len(prices) - period.
func Volatility(prices []float64, period int) []float64 {
	if period <= 1 || len(prices) < period+1 {
		return []float64{}
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}

	result := make([]float64, 0, len(returns)-period+1)
	for i := period - 1; i < len(returns); i++ {
		vol := stddev(returns[i-period+1:i+1]) * math.Sqrt(tradingDaysPerYear)
		result = append(result, vol)
	}

	return result
}

// SupportResistance detects support and resistance levels as local extrema
// within a symmetric window. A price is a support when no neighbor in the
// window sits more than threshold (relative) below it, and a resistance
// when no neighbor sits more than threshold above it.
func SupportResistance(prices []float64, window int, threshold float64) (supports, resistances []float64) {
	supports = []float64{}
	resistances = []float64{}
	if window <= 0 || len(prices) < window*2 {
		return supports, resistances
	}

	for i := window; i < len(prices)-window; i++ {
		p := prices[i]

		isSupport, isResistance := true, true
		for j := i - window; j <= i+window; j++ {
			if j == i {
				continue
			}
			if prices[j] < p*(1-threshold) {
				isSupport = false
			}
			if prices[j] > p*(1+threshold) {
				isResistance = false
			}
			if !isSupport && !isResistance {
				break
			}
		}

		if isSupport {
			supports = append(supports, p)
		}
		if isResistance {
			resistances = append(resistances, p)
		}
	}

	return supports, resistances
}
