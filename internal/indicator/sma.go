// Package indicator provides pure, stateless technical indicator functions
// over numeric series. All windowed outputs are tail-aligned to the input:
// the result has length len(series)-period+1 and callers must index from
// the end when comparing against the original series. Inputs shorter than
// the period yield an empty slice, never an error.
package indicator

// SMA calculates the Simple Moving Average.
// Returns a slice of length len(prices) - period + 1.
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result = append(result, sum/float64(period))

	// Rolling calculation
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result = append(result, sum/float64(period))
	}

	return result
}

// EMA calculates the Exponential Moving Average. The first value is seeded
// with the SMA of the first period prices; subsequent values use the
// smoothing factor 2/(period+1).
func EMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)
	multiplier := 2.0 / float64(period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	ema := sum / float64(period)
	result = append(result, ema)

	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		result = append(result, ema)
	}

	return result
}
