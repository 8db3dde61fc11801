package indicator

import "math"

// Bollinger calculates Bollinger Bands: the middle band is SMA(period),
// the upper and lower bands sit k sample standard deviations away.
// All three outputs have length len(prices) - period + 1.
func Bollinger(prices []float64, period int, k float64) (upper, middle, lower []float64) {
	if period <= 1 || len(prices) < period {
		return []float64{}, []float64{}, []float64{}
	}

	middle = SMA(prices, period)
	upper = make([]float64, len(middle))
	lower = make([]float64, len(middle))

	for i := range middle {
		std := stddev(prices[i : i+period])
		upper[i] = middle[i] + k*std
		lower[i] = middle[i] - k*std
	}

	return upper, middle, lower
}

// stddev returns the sample standard deviation of values.
func stddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}
