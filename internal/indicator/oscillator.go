package indicator

// RSI calculates the Relative Strength Index using Wilder smoothing.
// Values are in [0, 100]; a window with no losses yields exactly 100.
// Returns a slice of length len(prices) - period.
func RSI(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period+1 {
		return []float64{}
	}

	gains := make([]float64, 0, len(prices)-1)
	losses := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains = append(gains, delta)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -delta)
		}
	}

	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	result := make([]float64, 0, len(gains)-period+1)
	result = append(result, rsiValue(avgGain, avgLoss))

	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		result = append(result, rsiValue(avgGain, avgLoss))
	}

	return result
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// KDJ calculates the stochastic K, D and J lines. RSV is the position of
// the close within the period's high/low range; K and D apply simple
// exponential smoothing with factors 1/m1 and 1/m2, seeded at 50.
// All three outputs have length len(closes) - period + 1.
func KDJ(highs, lows, closes []float64, period, m1, m2 int) (k, d, j []float64) {
	n := len(closes)
	if period <= 0 || m1 <= 0 || m2 <= 0 || n < period || len(highs) != n || len(lows) != n {
		return []float64{}, []float64{}, []float64{}
	}

	out := n - period + 1
	k = make([]float64, 0, out)
	d = make([]float64, 0, out)
	j = make([]float64, 0, out)

	prevK, prevD := 50.0, 50.0
	for i := period - 1; i < n; i++ {
		hi, lo := highs[i], lows[i]
		for w := i - period + 1; w < i; w++ {
			if highs[w] > hi {
				hi = highs[w]
			}
			if lows[w] < lo {
				lo = lows[w]
			}
		}

		rsv := 50.0
		if hi != lo {
			rsv = (closes[i] - lo) / (hi - lo) * 100.0
		}

		curK := (prevK*float64(m1-1) + rsv) / float64(m1)
		curD := (prevD*float64(m2-1) + curK) / float64(m2)
		k = append(k, curK)
		d = append(d, curD)
		j = append(j, 3*curK-2*curD)
		prevK, prevD = curK, curD
	}

	return k, d, j
}
