package indicator

// MACD calculates the Moving Average Convergence Divergence.
// The MACD line is EMA(fast) - EMA(slow), index-aligned to the slow EMA
// (the fast EMA's earlier values are discarded). The signal line is an EMA
// of the MACD line; the histogram is the MACD line minus the signal line,
// tail-aligned to the signal line.
func MACD(prices []float64, fastPeriod, slowPeriod, signalPeriod int) (line, signal, histogram []float64) {
	if fastPeriod <= 0 || slowPeriod <= 0 || signalPeriod <= 0 ||
		fastPeriod >= slowPeriod || len(prices) < slowPeriod {
		return []float64{}, []float64{}, []float64{}
	}

	fastEMA := EMA(prices, fastPeriod)
	slowEMA := EMA(prices, slowPeriod)

	// The fast EMA starts earlier; drop its head so both align on the
	// slow-period boundary.
	offset := slowPeriod - fastPeriod
	fastEMA = fastEMA[offset:]

	line = make([]float64, len(slowEMA))
	for i := range slowEMA {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	signal = EMA(line, signalPeriod)

	histogram = make([]float64, len(signal))
	hstart := len(line) - len(signal)
	for i := range signal {
		histogram[i] = line[hstart+i] - signal[i]
	}

	return line, signal, histogram
}
