package indicator

// EMA is the exponential moving average of xs, seeded with xs[0] and defined
// at every index: EMA[i] = xs[i]*k + EMA[i-1]*(1-k), k = 2/(period+1).
func EMA(xs []float64, period int) Values {
	out := make(Values, len(xs))
	if len(xs) == 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i]*k + out[i-1]*(1-k)
	}
	return out
}

// MACDLines holds the three MACD series.
type MACDLines struct {
	MACDLine   Values `json:"macdLine"`
	SignalLine Values `json:"signalLine"`
	Histogram  Values `json:"histogram"`
}

// MACD computes EMA(fast)-EMA(slow), its EMA(signal) and the histogram.
func MACD(closes []float64, fast, slow, signal int) MACDLines {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	line := make(Values, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig := EMA(line, signal)

	hist := make(Values, len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}
	return MACDLines{MACDLine: line, SignalLine: sig, Histogram: hist}
}
