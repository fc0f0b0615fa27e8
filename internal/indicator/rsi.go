package indicator

// neutralRSI is reported before enough deltas exist.
const neutralRSI = 50.0

// RSI computes the relative strength index with a simple trailing mean of
// gains and losses (not Wilder smoothing). The first delta is 0 and indices
// below period report 50. avgLoss == 0 yields 100.
func RSI(closes []float64, period int) Values {
	out := make(Values, len(closes))
	deltas := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		deltas[i] = closes[i] - closes[i-1]
	}

	for i := range closes {
		if i < period || period <= 0 {
			out[i] = neutralRSI
			continue
		}
		var gain, loss float64
		for _, d := range deltas[i-period+1 : i+1] {
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		avgGain := gain / float64(period)
		avgLoss := loss / float64(period)
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// StochRSI rescales an RSI series to its trailing min/max range in [0,100].
// Indices below period report 50; a flat window reports 0.
func StochRSI(rsi Values, period int) Values {
	out := make(Values, len(rsi))
	for i := range rsi {
		if i < period || period <= 0 {
			out[i] = neutralRSI
			continue
		}
		lo, hi := minMax(rsi[i-period+1 : i+1])
		if hi == lo {
			out[i] = 0
			continue
		}
		out[i] = (rsi[i] - lo) / (hi - lo) * 100
	}
	return out
}

func minMax(xs []float64) (lo, hi float64) {
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}
