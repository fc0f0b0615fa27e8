package indicator

import "math"

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|); the first bar
// has no previous close and uses high-low.
func TrueRange(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		hl := highs[i] - lows[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		prev := closes[i-1]
		out[i] = math.Max(hl, math.Max(math.Abs(highs[i]-prev), math.Abs(lows[i]-prev)))
	}
	return out
}

// ATR is the simple moving average of the true range.
func ATR(highs, lows, closes []float64, period int) Values {
	return SMA(TrueRange(highs, lows, closes), period)
}
