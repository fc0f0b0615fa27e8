package indicator

// FibonacciRatios are the retracement ratios reported alongside the range.
var FibonacciRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1.0}

// SupportResistance is the low/high envelope of the trailing window.
type SupportResistance struct {
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
}

// FibonacciLevels is a price range and the ratios to project onto it.
type FibonacciLevels struct {
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Levels []float64 `json:"levels"`
}

// Price returns the absolute price for a ratio: high - ratio*(high-low).
func (f FibonacciLevels) Price(ratio float64) float64 {
	return f.High - ratio*(f.High-f.Low)
}

// PivotPoints are classic floor pivots.
type PivotPoints struct {
	Pivot float64 `json:"pivot"`
	R1    float64 `json:"r1"`
	R2    float64 `json:"r2"`
	S1    float64 `json:"s1"`
	S2    float64 `json:"s2"`
}

// SupportResistanceLevels returns min(low) and max(high) over the last window bars.
// An empty input yields the zero value.
func SupportResistanceLevels(highs, lows []float64, window int) SupportResistance {
	if len(highs) == 0 {
		return SupportResistance{}
	}
	s := windowStart(len(highs)-1, window)
	_, hi := minMax(highs[s:])
	lo, _ := minMax(lows[s:])
	return SupportResistance{Support: lo, Resistance: hi}
}

// Fibonacci returns the high/low range of the last window bars with FibonacciRatios.
func Fibonacci(highs, lows []float64, window int) FibonacciLevels {
	levels := append([]float64(nil), FibonacciRatios...)
	if len(highs) == 0 {
		return FibonacciLevels{Levels: levels}
	}
	s := windowStart(len(highs)-1, window)
	_, hi := minMax(highs[s:])
	lo, _ := minMax(lows[s:])
	return FibonacciLevels{High: hi, Low: lo, Levels: levels}
}

// Pivots computes classic pivot points from a reference bar's high, low and close.
func Pivots(high, low, close float64) PivotPoints {
	p := (high + low + close) / 3
	rng := high - low
	return PivotPoints{
		Pivot: p,
		R1:    2*p - low,
		R2:    p + rng,
		S1:    2*p - high,
		S2:    p - rng,
	}
}
