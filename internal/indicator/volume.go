package indicator

// OBV is on-balance volume: a running sum starting at 0 that adds the bar's
// volume on an up close, subtracts it on a down close, and holds on a flat one.
func OBV(closes, volumes []float64) Values {
	out := make(Values, len(closes))
	obv := 0.0
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			obv += volumes[i]
		case closes[i] < closes[i-1]:
			obv -= volumes[i]
		}
		out[i] = obv
	}
	return out
}

// CMF is Chaikin money flow: the volume-weighted money flow multiplier over a
// trailing window divided by the window's volume. Indices below period-1 report 0.
// A bar with high == low contributes a multiplier of 0.
func CMF(highs, lows, closes, volumes []float64, period int) Values {
	out := make(Values, len(closes))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(closes); i++ {
		var flow, vol float64
		for j := i - period + 1; j <= i; j++ {
			vol += volumes[j]
			rng := highs[j] - lows[j]
			if rng == 0 {
				continue
			}
			mfm := ((closes[j] - lows[j]) - (highs[j] - closes[j])) / rng
			flow += mfm * volumes[j]
		}
		if vol == 0 {
			continue
		}
		out[i] = flow / vol
	}
	return out
}

// VWAP is cumulative typical price × volume over cumulative volume, anchored
// at the series start. Entries stay undefined until some volume has traded.
func VWAP(highs, lows, closes, volumes []float64) Values {
	out := newValues(len(closes))
	var tpv, vol float64
	for i := range closes {
		tp := (highs[i] + lows[i] + closes[i]) / 3
		tpv += tp * volumes[i]
		vol += volumes[i]
		if vol > 0 {
			out[i] = tpv / vol
		}
	}
	return out
}

// VolumeDirections flags each bar as up (close >= previous close) for chart
// colouring. The first bar counts as up.
func VolumeDirections(closes []float64) []bool {
	out := make([]bool, len(closes))
	for i := range closes {
		out[i] = i == 0 || closes[i] >= closes[i-1]
	}
	return out
}
