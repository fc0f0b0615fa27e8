package indicator

// ROC is the percentage rate of change against the close period bars back.
// Indices below period report 0.
func ROC(closes []float64, period int) Values {
	out := make(Values, len(closes))
	for i := range closes {
		if i < period || period <= 0 {
			continue
		}
		prev := closes[i-period]
		if prev == 0 {
			continue
		}
		out[i] = (closes[i] - prev) / prev * 100
	}
	return out
}

// WilliamsR is ((highestHigh - close) / (highestHigh - lowestLow)) * -100 over
// the trailing window. Indices below period-1, and flat windows, report -50.
func WilliamsR(highs, lows, closes []float64, period int) Values {
	out := make(Values, len(closes))
	for i := range closes {
		if i < period-1 || period <= 0 {
			out[i] = -50
			continue
		}
		_, hh := minMax(highs[i-period+1 : i+1])
		ll, _ := minMax(lows[i-period+1 : i+1])
		if hh == ll {
			out[i] = -50
			continue
		}
		out[i] = (hh - closes[i]) / (hh - ll) * -100
	}
	return out
}
