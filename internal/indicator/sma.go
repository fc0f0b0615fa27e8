package indicator

// SMA is the simple moving average of xs over a trailing window of period.
// Entries before index period-1 are undefined.
func SMA(xs []float64, period int) Values {
	out := newValues(len(xs))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(xs); i++ {
		sum := 0.0
		for _, x := range xs[i-period+1 : i+1] {
			sum += x
		}
		out[i] = sum / float64(period)
	}
	return out
}
