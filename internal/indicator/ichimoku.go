package indicator

// IchimokuLines is a simplified Ichimoku cloud built from simple moving averages.
type IchimokuLines struct {
	TenkanSen   Values `json:"tenkanSen"`
	KijunSen    Values `json:"kijunSen"`
	SenkouSpanA Values `json:"senkouSpanA"`
	SenkouSpanB Values `json:"senkouSpanB"`
	ChikouSpan  Values `json:"chikouSpan"`
}

// Ichimoku derives the cloud from precomputed tenkan (SMA20), kijun (SMA50)
// and span B (SMA100) series. Chikou at index i is the close lag bars earlier.
func Ichimoku(closes []float64, tenkan, kijun, spanB Values, lag int) IchimokuLines {
	spanA := newValues(len(closes))
	for i := range spanA {
		if i < len(tenkan) && i < len(kijun) && Defined(tenkan[i]) && Defined(kijun[i]) {
			spanA[i] = (tenkan[i] + kijun[i]) / 2
		}
	}
	return IchimokuLines{
		TenkanSen:   tenkan,
		KijunSen:    kijun,
		SenkouSpanA: spanA,
		SenkouSpanB: spanB,
		ChikouSpan:  Shift(closes, lag),
	}
}

// Shift returns xs delayed by lag: out[i] = xs[i-lag], undefined for i < lag.
func Shift(xs []float64, lag int) Values {
	out := newValues(len(xs))
	if lag < 0 {
		lag = 0
	}
	for i := lag; i < len(xs); i++ {
		out[i] = xs[i-lag]
	}
	return out
}
