package indicator

// Channel is an upper/lower envelope.
type Channel struct {
	Upper Values `json:"upper"`
	Lower Values `json:"lower"`
}

// Donchian is the rolling max high / min low over bars [i-lookback, i].
// Early indices use whatever history exists.
func Donchian(highs, lows []float64, lookback int) Channel {
	ch := Channel{Upper: make(Values, len(highs)), Lower: make(Values, len(lows))}
	for i := range highs {
		s := windowStart(i, lookback+1)
		_, ch.Upper[i] = minMax(highs[s : i+1])
		ch.Lower[i], _ = minMax(lows[s : i+1])
	}
	return ch
}
