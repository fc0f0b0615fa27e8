// Package indicator computes technical indicators over an OHLCV series.
//
// Every function here is a pure transformation of plain numeric slices into
// Values aligned by index with the input. Nothing is cached or streamed; the
// Aggregator (Compute) recomputes every family from scratch per call.
// The only non-deterministic readings live behind the Simulator interface.
package indicator

// Config holds the periods and windows used by Compute.
type Config struct {
	Window int // trailing bars kept in the response

	SMAPeriods [4]int // sma20, sma50, sma100, sma200
	EMAPeriods [4]int // ema20, ema50, ema100, ema200

	MACDFast   int
	MACDSlow   int
	MACDSignal int
	ChikouLag  int

	RSIPeriod       int
	StochRSIPeriod  int
	ROCPeriod       int
	WilliamsRPeriod int

	CMFPeriod int

	BollingerPeriod int
	BollingerStdDev float64
	ATRPeriod       int
	DonchianWindow  int
	ADXPeriod       int

	SupportWindow   int
	FibonacciWindow int
}

// DefaultConfig returns the dashboard's standard parameter set.
func DefaultConfig() Config {
	return Config{
		Window:          50,
		SMAPeriods:      [4]int{20, 50, 100, 200},
		EMAPeriods:      [4]int{20, 50, 100, 200},
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		ChikouLag:       26,
		RSIPeriod:       14,
		StochRSIPeriod:  14,
		ROCPeriod:       12,
		WilliamsRPeriod: 14,
		CMFPeriod:       20,
		BollingerPeriod: 20,
		BollingerStdDev: 2,
		ATRPeriod:       14,
		DonchianWindow:  20,
		ADXPeriod:       14,
		SupportWindow:   20,
		FibonacciWindow: 50,
	}
}

// windowStart returns the first index of the trailing window of size n ending at i.
func windowStart(i, n int) int {
	s := i - n + 1
	if s < 0 {
		return 0
	}
	return s
}
