package indicator

import (
	"github.com/pkg/errors"

	"indicator-dashboard/internal/model"
)

// ErrNoData is returned when Compute is given an empty series.
var ErrNoData = errors.New("no data available")

// SMASet holds the simple moving averages reported by the dashboard.
type SMASet struct {
	SMA20  Values `json:"sma20"`
	SMA50  Values `json:"sma50"`
	SMA100 Values `json:"sma100"`
	SMA200 Values `json:"sma200"`
}

// EMASet holds the exponential moving averages reported by the dashboard.
type EMASet struct {
	EMA20  Values `json:"ema20"`
	EMA50  Values `json:"ema50"`
	EMA100 Values `json:"ema100"`
	EMA200 Values `json:"ema200"`
}

// Indicators is the fixed set of indicator families, one field per family.
type Indicators struct {
	// Trend
	SMA      SMASet        `json:"sma"`
	EMA      EMASet        `json:"ema"`
	MACD     MACDLines     `json:"macd"`
	Ichimoku IchimokuLines `json:"ichimoku"`
	ADX      Values        `json:"adx"`

	// Momentum
	RSI       Values `json:"rsi"`
	StochRSI  Values `json:"stochRSI"`
	ROC       Values `json:"roc"`
	WilliamsR Values `json:"williamsR"`

	// Volume
	Volume   Values `json:"volume"`
	VolumeUp []bool `json:"volumeUp"`
	OBV      Values `json:"obv"`
	CMF      Values `json:"cmf"`
	VWAP     Values `json:"vwap"`

	// Volatility
	BollingerBands   []Band  `json:"bollingerBands"`
	ATR              Values  `json:"atr"`
	DonchianChannels Channel `json:"donchianChannels"`

	// Simulated sentiment
	FearGreedIndex int     `json:"fearGreedIndex"`
	FundingRate    float64 `json:"fundingRate"`

	// Structure
	SupportResistance SupportResistance `json:"supportResistance"`
	Fibonacci         FibonacciLevels   `json:"fibonacci"`
	PivotPoints       *PivotPoints      `json:"pivotPoints"`
}

// Current is the latest scalar reading per headline indicator.
type Current struct {
	Price       Scalar  `json:"price"`
	RSI         Scalar  `json:"rsi"`
	ADX         Scalar  `json:"adx"`
	ATR         Scalar  `json:"atr"`
	FearGreed   int     `json:"fearGreed"`
	FundingRate float64 `json:"fundingRate"`
}

// Bundle is the full indicator response for one symbol and timeframe.
type Bundle struct {
	Symbol     string     `json:"symbol"`
	Timeframe  string     `json:"timeframe"`
	Data       model.Bars `json:"data"`
	Indicators Indicators `json:"indicators"`
	Current    Current    `json:"current"`
}

// Compute ingests bars and returns every indicator family, each truncated to
// the last cfg.Window entries. An empty series returns ErrNoData without
// running any indicator. A panic inside an indicator is returned as an error.
func Compute(bars model.Bars, cfg Config, sim Simulator) (b *Bundle, err error) {
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, errors.Errorf("indicator computation fault: %v", r)
		}
	}()

	closes, highs, lows, volumes := bars.Closes(), bars.Highs(), bars.Lows(), bars.Volumes()
	n, w := len(bars), cfg.Window

	sma := [4]Values{}
	for i, p := range cfg.SMAPeriods {
		sma[i] = SMA(closes, p)
	}
	ema := [4]Values{}
	for i, p := range cfg.EMAPeriods {
		ema[i] = EMA(closes, p)
	}
	macd := MACD(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	ichi := Ichimoku(closes, sma[0], sma[1], sma[2], cfg.ChikouLag)

	rsi := RSI(closes, cfg.RSIPeriod)
	atr := ATR(highs, lows, closes, cfg.ATRPeriod)
	adx := sim.ADX(n, cfg.ADXPeriod)
	mood := sim.Sentiment()

	donchian := Donchian(highs, lows, cfg.DonchianWindow)

	var pivots *PivotPoints
	if n >= 2 {
		ref := bars[n-2]
		p := Pivots(ref.High, ref.Low, ref.Close)
		pivots = &p
	}

	ind := Indicators{
		SMA: SMASet{SMA20: sma[0].Tail(w), SMA50: sma[1].Tail(w), SMA100: sma[2].Tail(w), SMA200: sma[3].Tail(w)},
		EMA: EMASet{EMA20: ema[0].Tail(w), EMA50: ema[1].Tail(w), EMA100: ema[2].Tail(w), EMA200: ema[3].Tail(w)},
		MACD: MACDLines{
			MACDLine:   macd.MACDLine.Tail(w),
			SignalLine: macd.SignalLine.Tail(w),
			Histogram:  macd.Histogram.Tail(w),
		},
		Ichimoku: IchimokuLines{
			TenkanSen:   ichi.TenkanSen.Tail(w),
			KijunSen:    ichi.KijunSen.Tail(w),
			SenkouSpanA: ichi.SenkouSpanA.Tail(w),
			SenkouSpanB: ichi.SenkouSpanB.Tail(w),
			ChikouSpan:  ichi.ChikouSpan.Tail(w),
		},
		ADX: adx.Tail(w),

		RSI:       rsi.Tail(w),
		StochRSI:  StochRSI(rsi, cfg.StochRSIPeriod).Tail(w),
		ROC:       ROC(closes, cfg.ROCPeriod).Tail(w),
		WilliamsR: WilliamsR(highs, lows, closes, cfg.WilliamsRPeriod).Tail(w),

		Volume:   Values(volumes).Tail(w),
		VolumeUp: tailBools(VolumeDirections(closes), w),
		OBV:      OBV(closes, volumes).Tail(w),
		CMF:      CMF(highs, lows, closes, volumes, cfg.CMFPeriod).Tail(w),
		VWAP:     VWAP(highs, lows, closes, volumes).Tail(w),

		BollingerBands:   TailBands(BollingerBands(closes, cfg.BollingerPeriod, cfg.BollingerStdDev), w),
		ATR:              atr.Tail(w),
		DonchianChannels: Channel{Upper: donchian.Upper.Tail(w), Lower: donchian.Lower.Tail(w)},

		FearGreedIndex: mood.FearGreedIndex,
		FundingRate:    mood.FundingRate,

		SupportResistance: SupportResistanceLevels(highs, lows, cfg.SupportWindow),
		Fibonacci:         Fibonacci(highs, lows, cfg.FibonacciWindow),
		PivotPoints:       pivots,
	}

	return &Bundle{
		Data:       bars.Tail(w),
		Indicators: ind,
		Current: Current{
			Price:       Scalar(closes[n-1]),
			RSI:         Scalar(rsi.Last()),
			ADX:         Scalar(adx.Last()),
			ATR:         Scalar(atr.Last()),
			FearGreed:   mood.FearGreedIndex,
			FundingRate: mood.FundingRate,
		},
	}, nil
}

func tailBools(xs []bool, n int) []bool {
	if n < 0 {
		n = 0
	}
	if n >= len(xs) {
		return xs
	}
	return xs[len(xs)-n:]
}
