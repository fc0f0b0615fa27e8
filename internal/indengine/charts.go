package indengine

import (
	"context"
	"log/slog"
	"math"

	"indicator-dashboard/internal/indicator"
	"indicator-dashboard/internal/logger"
	"indicator-dashboard/internal/model"
)

// rsiTail is the number of RSI readings in a chart response.
const rsiTail = 10

// ChartIndicators are the compact overlays drawn on the price chart. Entries
// before warm-up are omitted, so these series are shorter than Data.
type ChartIndicators struct {
	SMA20     []float64      `json:"sma20"`
	SMA50     []float64      `json:"sma50"`
	RSI       []float64      `json:"rsi"`
	Bollinger ChartBollinger `json:"bollinger"`
}

// ChartBollinger is a ±2% envelope around SMA20.
type ChartBollinger struct {
	Upper []float64 `json:"upper"`
	Lower []float64 `json:"lower"`
}

// MarketData summarises the whole returned series.
type MarketData struct {
	Volume24h float64 `json:"volume24h"`
	High24h   float64 `json:"high24h"`
	Low24h    float64 `json:"low24h"`
	Change24h float64 `json:"change24h"`
}

// ChartData is the /api/charts response.
type ChartData struct {
	Symbol     string          `json:"symbol"`
	Timeframe  string          `json:"timeframe"`
	Data       model.Bars      `json:"data"`
	Indicators ChartIndicators `json:"indicators"`
	MarketData MarketData      `json:"marketData"`
}

// Charts serves feed data only: when the feed is unreachable it returns
// indicator.ErrNoData instead of synthesising a series.
func (s *Service) Charts(ctx context.Context, symbol string, tf model.Timeframe) (*ChartData, error) {
	symbol = NormalizeSymbol(symbol)
	bars, _ := s.loader.Load(ctx, symbol, tf, s.newRand(), false)
	if len(bars) == 0 {
		slog.Info("no chart data available", append(logger.LogWithTrace(ctx), "symbol", symbol, "timeframe", string(tf))...)
		return nil, indicator.ErrNoData
	}
	return BuildChart(symbol, tf, bars), nil
}

// BuildChart shapes a non-empty series into chart overlays and market stats.
// The SMA50 period is capped at the timeframe's day count.
func BuildChart(symbol string, tf model.Timeframe, bars model.Bars) *ChartData {
	closes := bars.Closes()
	sma20 := indicator.SMA(closes, 20)
	sma50 := indicator.SMA(closes, min(50, tf.Days()))

	upper := make([]float64, 0, len(sma20))
	lower := make([]float64, 0, len(sma20))
	for _, v := range sma20 {
		if indicator.Defined(v) && v != 0 {
			upper = append(upper, v*1.02)
			lower = append(lower, v*0.98)
		}
	}

	return &ChartData{
		Symbol:    symbol,
		Timeframe: string(tf),
		Data:      bars,
		Indicators: ChartIndicators{
			SMA20:     defined(sma20),
			SMA50:     defined(sma50),
			RSI:       indicator.RSI(closes, 14).Tail(rsiTail),
			Bollinger: ChartBollinger{Upper: upper, Lower: lower},
		},
		MarketData: marketData(bars),
	}
}

func marketData(bars model.Bars) MarketData {
	md := MarketData{High24h: math.Inf(-1), Low24h: math.Inf(1)}
	for _, b := range bars {
		md.Volume24h += b.Volume
		md.High24h = math.Max(md.High24h, b.High)
		md.Low24h = math.Min(md.Low24h, b.Low)
	}
	if first := bars[0].Open; first != 0 {
		md.Change24h = (bars[len(bars)-1].Close - first) / first * 100
	}
	return md
}

func defined(v indicator.Values) []float64 {
	out := make([]float64, 0, len(v))
	for _, x := range v {
		if indicator.Defined(x) {
			out = append(out, x)
		}
	}
	return out
}
