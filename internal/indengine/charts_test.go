package indengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicator-dashboard/internal/indicator"
	"indicator-dashboard/internal/model"
)

// risingBars returns n daily bars closing at 1..n with open == close.
func risingBars(n int) model.Bars {
	bars := make(model.Bars, n)
	for i := range bars {
		c := float64(i + 1)
		bars[i] = model.Bar{
			Timestamp: int64(i) * 86_400_000,
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    10,
		}
	}
	return bars
}

func TestBuildChartOverlays(t *testing.T) {
	cd := BuildChart("bitcoin", model.Timeframe24h, risingBars(25))

	assert.Equal(t, "bitcoin", cd.Symbol)
	assert.Equal(t, "24h", cd.Timeframe)
	assert.Len(t, cd.Data, 25)

	// SMA20 is defined from index 19 on; undefined entries are dropped.
	require.Len(t, cd.Indicators.SMA20, 6)
	assert.InDelta(t, 10.5, cd.Indicators.SMA20[0], 1e-9)
	assert.InDelta(t, 15.5, cd.Indicators.SMA20[5], 1e-9)

	// 24h covers 30 days, so SMA50 uses a 30-bar period and never warms up here.
	assert.Empty(t, cd.Indicators.SMA50)

	require.Len(t, cd.Indicators.RSI, 10)
	for _, v := range cd.Indicators.RSI {
		assert.Equal(t, 100.0, v)
	}

	require.Len(t, cd.Indicators.Bollinger.Upper, 6)
	assert.InDelta(t, 10.71, cd.Indicators.Bollinger.Upper[0], 1e-9)
	assert.InDelta(t, 10.29, cd.Indicators.Bollinger.Lower[0], 1e-9)
}

func TestBuildChartSMA50CappedByDays(t *testing.T) {
	// 1h covers 7 days, so the slow average is a 7-bar SMA.
	cd := BuildChart("bitcoin", model.Timeframe1h, risingBars(10))
	require.Len(t, cd.Indicators.SMA50, 4)
	assert.InDelta(t, 4.0, cd.Indicators.SMA50[0], 1e-9)
}

func TestBuildChartMarketData(t *testing.T) {
	md := BuildChart("bitcoin", model.Timeframe24h, risingBars(25)).MarketData

	assert.Equal(t, 250.0, md.Volume24h)
	assert.Equal(t, 26.0, md.High24h)
	assert.Equal(t, 0.0, md.Low24h)
	assert.InDelta(t, 2400.0, md.Change24h, 1e-9)
}

func TestChartsNeverFallsBack(t *testing.T) {
	l := &fakeLoader{}
	svc, _ := newTestService(l)

	cd, err := svc.Charts(context.Background(), "", model.Timeframe7d)
	require.NoError(t, err)
	assert.Equal(t, DefaultSymbol, cd.Symbol)
	assert.False(t, l.lastCall(t).fallback)
}

func TestChartsNoData(t *testing.T) {
	svc, _ := newTestService(&fakeLoader{empty: true})
	_, err := svc.Charts(context.Background(), "bitcoin", model.Timeframe24h)
	assert.ErrorIs(t, err, indicator.ErrNoData)
}
