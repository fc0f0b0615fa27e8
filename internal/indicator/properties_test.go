package indicator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicator-dashboard/internal/model"
)

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// randomWalk returns a valid bar series driven by a seeded source.
func randomWalk(seed int64, n int) model.Bars {
	rnd := newRand(seed)
	out := make(model.Bars, n)
	price := 100.0
	for i := range out {
		open := price
		closePx := open * (1 + (rnd.Float64()-0.5)*0.04)
		hi, lo := open, closePx
		if lo > hi {
			hi, lo = lo, hi
		}
		out[i] = model.Bar{
			Timestamp: int64(i+1) * 3_600_000,
			Open:      open,
			High:      hi * (1 + rnd.Float64()*0.02),
			Low:       lo * (1 - rnd.Float64()*0.02),
			Close:     closePx,
			Volume:    rnd.Float64()*1e6 + 5e5,
		}
		price = closePx
	}
	return out
}

func TestProperty_SMAMatchesTrailingMean(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		closes := randomWalk(seed, 120).Closes()
		for _, p := range []int{1, 5, 20, 50} {
			sma := SMA(closes, p)
			for i := range closes {
				if i < p-1 {
					assert.False(t, Defined(sma[i]))
					continue
				}
				var sum float64
				for _, c := range closes[i-p+1 : i+1] {
					sum += c
				}
				assertClose(t, "sma", sma[i], sum/float64(p), 1e-9)
			}
		}
	}
}

func TestProperty_EMARecurrence(t *testing.T) {
	closes := randomWalk(7, 100).Closes()
	ema := EMA(closes, 20)
	alpha := 2.0 / 21.0
	assert.Equal(t, closes[0], ema[0])
	for i := 1; i < len(closes); i++ {
		require.True(t, Defined(ema[i]))
		assertClose(t, "ema", ema[i], alpha*closes[i]+(1-alpha)*ema[i-1], 1e-9)
	}
}

func TestProperty_RSIBounded(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		for _, v := range RSI(randomWalk(seed, 200).Closes(), 14) {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestProperty_BollingerOrdering(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		for _, b := range BollingerBands(randomWalk(seed, 100).Closes(), 20, 2) {
			if !b.Middle.Defined() {
				continue
			}
			assert.GreaterOrEqual(t, float64(b.Upper), float64(b.Middle))
			assert.GreaterOrEqual(t, float64(b.Middle), float64(b.Lower))
		}
	}
}

func TestProperty_OBVMonotonic(t *testing.T) {
	up := rising(10, 50)
	down := make([]float64, 50)
	for i := range down {
		down[i] = 60 - float64(i/3)
	}
	vols := randomWalk(3, 50).Volumes()

	obvUp := OBV(up, vols)
	obvDown := OBV(down, vols)
	for i := 1; i < 50; i++ {
		assert.GreaterOrEqual(t, obvUp[i], obvUp[i-1])
		assert.LessOrEqual(t, obvDown[i], obvDown[i-1])
	}
}

func TestProperty_PivotOrdering(t *testing.T) {
	bars := randomWalk(11, 50)
	for _, b := range bars {
		if b.High <= b.Low {
			continue
		}
		p := Pivots(b.High, b.Low, b.Close)
		assert.Greater(t, p.R1, p.Pivot)
		assert.Greater(t, p.Pivot, p.S1)
		assert.GreaterOrEqual(t, p.R2, p.R1)
		assert.LessOrEqual(t, p.S2, p.S1)
	}
}

func TestProperty_SeriesAlignedWithInput(t *testing.T) {
	bars := randomWalk(5, 37)
	c, h, l, v := bars.Closes(), bars.Highs(), bars.Lows(), bars.Volumes()
	for name, n := range map[string]int{
		"sma":       len(SMA(c, 20)),
		"ema":       len(EMA(c, 20)),
		"rsi":       len(RSI(c, 14)),
		"roc":       len(ROC(c, 12)),
		"williamsR": len(WilliamsR(h, l, c, 14)),
		"obv":       len(OBV(c, v)),
		"cmf":       len(CMF(h, l, c, v, 20)),
		"vwap":      len(VWAP(h, l, c, v)),
		"atr":       len(ATR(h, l, c, 14)),
		"bollinger": len(BollingerBands(c, 20, 2)),
		"donchian":  len(Donchian(h, l, 20).Upper),
	} {
		assert.Equal(t, len(bars), n, name)
	}
}
