package ingest

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"indicator-dashboard/internal/model"
)

// DefaultVolume is used when the feed reports no volume for a bucket.
const DefaultVolume = 1_000_000

// SynthesizeBars turns close-only feed samples into OHLCV bars. Open lands
// within ±1% of close; high and low extend past max/min(open, close) by up to
// another 1%. Samples are sorted, duplicate timestamps keep the latest sample,
// and non-positive prices are dropped.
func SynthesizeBars(points []model.PricePoint, rnd *rand.Rand) model.Bars {
	sorted := make([]model.PricePoint, 0, len(points))
	for _, p := range points {
		if p.Price > 0 && !math.IsNaN(p.Price) && !math.IsInf(p.Price, 0) {
			sorted = append(sorted, p)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	bars := make(model.Bars, 0, len(sorted))
	for _, p := range sorted {
		vol := float64(DefaultVolume)
		if p.HasVolume && p.Volume >= 0 {
			vol = p.Volume
		}

		variance := p.Price * 0.02
		open := p.Price + (rnd.Float64()-0.5)*variance
		high := math.Max(open, p.Price) + rnd.Float64()*variance*0.5
		low := math.Min(open, p.Price) - rnd.Float64()*variance*0.5

		b := model.Bar{Timestamp: p.Timestamp, Open: open, High: high, Low: low, Close: p.Price, Volume: vol}
		if n := len(bars); n > 0 && bars[n-1].Timestamp == p.Timestamp {
			bars[n-1] = b
			continue
		}
		bars = append(bars, b)
	}
	return bars
}

// Generator produces a self-consistent synthetic series when the feed is unreachable.
type Generator struct {
	BasePrices   map[string]float64
	DefaultPrice float64
}

// NewGenerator returns a generator seeded with the dashboard's reference prices.
func NewGenerator() *Generator {
	return &Generator{
		BasePrices: map[string]float64{
			"bitcoin":  43500,
			"ethereum": 2650,
		},
		DefaultPrice: 100,
	}
}

// BasePrice returns the starting price for symbol.
func (g *Generator) BasePrice(symbol string) float64 {
	if p, ok := g.BasePrices[strings.ToLower(symbol)]; ok {
		return p
	}
	return g.DefaultPrice
}

// Generate walks days*barsPerDay+1 bars ending at now, each close within ±2%
// of the previous one.
func (g *Generator) Generate(symbol string, tf model.Timeframe, now time.Time, rnd *rand.Rand) model.Bars {
	gran := tf.Granularity()
	n := tf.Days()*gran.BarsPerDay() + 1
	step := gran.Step()
	start := now.Truncate(step).Add(-time.Duration(n-1) * step)

	bars := make(model.Bars, n)
	price := g.BasePrice(symbol)
	for i := range bars {
		change := (rnd.Float64() - 0.5) * 0.04
		open := price
		closePx := open * (1 + change)
		bars[i] = model.Bar{
			Timestamp: start.Add(time.Duration(i) * step).UnixMilli(),
			Open:      open,
			High:      math.Max(open, closePx) * (1 + rnd.Float64()*0.02),
			Low:       math.Min(open, closePx) * (1 - rnd.Float64()*0.02),
			Close:     closePx,
			Volume:    rnd.Float64()*1_000_000 + 500_000,
		}
		price = closePx
	}
	return bars
}
