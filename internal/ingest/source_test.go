package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicator-dashboard/internal/metrics"
	"indicator-dashboard/internal/model"
)

type fakeFeed struct {
	points []model.PricePoint
	err    error
	calls  int
}

func (f *fakeFeed) Name() string { return "fake" }

func (f *fakeFeed) MarketChart(ctx context.Context, symbol string, days int, g model.Granularity) ([]model.PricePoint, error) {
	f.calls++
	return f.points, f.err
}

type memCache struct {
	data map[string]model.Bars
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string]model.Bars{}} }

func (c *memCache) key(symbol string, tf model.Timeframe) string { return string(tf) + ":" + symbol }

func (c *memCache) Get(ctx context.Context, symbol string, tf model.Timeframe) (model.Bars, bool, error) {
	b, ok := c.data[c.key(symbol, tf)]
	return b, ok, nil
}

func (c *memCache) Set(ctx context.Context, symbol string, tf model.Timeframe, bars model.Bars, ttl time.Duration) error {
	c.sets++
	c.data[c.key(symbol, tf)] = bars
	return nil
}

func (c *memCache) Ping(context.Context) error { return nil }
func (c *memCache) Close() error               { return nil }

func dailyPoints(n int) []model.PricePoint {
	out := make([]model.PricePoint, n)
	for i := range out {
		out[i] = model.PricePoint{Timestamp: int64(i+1) * 86_400_000, Price: 100 + float64(i)}
	}
	return out
}

func newTestSource(feed model.PriceFeed, cache model.BarCache) (*Source, *metrics.Metrics) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	src := NewSource(feed, cache, time.Minute, nil, m)
	src.Now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return src, m
}

func TestSource_FeedSuccessIsCached(t *testing.T) {
	feed := &fakeFeed{points: dailyPoints(31)}
	cache := newMemCache()
	src, m := newTestSource(feed, cache)

	bars, origin := src.Load(context.Background(), "bitcoin", model.Timeframe24h, seeded(1), true)
	assert.Equal(t, OriginFeed, origin)
	assert.Len(t, bars, 31)
	assert.Equal(t, 1, cache.sets)

	again, origin := src.Load(context.Background(), "bitcoin", model.Timeframe24h, seeded(1), true)
	assert.Equal(t, OriginCache, origin)
	assert.Equal(t, bars, again)
	assert.Equal(t, 1, feed.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses))
}

func TestSource_FeedErrorFallsBack(t *testing.T) {
	feed := &fakeFeed{err: errors.New("connection refused")}
	cache := newMemCache()
	src, m := newTestSource(feed, cache)

	bars, origin := src.Load(context.Background(), "ethereum", model.Timeframe24h, seeded(2), true)
	assert.Equal(t, OriginSynthetic, origin)
	assert.Len(t, bars, 31)
	assert.Equal(t, 2650.0, bars[0].Open)
	assert.Zero(t, cache.sets, "synthetic series are not cached")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedErrors))
}

func TestSource_ShortFeedResponseFallsBack(t *testing.T) {
	src, _ := newTestSource(&fakeFeed{points: dailyPoints(3)}, nil)
	_, origin := src.Load(context.Background(), "bitcoin", model.Timeframe24h, seeded(3), true)
	assert.Equal(t, OriginSynthetic, origin)
}

func TestSource_NoFallbackReturnsEmpty(t *testing.T) {
	src, m := newTestSource(&fakeFeed{err: errors.New("boom")}, nil)
	bars, origin := src.Load(context.Background(), "bitcoin", model.Timeframe7d, seeded(4), false)
	assert.Equal(t, OriginNone, origin)
	assert.Empty(t, bars)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestTotal.WithLabelValues("none")))
}

func TestSource_OpenBreakerSkipsFeed(t *testing.T) {
	feed := &fakeFeed{err: errors.New("down")}
	src, _ := newTestSource(feed, nil)
	src.Breaker = NewCircuitBreaker(1, time.Hour)

	_, origin := src.Load(context.Background(), "bitcoin", model.Timeframe24h, seeded(5), true)
	require.Equal(t, OriginSynthetic, origin)
	_, origin = src.Load(context.Background(), "bitcoin", model.Timeframe24h, seeded(5), true)
	assert.Equal(t, OriginSynthetic, origin)
	assert.Equal(t, 1, feed.calls)
}

func TestSource_NilFeed(t *testing.T) {
	src, _ := newTestSource(nil, nil)
	bars, origin := src.Load(context.Background(), "bitcoin", model.Timeframe1h, seeded(6), true)
	assert.Equal(t, OriginSynthetic, origin)
	assert.Len(t, bars, 169)
}
