package model

import (
	"context"
	"time"
)

// ── Ports ──
// These interfaces decouple orchestration from the concrete upstream feed and
// cache implementations.

// PricePoint is one time-bucketed sample from the upstream feed.
// HasVolume is false when the feed returned no volume for the bucket.
type PricePoint struct {
	Timestamp int64
	Price     float64
	Volume    float64
	HasVolume bool
}

// PriceFeed is the read-only upstream price source (symbol → price/volume pairs).
type PriceFeed interface {
	// MarketChart returns price points covering the last `days` days.
	MarketChart(ctx context.Context, symbol string, days int, g Granularity) ([]PricePoint, error)

	// Name identifies the feed in logs and metrics.
	Name() string
}

// BarCache stores recently ingested series for a short TTL.
type BarCache interface {
	// Get returns the cached series; ok is false on a miss.
	Get(ctx context.Context, symbol string, tf Timeframe) (bars Bars, ok bool, err error)

	// Set stores the series for ttl.
	Set(ctx context.Context, symbol string, tf Timeframe, bars Bars, ttl time.Duration) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases underlying resources.
	Close() error
}
