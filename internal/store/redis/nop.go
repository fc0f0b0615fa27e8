package redis

import (
	"context"
	"time"

	"indicator-dashboard/internal/model"
)

// NopCache is used when no Redis address is configured: every Get misses.
type NopCache struct{}

func (NopCache) Get(context.Context, string, model.Timeframe) (model.Bars, bool, error) {
	return nil, false, nil
}

func (NopCache) Set(context.Context, string, model.Timeframe, model.Bars, time.Duration) error {
	return nil
}

func (NopCache) Ping(context.Context) error { return nil }
func (NopCache) Close() error               { return nil }

var (
	_ model.BarCache = NopCache{}
	_ model.BarCache = (*Store)(nil)
)
