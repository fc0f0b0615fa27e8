// Package ingest turns an upstream price feed (or, when it is unreachable, a
// synthetic generator) into a canonical OHLCV series.
package ingest

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"indicator-dashboard/internal/logger"
	"indicator-dashboard/internal/metrics"
	"indicator-dashboard/internal/model"
)

// ErrFeedUnavailable marks any upstream failure: transport error, non-200
// status or a response too short to cover the window.
var ErrFeedUnavailable = errors.New("price feed unavailable")

// Origin records where a loaded series came from.
type Origin string

const (
	OriginFeed      Origin = "feed"
	OriginCache     Origin = "cache"
	OriginSynthetic Origin = "synthetic"
	OriginNone      Origin = "none"
)

// Source loads bars for a symbol and timeframe. Feed errors never escape Load.
type Source struct {
	Feed      model.PriceFeed
	Cache     model.BarCache // optional
	CacheTTL  time.Duration
	Generator *Generator
	Breaker   *CircuitBreaker // optional
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// NewSource wires a feed-backed source with the default generator.
func NewSource(feed model.PriceFeed, cache model.BarCache, ttl time.Duration, breaker *CircuitBreaker, m *metrics.Metrics) *Source {
	return &Source{
		Feed:      feed,
		Cache:     cache,
		CacheTTL:  ttl,
		Generator: NewGenerator(),
		Breaker:   breaker,
		Metrics:   m,
		Now:       time.Now,
	}
}

// Load returns an ordered series for symbol/tf. When the feed fails and
// fallback is set, a synthetic series from rnd is returned; otherwise the
// result is empty with OriginNone. Only feed data is cached.
func (s *Source) Load(ctx context.Context, symbol string, tf model.Timeframe, rnd *rand.Rand, fallback bool) (model.Bars, Origin) {
	if s.Cache != nil {
		bars, ok, err := s.Cache.Get(ctx, symbol, tf)
		switch {
		case err != nil:
			slog.Warn("bar cache read failed", append(logger.LogWithTrace(ctx), "symbol", symbol, "error", err)...)
		case ok && len(bars) > 0:
			s.Metrics.CacheHits.Inc()
			s.Metrics.IngestTotal.WithLabelValues(string(OriginCache)).Inc()
			return bars, OriginCache
		default:
			s.Metrics.CacheMisses.Inc()
		}
	}

	bars, err := s.fetch(ctx, symbol, tf, rnd)
	if err == nil {
		if s.Cache != nil {
			if err := s.Cache.Set(ctx, symbol, tf, bars, s.CacheTTL); err != nil {
				slog.Warn("bar cache write failed", append(logger.LogWithTrace(ctx), "symbol", symbol, "error", err)...)
			}
		}
		s.Metrics.IngestTotal.WithLabelValues(string(OriginFeed)).Inc()
		return bars, OriginFeed
	}

	s.Metrics.FeedErrors.Inc()
	if !fallback {
		slog.Info("price feed unavailable, no fallback",
			append(logger.LogWithTrace(ctx), "symbol", symbol, "timeframe", string(tf), "error", err)...)
		s.Metrics.IngestTotal.WithLabelValues(string(OriginNone)).Inc()
		return nil, OriginNone
	}

	slog.Warn("price feed unavailable, using synthetic fallback",
		append(logger.LogWithTrace(ctx), "symbol", symbol, "timeframe", string(tf), "error", err)...)
	s.Metrics.IngestTotal.WithLabelValues(string(OriginSynthetic)).Inc()
	return s.Generator.Generate(symbol, tf, s.Now(), rnd), OriginSynthetic
}

func (s *Source) fetch(ctx context.Context, symbol string, tf model.Timeframe, rnd *rand.Rand) (model.Bars, error) {
	if s.Feed == nil {
		return nil, errors.Wrap(ErrFeedUnavailable, "no feed configured")
	}

	var points []model.PricePoint
	call := func() error {
		start := time.Now()
		var err error
		points, err = s.Feed.MarketChart(ctx, symbol, tf.Days(), tf.Granularity())
		s.Metrics.FeedDur.Observe(time.Since(start).Seconds())
		if err == nil && len(points) < tf.Days() {
			err = errors.Wrapf(ErrFeedUnavailable, "%d points for %d days", len(points), tf.Days())
		}
		return err
	}

	var err error
	if s.Breaker != nil {
		err = s.Breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s/%s", s.Feed.Name(), symbol, tf)
	}

	bars := SynthesizeBars(points, rnd)
	if len(bars) < tf.Days() {
		return nil, errors.Wrapf(ErrFeedUnavailable, "%s returned %d points for %d days", s.Feed.Name(), len(bars), tf.Days())
	}
	return bars, nil
}
