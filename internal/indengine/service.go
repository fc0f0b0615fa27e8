// Package indengine orchestrates a request: load the series (cache, feed or
// synthetic fallback), run the Aggregator, and shape the response.
package indengine

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/pkg/errors"

	"indicator-dashboard/internal/indicator"
	"indicator-dashboard/internal/ingest"
	"indicator-dashboard/internal/logger"
	"indicator-dashboard/internal/metrics"
	"indicator-dashboard/internal/model"
	"indicator-dashboard/internal/predict"
)

// DefaultSymbol is used when a request names no symbol.
const DefaultSymbol = "bitcoin"

// Loader produces a bar series; ingest.Source is the production implementation.
type Loader interface {
	Load(ctx context.Context, symbol string, tf model.Timeframe, rnd *rand.Rand, fallback bool) (model.Bars, ingest.Origin)
}

// Service answers indicator, chart and prediction queries. It holds no
// per-request state; every call ingests and computes from scratch.
type Service struct {
	loader    Loader
	cfg       indicator.Config
	watchlist []string
	seed      int64
	prom      *metrics.Metrics
}

// New creates a Service. A zero seed draws a fresh random source per request.
func New(loader Loader, cfg indicator.Config, watchlist []string, seed int64, m *metrics.Metrics) *Service {
	return &Service{
		loader:    loader,
		cfg:       cfg,
		watchlist: watchlist,
		seed:      seed,
		prom:      m,
	}
}

// Watchlist returns the symbols covered by predictions and the refresher.
func (s *Service) Watchlist() []string { return s.watchlist }

func (s *Service) newRand() *rand.Rand {
	seed := s.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// NormalizeSymbol lower-cases a feed id, defaulting to DefaultSymbol.
func NormalizeSymbol(symbol string) string {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	if symbol == "" {
		return DefaultSymbol
	}
	return symbol
}

// Indicators loads symbol/tf (falling back to synthetic data when the feed is
// down) and returns the full indicator bundle. An empty series yields
// indicator.ErrNoData.
func (s *Service) Indicators(ctx context.Context, symbol string, tf model.Timeframe) (*indicator.Bundle, error) {
	bundle, _, err := s.compute(ctx, NormalizeSymbol(symbol), tf)
	return bundle, err
}

func (s *Service) compute(ctx context.Context, symbol string, tf model.Timeframe) (*indicator.Bundle, ingest.Origin, error) {
	rnd := s.newRand()

	bars, origin := s.loader.Load(ctx, symbol, tf, rnd, true)
	if len(bars) == 0 {
		slog.Info("no data available", append(logger.LogWithTrace(ctx), "symbol", symbol, "timeframe", string(tf))...)
		return nil, origin, indicator.ErrNoData
	}

	start := time.Now()
	bundle, err := indicator.Compute(bars, s.cfg, indicator.NewRandomSimulator(rnd))
	s.prom.ComputeDur.Observe(time.Since(start).Seconds())
	if err != nil {
		if !errors.Is(err, indicator.ErrNoData) {
			s.prom.ComputeErrors.Inc()
			slog.Error("indicator computation failed", append(logger.LogWithTrace(ctx), "symbol", symbol, "error", err)...)
		}
		return nil, origin, err
	}

	bundle.Symbol = symbol
	bundle.Timeframe = string(tf)
	slog.Debug("indicators computed", append(logger.LogWithTrace(ctx),
		"symbol", symbol, "timeframe", string(tf), "bars", len(bars), "origin", string(origin))...)
	return bundle, origin, nil
}

// Snapshot is the compact live-stream payload for one symbol/timeframe.
type Snapshot struct {
	Symbol     string            `json:"symbol"`
	Timeframe  string            `json:"timeframe"`
	ComputedAt int64             `json:"computedAt"` // unix ms
	Origin     ingest.Origin     `json:"origin"`
	Current    indicator.Current `json:"current"`
}

// Snapshot computes the bundle for symbol/tf and keeps only the current readings.
func (s *Service) Snapshot(ctx context.Context, symbol string, tf model.Timeframe) (*Snapshot, error) {
	symbol = NormalizeSymbol(symbol)
	bundle, origin, err := s.compute(ctx, symbol, tf)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Symbol:     symbol,
		Timeframe:  string(tf),
		ComputedAt: time.Now().UnixMilli(),
		Origin:     origin,
		Current:    bundle.Current,
	}, nil
}

// Predictions returns one outlook per watchlist symbol, anchored on the
// latest daily close.
func (s *Service) Predictions(ctx context.Context) ([]predict.Prediction, error) {
	rnd := s.newRand()
	out := make([]predict.Prediction, 0, len(s.watchlist))
	for _, symbol := range s.watchlist {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bars, _ := s.loader.Load(ctx, symbol, model.Timeframe24h, rnd, true)
		if len(bars) == 0 {
			continue
		}
		out = append(out, predict.Predict(symbol, bars[len(bars)-1].Close, rnd))
	}
	if len(out) == 0 && len(s.watchlist) > 0 {
		return nil, indicator.ErrNoData
	}
	return out, nil
}
