package indengine

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"indicator-dashboard/internal/logger"
	"indicator-dashboard/internal/metrics"
	"indicator-dashboard/internal/model"
)

// refreshConcurrency bounds parallel snapshot computations per tick.
const refreshConcurrency = 4

// Publisher delivers a snapshot payload on a live-stream channel. Both the
// gateway hub (single instance) and the Redis store (fan-out) implement it.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte) error
}

// Refresher recomputes snapshots for every watchlist symbol and timeframe on
// a cron schedule and publishes them.
type Refresher struct {
	svc    *Service
	pub    Publisher
	health *metrics.HealthStatus
	prom   *metrics.Metrics
	spec   string

	running atomic.Bool
}

// NewRefresher validates the cron spec (seconds field included) and returns
// a Refresher. health may be nil.
func NewRefresher(svc *Service, pub Publisher, spec string, health *metrics.HealthStatus, m *metrics.Metrics) (*Refresher, error) {
	if _, err := cron.NewParser(cronFields).Parse(spec); err != nil {
		return nil, errors.Wrapf(err, "refresh schedule %q", spec)
	}
	return &Refresher{svc: svc, pub: pub, health: health, prom: m, spec: spec}, nil
}

const cronFields = cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor

// Run schedules RunOnce until ctx is cancelled. Ticks that fire while the
// previous refresh is still running are skipped.
func (r *Refresher) Run(ctx context.Context) error {
	c := cron.New(cron.WithParser(cron.NewParser(cronFields)))
	if _, err := c.AddFunc(r.spec, func() { r.tick(ctx) }); err != nil {
		return errors.Wrap(err, "schedule refresh")
	}

	log.Printf("[refresher] started (schedule=%q, symbols=%d)", r.spec, len(r.svc.Watchlist()))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	log.Printf("[refresher] stopped")
	return nil
}

func (r *Refresher) tick(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		log.Printf("[refresher] previous refresh still running, skipping tick")
		return
	}
	defer r.running.Store(false)

	if err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
		log.Printf("[refresher] refresh failed: %v", err)
	}
}

// RunOnce publishes one snapshot per watchlist symbol and timeframe. It
// attempts every pair and returns the first error encountered.
func (r *Refresher) RunOnce(ctx context.Context) error {
	start := time.Now()
	ctx = logger.WithTraceID(ctx, logger.GenerateTraceID("refresh", start))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	var (
		mu       sync.Mutex
		firstErr error
	)

	for _, symbol := range r.svc.Watchlist() {
		for _, tf := range model.Timeframes() {
			symbol, tf := symbol, tf
			g.Go(func() error {
				if err := r.publish(gctx, symbol, tf); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	r.prom.RefreshDur.Observe(time.Since(start).Seconds())
	if r.health != nil {
		r.health.SetRefresh(time.Now(), firstErr == nil)
	}
	return firstErr
}

func (r *Refresher) publish(ctx context.Context, symbol string, tf model.Timeframe) error {
	snap, err := r.svc.Snapshot(ctx, symbol, tf)
	if err != nil {
		return errors.Wrapf(err, "snapshot %s", model.Channel(symbol, tf))
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	ch := model.Channel(symbol, tf)
	if err := r.pub.Publish(ctx, ch, data); err != nil {
		return errors.Wrapf(err, "publish %s", ch)
	}
	r.prom.SnapshotsPublished.Inc()
	return nil
}
