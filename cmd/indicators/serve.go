package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"indicator-dashboard/config"
	"indicator-dashboard/internal/gateway"
	"indicator-dashboard/internal/indengine"
	"indicator-dashboard/internal/indicator"
	"indicator-dashboard/internal/ingest"
	"indicator-dashboard/internal/logger"
	"indicator-dashboard/internal/metrics"
	"indicator-dashboard/internal/model"
	storeredis "indicator-dashboard/internal/store/redis"
)

const (
	shutdownTimeout  = 5 * time.Second
	livenessInterval = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST/WebSocket gateway, metrics server and snapshot refresher",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Init("indicators", logger.ParseLevel(cfg.LogLevel))
	log.Printf("[indicators] starting %s (window=%d, watchlist=%v)", version, cfg.Window, cfg.Watchlist)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processStart := time.Now()
	m := metrics.NewMetrics(nil)
	health := metrics.NewHealthStatus()
	health.SetCacheEnabled(cfg.CacheEnabled())

	// ---- Bar cache and snapshot bus ----
	var (
		cache model.BarCache = storeredis.NopCache{}
		store *storeredis.Store
	)
	if cfg.CacheEnabled() {
		store, err = storeredis.New(storeredis.Config{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return errors.Wrap(err, "connect redis")
		}
		defer store.Close()
		cache = store
		health.CheckCache(ctx, store)
	}

	// ---- Upstream feed behind a circuit breaker ----
	breaker := newFeedBreaker(cfg, m, health)
	feed := ingest.NewCoinGeckoClient(cfg.Feed.BaseURL, cfg.Feed.Timeout)
	src := ingest.NewSource(feed, cache, cfg.Cache.TTL, breaker, m)

	icfg := indicator.DefaultConfig()
	icfg.Window = cfg.Window
	svc := indengine.New(src, icfg, cfg.Watchlist, cfg.Seed, m)

	// ---- Gateway ----
	hub := gateway.NewHub(m, 0)
	var pub indengine.Publisher = hub
	if store != nil {
		pub = store
	}
	refresher, err := indengine.NewRefresher(svc, pub, cfg.RefreshCron, health, m)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux, hub, svc, health, m, processStart)
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[gateway] listening on %s", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
			return errors.Wrap(err, "gateway server")
		}
		return nil
	})
	g.Go(func() error {
		return errors.Wrap(metricsSrv.ListenAndServe(), "metrics server")
	})
	g.Go(func() error {
		return refresher.Run(gctx)
	})
	if store != nil {
		router := gateway.NewPubSubRouter(hub, store)
		g.Go(func() error {
			return errors.Wrap(router.Run(gctx), "snapshot subscription")
		})
		health.StartLivenessChecker(gctx, store, livenessInterval)
	}

	// ---- Graceful shutdown ----
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("[indicators] shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		hub.CloseAll()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[gateway] shutdown: %v", err)
		}
		return metricsSrv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("[indicators] stopped with error: %v", err)
		return err
	}
	log.Printf("[indicators] stopped")
	return nil
}

// newFeedBreaker mirrors breaker transitions into metrics and health.
func newFeedBreaker(cfg *config.Config, m *metrics.Metrics, health *metrics.HealthStatus) *ingest.CircuitBreaker {
	cb := ingest.NewCircuitBreaker(cfg.Feed.BreakerFailures, cfg.Feed.BreakerReset)
	cb.OnStateChange = func(from, to ingest.State) {
		log.Printf("[ingest] feed breaker %s -> %s", from, to)
		m.FeedBreakerState.Set(float64(to))
		if to == ingest.StateOpen {
			m.FeedBreakerTrips.Inc()
		}
		health.SetFeedBreaker(to.String())
	}
	return cb
}
