package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the indicator service.
type Metrics struct {
	// HTTP gateway
	RequestsTotal *prometheus.CounterVec   // labels: endpoint, status
	RequestDur    *prometheus.HistogramVec // labels: endpoint

	// Aggregator
	ComputeDur    prometheus.Histogram
	ComputeErrors prometheus.Counter

	// Ingestion
	IngestTotal *prometheus.CounterVec // labels: origin=feed|cache|synthetic|none
	FeedDur     prometheus.Histogram
	FeedErrors  prometheus.Counter

	// Bar cache
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Circuit breaker around the upstream feed
	FeedBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	FeedBreakerTrips prometheus.Counter

	// Live stream
	WSClients          prometheus.Gauge
	WSDroppedMessages  prometheus.Counter
	SnapshotsPublished prometheus.Counter
	RefreshDur         prometheus.Histogram
}

// NewMetrics registers all metrics with reg (prometheus.DefaultRegisterer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indicators_http_requests_total",
			Help: "HTTP requests served (by endpoint and status code)",
		}, []string{"endpoint", "status"}),
		RequestDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "indicators_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		ComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "indicators_compute_duration_seconds",
			Help:    "Aggregator latency per bundle",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		ComputeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indicators_compute_errors_total",
			Help: "Bundles that failed with a computation fault",
		}),

		IngestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indicators_ingest_total",
			Help: "Series ingested (by origin)",
		}, []string{"origin"}),
		FeedDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "indicators_feed_request_duration_seconds",
			Help:    "Upstream price feed latency",
			Buckets: prometheus.DefBuckets,
		}),
		FeedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indicators_feed_errors_total",
			Help: "Upstream price feed failures (each triggers the synthetic fallback)",
		}),

		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indicators_cache_hits_total",
			Help: "Bar cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indicators_cache_misses_total",
			Help: "Bar cache misses",
		}),

		FeedBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "indicators_feed_circuit_breaker_state",
			Help: "Feed circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		FeedBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indicators_feed_circuit_breaker_trips_total",
			Help: "Times the feed circuit breaker tripped open",
		}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "indicators_ws_clients",
			Help: "Connected WebSocket clients",
		}),
		WSDroppedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indicators_ws_dropped_messages_total",
			Help: "Messages dropped because a client send buffer was full",
		}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indicators_snapshots_published_total",
			Help: "Current snapshots broadcast to the live stream",
		}),
		RefreshDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "indicators_refresh_duration_seconds",
			Help:    "Watchlist refresh run latency",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDur,
		m.ComputeDur,
		m.ComputeErrors,
		m.IngestTotal,
		m.FeedDur,
		m.FeedErrors,
		m.CacheHits,
		m.CacheMisses,
		m.FeedBreakerState,
		m.FeedBreakerTrips,
		m.WSClients,
		m.WSDroppedMessages,
		m.SnapshotsPublished,
		m.RefreshDur,
	)

	return m
}

// Pinger is anything whose reachability can be probed (the bar cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus represents the service health.
type HealthStatus struct {
	mu sync.RWMutex

	CacheEnabled   bool      `json:"cache_enabled"`
	CacheConnected bool      `json:"cache_connected"`
	CacheLatencyMs float64   `json:"cache_latency_ms"`
	FeedBreaker    string    `json:"feed_breaker"`
	LastRefreshAt  time.Time `json:"last_refresh_at"`
	LastRefreshOK  bool      `json:"last_refresh_ok"`
	LastCheckAt    time.Time `json:"last_check_at"`
	StartedAt      time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		FeedBreaker: "closed",
		StartedAt:   time.Now(),
	}
}

func (h *HealthStatus) SetCacheEnabled(v bool) {
	h.mu.Lock()
	h.CacheEnabled = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetFeedBreaker(state string) {
	h.mu.Lock()
	h.FeedBreaker = state
	h.mu.Unlock()
}

func (h *HealthStatus) SetRefresh(at time.Time, ok bool) {
	h.mu.Lock()
	h.LastRefreshAt = at
	h.LastRefreshOK = ok
	h.mu.Unlock()
}

// CheckCache pings the cache and records latency + connectivity.
func (h *HealthStatus) CheckCache(ctx context.Context, p Pinger) {
	start := time.Now()
	err := p.Ping(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.CacheConnected = err == nil
	h.CacheLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks until ctx is done.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, cache Pinger, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if cache == nil {
					continue
				}
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				h.CheckCache(probeCtx, cache)
				cancel()
			}
		}
	}()
}

// Healthy reports whether every enabled dependency is reachable. An open feed
// breaker only degrades the service: requests are still answered from the
// synthetic fallback.
func (h *HealthStatus) Healthy() (status string, ok bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.CacheEnabled && !h.CacheConnected {
		return "degraded", false
	}
	if h.FeedBreaker != "closed" {
		return "degraded", true
	}
	return "healthy", true
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	overallStatus, ok := h.Healthy()

	h.mu.RLock()
	lastRefresh := ""
	if !h.LastRefreshAt.IsZero() {
		lastRefresh = h.LastRefreshAt.Format(time.RFC3339)
	}
	status := struct {
		Status         string  `json:"status"`
		Uptime         string  `json:"uptime"`
		CacheEnabled   bool    `json:"cache_enabled"`
		CacheConnected bool    `json:"cache_connected"`
		CacheLatencyMs float64 `json:"cache_latency_ms"`
		FeedBreaker    string  `json:"feed_breaker"`
		LastRefreshAt  string  `json:"last_refresh_at"`
		LastRefreshOK  bool    `json:"last_refresh_ok"`
		LastCheckAt    string  `json:"last_check_at"`
	}{
		Status:         overallStatus,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		CacheEnabled:   h.CacheEnabled,
		CacheConnected: h.CacheConnected,
		CacheLatencyMs: h.CacheLatencyMs,
		FeedBreaker:    h.FeedBreaker,
		LastRefreshAt:  lastRefresh,
		LastRefreshOK:  h.LastRefreshOK,
		LastCheckAt:    h.LastCheckAt.Format(time.RFC3339),
	}
	h.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server. gatherer defaults to the
// global registry when nil.
func NewServer(addr string, health *HealthStatus, gatherer prometheus.Gatherer) *Server {
	handler := promhttp.Handler()
	if gatherer != nil {
		handler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) ListenAndServe() error {
	log.Printf("[metrics] server listening on %s", s.addr)
	if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
