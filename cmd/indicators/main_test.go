package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicator-dashboard/config"
	"indicator-dashboard/internal/indicator"
	"indicator-dashboard/internal/ingest"
	"indicator-dashboard/internal/metrics"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	assert.Contains(t, run(t, "version"), "indicators version dev")
}

func TestComputeOffline(t *testing.T) {
	t.Setenv("RANDOM_SEED", "42")
	t.Setenv("INDICATOR_WINDOW", "20")

	out := run(t, "compute", "--offline", "--symbol", "Ethereum", "--timeframe", "1h")

	var b indicator.Bundle
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, "ethereum", b.Symbol)
	assert.Equal(t, "1h", b.Timeframe)
	assert.Len(t, b.Data, 20)
	assert.True(t, b.Current.Price.Defined())
}

func TestComputeRejectsUnknownTimeframe(t *testing.T) {
	rootCmd.SetArgs([]string{"compute", "--offline", "--timeframe", "5m"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	assert.Error(t, rootCmd.Execute())
}

func TestFeedBreakerMirrorsState(t *testing.T) {
	cfg := &config.Config{}
	cfg.Feed.BreakerFailures = 1
	m := metrics.NewMetrics(prometheus.NewRegistry())
	health := metrics.NewHealthStatus()

	cb := newFeedBreaker(cfg, m, health)
	err := cb.Execute(func() error { return ingest.ErrFeedUnavailable })
	require.Error(t, err)

	assert.Equal(t, float64(ingest.StateOpen), testutil.ToFloat64(m.FeedBreakerState))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedBreakerTrips))
	status, ok := health.Healthy()
	assert.Equal(t, "degraded", status)
	assert.True(t, ok)
}
