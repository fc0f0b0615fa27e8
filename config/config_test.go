package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.Feed.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Feed.Timeout)
	assert.Equal(t, 5, cfg.Feed.BreakerFailures)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 50, cfg.Window)
	assert.Equal(t, []string{"bitcoin", "ethereum"}, cfg.Watchlist)
	assert.Equal(t, "*/30 * * * * *", cfg.RefreshCron)
	assert.False(t, cfg.CacheEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":7000"
feed:
  timeout: 3s
  breaker_failures: 2
cache:
  redis_addr: "redis:6379"
  ttl: 1m
window: 30
watchlist: [solana]
`), 0o644))

	t.Setenv("GATEWAY_ADDR", ":7100")
	t.Setenv("WATCHLIST", " Bitcoin , cardano,, ")
	t.Setenv("RANDOM_SEED", "42")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7100", cfg.ListenAddr, "env overrides yaml")
	assert.Equal(t, 3*time.Second, cfg.Feed.Timeout)
	assert.Equal(t, 2, cfg.Feed.BreakerFailures)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 30, cfg.Window)
	assert.Equal(t, []string{"bitcoin", "cardano"}, cfg.Watchlist)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.True(t, cfg.CacheEnabled())
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window: [oops"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidEnvIgnored(t *testing.T) {
	t.Setenv("INDICATOR_WINDOW", "lots")
	t.Setenv("FEED_TIMEOUT", "soon")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Window)
	assert.Equal(t, 10*time.Second, cfg.Feed.Timeout)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	bad := *cfg
	bad.Window = -1
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Watchlist = []string{"btc/usd"}
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.RefreshCron = " "
	assert.Error(t, bad.Validate())
}
