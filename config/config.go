package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration: an optional YAML file,
// overridden by environment variables, with defaults for anything unset.
type Config struct {
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`

	Feed struct {
		BaseURL         string        `yaml:"base_url"`
		Timeout         time.Duration `yaml:"timeout"`
		BreakerFailures int           `yaml:"breaker_failures"`
		BreakerReset    time.Duration `yaml:"breaker_reset"`
	} `yaml:"feed"`

	Cache struct {
		RedisAddr     string        `yaml:"redis_addr"` // empty disables the cache
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		TTL           time.Duration `yaml:"ttl"`
	} `yaml:"cache"`

	Window      int      `yaml:"window"`
	Watchlist   []string `yaml:"watchlist"`
	RefreshCron string   `yaml:"refresh_cron"`
	Seed        int64    `yaml:"seed"` // 0 seeds from the clock per request
}

// Load reads path (a missing file is not an error), then applies environment
// overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "read config")
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrap(err, "parse config")
			}
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ListenAddr = getEnv("GATEWAY_ADDR", c.ListenAddr)
	c.MetricsAddr = getEnv("METRICS_ADDR", c.MetricsAddr)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Feed.BaseURL = getEnv("FEED_BASE_URL", c.Feed.BaseURL)
	c.Feed.Timeout = getDuration("FEED_TIMEOUT", c.Feed.Timeout)

	c.Cache.RedisAddr = getEnv("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = getEnv("REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Cache.TTL = getDuration("CACHE_TTL", c.Cache.TTL)

	c.Window = getInt("INDICATOR_WINDOW", c.Window)
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Watchlist = ParseList(v)
	}
	c.RefreshCron = getEnv("REFRESH_CRON", c.RefreshCron)
	if v := os.Getenv("RANDOM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = n
		} else {
			log.Printf("[config] ignoring invalid RANDOM_SEED %q", v)
		}
	}
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9090"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Feed.BaseURL == "" {
		c.Feed.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = 10 * time.Second
	}
	if c.Feed.BreakerFailures == 0 {
		c.Feed.BreakerFailures = 5
	}
	if c.Feed.BreakerReset == 0 {
		c.Feed.BreakerReset = 30 * time.Second
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 30 * time.Second
	}
	if c.Window == 0 {
		c.Window = 50
	}
	if len(c.Watchlist) == 0 {
		c.Watchlist = []string{"bitcoin", "ethereum"}
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/30 * * * * *"
	}
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Window <= 0 {
		return errors.Errorf("window must be positive, got %d", c.Window)
	}
	if c.Feed.Timeout <= 0 {
		return errors.New("feed.timeout must be positive")
	}
	if c.Feed.BreakerFailures <= 0 {
		return errors.New("feed.breaker_failures must be positive")
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}
	if strings.TrimSpace(c.RefreshCron) == "" {
		return errors.New("refresh_cron is required")
	}
	for _, s := range c.Watchlist {
		if strings.ContainsAny(s, " /:") {
			return errors.Errorf("watchlist symbol %q is not a feed id", s)
		}
	}
	return nil
}

// CacheEnabled reports whether a Redis address is configured.
func (c *Config) CacheEnabled() bool {
	return c.Cache.RedisAddr != ""
}

// ParseList splits a comma-separated list, trimming blanks.
func ParseList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] ignoring invalid %s %q", key, v)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] ignoring invalid %s %q", key, v)
		return fallback
	}
	return d
}
