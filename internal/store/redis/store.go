// Package redis backs the short-TTL bar cache and the snapshot fan-out
// channel with Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"indicator-dashboard/internal/model"
)

const (
	barKeyPrefix = "bars"
	pingTimeout  = 5 * time.Second
)

// Config configures the Redis connection.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Store implements model.BarCache and snapshot pub/sub on one client.
type Store struct {
	client *goredis.Client
}

// Client returns the underlying Redis client.
func (s *Store) Client() *goredis.Client { return s.client }

// New connects to Redis and pings the server.
func New(cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "redis ping %s", cfg.Addr)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Store{client: client}, nil
}

// BarKey is the cache key for a symbol's series at a timeframe.
func BarKey(symbol string, tf model.Timeframe) string {
	return fmt.Sprintf("%s:%s:%s", barKeyPrefix, tf, strings.ToLower(symbol))
}

// Get loads a cached series. A missing key is a miss, not an error.
func (s *Store) Get(ctx context.Context, symbol string, tf model.Timeframe) (model.Bars, bool, error) {
	data, err := s.client.Get(ctx, BarKey(symbol, tf)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get bars")
	}

	var bars model.Bars
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, false, errors.Wrap(err, "decode cached bars")
	}
	return bars, true, nil
}

// Set stores a series with ttl.
func (s *Store) Set(ctx context.Context, symbol string, tf model.Timeframe, bars model.Bars, ttl time.Duration) error {
	if err := s.client.Set(ctx, BarKey(symbol, tf), bars.JSON(), ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set bars")
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
