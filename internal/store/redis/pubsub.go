package redis

import (
	"context"
	"strings"

	goredis "github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// SnapshotPrefix namespaces live-stream channels on the Redis bus.
const SnapshotPrefix = "pub:snap:"

// Publish sends a snapshot on the stream channel (e.g. "bitcoin:24h") so that
// every gateway instance subscribed to the bus can fan it out.
func (s *Store) Publish(ctx context.Context, channel string, data []byte) error {
	if err := s.client.Publish(ctx, SnapshotPrefix+channel, data).Err(); err != nil {
		return errors.Wrapf(err, "redis publish %s", channel)
	}
	return nil
}

// SubscribeSnapshots pattern-subscribes to every snapshot channel.
// The caller closes the returned PubSub.
func (s *Store) SubscribeSnapshots(ctx context.Context) *goredis.PubSub {
	return s.client.PSubscribe(ctx, SnapshotPrefix+"*")
}

// StreamChannel strips the bus prefix from a Redis channel name.
func StreamChannel(redisChannel string) string {
	return strings.TrimPrefix(redisChannel, SnapshotPrefix)
}
