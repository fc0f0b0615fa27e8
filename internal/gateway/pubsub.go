package gateway

import (
	"context"
	"log"

	goredis "github.com/go-redis/redis/v8"

	storeredis "indicator-dashboard/internal/store/redis"
)

// SnapshotSubscriber opens the Redis subscription carrying live snapshots.
// *storeredis.Store implements it.
type SnapshotSubscriber interface {
	SubscribeSnapshots(ctx context.Context) *goredis.PubSub
}

// PubSubRouter forwards snapshots published on Redis (by any instance's
// refresher) to this instance's Broadcaster.
type PubSubRouter struct {
	hub *Hub
	sub SnapshotSubscriber
}

// NewPubSubRouter creates a PubSubRouter backed by the given Hub.
func NewPubSubRouter(hub *Hub, sub SnapshotSubscriber) *PubSubRouter {
	return &PubSubRouter{hub: hub, sub: sub}
}

// Run pattern-subscribes and routes messages. Blocks until ctx is cancelled.
func (r *PubSubRouter) Run(ctx context.Context) error {
	pubsub := r.sub.SubscribeSnapshots(ctx)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	log.Printf("[gateway] subscribed to snapshot channels %s*", storeredis.SnapshotPrefix)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.route(msg)
		}
	}
}

func (r *PubSubRouter) route(msg *goredis.Message) {
	r.hub.broadcast(storeredis.StreamChannel(msg.Channel), []byte(msg.Payload))
}
