package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicator-dashboard/internal/model"
)

func TestBarKey(t *testing.T) {
	assert.Equal(t, "bars:24h:bitcoin", BarKey("Bitcoin", model.Timeframe24h))
	assert.Equal(t, "bars:1h:ethereum", BarKey("ethereum", model.Timeframe1h))
}

func TestStreamChannel(t *testing.T) {
	assert.Equal(t, "bitcoin:24h", StreamChannel("pub:snap:bitcoin:24h"))
	assert.Equal(t, "other", StreamChannel("other"))
}

func TestNopCache_AlwaysMisses(t *testing.T) {
	var c model.BarCache = NopCache{}
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "bitcoin", model.Timeframe24h, model.Bars{{Timestamp: 1, Open: 1, High: 1, Low: 1, Close: 1}}, time.Minute))

	bars, ok, err := c.Get(ctx, "bitcoin", model.Timeframe24h)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, bars)
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestNew_UnreachableServer(t *testing.T) {
	_, err := New(Config{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")
}

// The round-trip tests below need a live server: REDIS_TEST_ADDR=localhost:6379.
func testStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	s, err := New(Config{Addr: addr, DB: 15})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	bars := model.Bars{
		{Timestamp: 1000, Open: 10, High: 12, Low: 9, Close: 11, Volume: 100},
		{Timestamp: 2000, Open: 11, High: 13, Low: 10, Close: 12, Volume: 200},
	}
	require.NoError(t, s.Set(ctx, "roundtrip", model.Timeframe7d, bars, time.Minute))

	got, ok, err := s.Get(ctx, "roundtrip", model.Timeframe7d)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, bars, got)

	_, ok, err = s.Get(ctx, "missing-symbol", model.Timeframe7d)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PublishSubscribe(t *testing.T) {
	s := testStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := s.SubscribeSnapshots(ctx)
	defer sub.Close()
	_, err := sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	require.NoError(t, s.Publish(ctx, "bitcoin:24h", []byte(`{"price":1}`)))
	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bitcoin:24h", StreamChannel(msg.Channel))
	assert.JSONEq(t, `{"price":1}`, msg.Payload)
}
