package indengine

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicator-dashboard/internal/metrics"
)

// recordingPublisher keeps every payload by channel.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs map[string][]byte
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.msgs == nil {
		p.msgs = make(map[string][]byte)
	}
	p.msgs[channel] = data
	return nil
}

func (p *recordingPublisher) channels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for ch := range p.msgs {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

func TestNewRefresherRejectsBadSchedule(t *testing.T) {
	svc, m := newTestService(&fakeLoader{}, "bitcoin")
	_, err := NewRefresher(svc, &recordingPublisher{}, "every now and then", nil, m)
	assert.Error(t, err)

	_, err = NewRefresher(svc, &recordingPublisher{}, "*/30 * * * * *", nil, m)
	assert.NoError(t, err)
	_, err = NewRefresher(svc, &recordingPublisher{}, "@every 1m", nil, m)
	assert.NoError(t, err)
}

func TestRunOncePublishesEveryPair(t *testing.T) {
	svc, m := newTestService(&fakeLoader{}, "bitcoin", "ethereum")
	pub := &recordingPublisher{}
	health := metrics.NewHealthStatus()

	r, err := NewRefresher(svc, pub, "@every 1m", health, m)
	require.NoError(t, err)
	require.NoError(t, r.RunOnce(context.Background()))

	assert.Equal(t, []string{
		"bitcoin:1h", "bitcoin:24h", "bitcoin:7d",
		"ethereum:1h", "ethereum:24h", "ethereum:7d",
	}, pub.channels())
	assert.Equal(t, 6.0, testutil.ToFloat64(m.SnapshotsPublished))
	assert.True(t, health.LastRefreshOK)
	assert.False(t, health.LastRefreshAt.IsZero())

	var snap Snapshot
	require.NoError(t, json.Unmarshal(pub.msgs["ethereum:7d"], &snap))
	assert.Equal(t, "ethereum", snap.Symbol)
	assert.Equal(t, "7d", snap.Timeframe)
	assert.True(t, snap.Current.Price.Defined())
}

func TestRunOnceReportsFailure(t *testing.T) {
	svc, m := newTestService(&fakeLoader{}, "bitcoin")
	pub := &recordingPublisher{err: errors.New("broker down")}
	health := metrics.NewHealthStatus()

	r, err := NewRefresher(svc, pub, "@every 1m", health, m)
	require.NoError(t, err)

	err = r.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.False(t, health.LastRefreshOK)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SnapshotsPublished))
}

func TestRunOnceNoData(t *testing.T) {
	svc, m := newTestService(&fakeLoader{empty: true}, "bitcoin")
	r, err := NewRefresher(svc, &recordingPublisher{}, "@every 1m", nil, m)
	require.NoError(t, err)
	assert.Error(t, r.RunOnce(context.Background()))
}

func TestRunTicksUntilCancelled(t *testing.T) {
	svc, m := newTestService(&fakeLoader{}, "bitcoin")
	pub := &recordingPublisher{}
	r, err := NewRefresher(svc, pub, "* * * * * *", nil, m)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	assert.Eventually(t, func() bool { return len(pub.channels()) == 3 }, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
