package gateway

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"indicator-dashboard/internal/metrics"
)

// Hub manages WebSocket clients and live-snapshot fan-out.
// It acts as a compositor, delegating to focused components:
//   - Broadcaster: envelope construction + client-filtered fan-out
//   - PubSubRouter: Redis snapshot bus feeding the Broadcaster across instances
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	latest  map[string]latestEntry
	seq     int64

	// Per-channel monotonic sequence numbers for gap detection
	channelSeqs map[string]int64

	// Per-channel replay buffers for gap backfill
	replayBufs map[string]*ReplayBuffer
	replayCap  int

	prom *metrics.Metrics

	Broadcaster *Broadcaster
}

type latestEntry struct {
	Data json.RawMessage
	TS   time.Time
	Seq  int64 // per-channel seq for gap detection
}

// NewHub creates a Hub. replayCap <= 0 selects DefaultReplayCapacity.
func NewHub(m *metrics.Metrics, replayCap int) *Hub {
	if replayCap <= 0 {
		replayCap = DefaultReplayCapacity
	}
	h := &Hub{
		clients:     make(map[*Client]bool),
		latest:      make(map[string]latestEntry),
		channelSeqs: make(map[string]int64),
		replayBufs:  make(map[string]*ReplayBuffer),
		replayCap:   replayCap,
		prom:        m,
	}
	h.Broadcaster = NewBroadcaster(h)
	return h
}

// Publish broadcasts data on channel to subscribed clients. It lets the
// refresher publish straight to the hub when no Redis fan-out is configured.
func (h *Hub) Publish(_ context.Context, channel string, data []byte) error {
	h.broadcast(channel, data)
	return nil
}

// broadcast delegates to Broadcaster for fan-out.
func (h *Hub) broadcast(channel string, data []byte) {
	h.Broadcaster.Broadcast(channel, data)
}

// HandleWSRequest registers an upgraded connection. lastTS (RFC3339Nano)
// limits the initial replay of latest values to newer entries.
func (h *Hub) HandleWSRequest(conn *websocket.Conn, lastTS string) *Client {
	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
		subs: make(map[string]bool),
	}

	conn.EnableWriteCompression(true)

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.prom.WSClients.Set(float64(count))

	log.Printf("[gateway] ws client %s connected (%d total)", client.id, count)

	SendJSON(client, WelcomeMsg{Type: "WELCOME", ClientID: client.id})
	client.sendInitialState(lastTS)
	go client.writePump()
	go client.readPump()
	return client
}

// RemoveClient removes a client from the hub. Safe to call more than once.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	close(c.send)
	h.mu.Unlock()
	h.prom.WSClients.Set(float64(count))
}

// GetLatestAll returns a copy of the latest payload per channel.
func (h *Hub) GetLatestAll() map[string]json.RawMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cp := make(map[string]json.RawMessage, len(h.latest))
	for k, v := range h.latest {
		cp[k] = v.Data
	}
	return cp
}

// GetReplayRange returns buffered envelopes for a channel in [fromSeq, toSeq],
// plus the oldest seq still held.
func (h *Hub) GetReplayRange(channel string, fromSeq, toSeq int64) ([][]byte, int64) {
	h.mu.RLock()
	rb, exists := h.replayBufs[channel]
	h.mu.RUnlock()
	if !exists {
		return nil, 0
	}
	entries := rb.Range(fromSeq, toSeq)
	result := make([][]byte, len(entries))
	for i, e := range entries {
		result[i] = e.Data
	}
	return result, rb.Oldest()
}

// GetChannelSeq returns the current sequence number for a channel.
func (h *Hub) GetChannelSeq(channel string) int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.channelSeqs[channel]
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll disconnects every client. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c.conn)
	}
	h.mu.RUnlock()
	for _, conn := range conns {
		conn.Close()
	}
}
