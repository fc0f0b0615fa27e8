package gateway

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"indicator-dashboard/internal/indengine"
	"indicator-dashboard/internal/model"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 4096
)

// Client represents a single WebSocket peer.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	// Subscribed channels, "symbol:timeframe". Empty means everything.
	subMu sync.RWMutex
	subs  map[string]bool
}

// ID returns the client's connection id.
func (c *Client) ID() string { return c.id }

func (c *Client) sendInitialState(lastTS string) {
	var cutoff time.Time
	if lastTS != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, lastTS); err == nil {
			cutoff = parsed
		}
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	for channel, entry := range c.hub.latest {
		if !cutoff.IsZero() && !entry.TS.After(cutoff) {
			continue
		}
		if !c.matchesChannel(channel) {
			continue
		}
		c.sendLatest(channel, entry)
	}
}

// sendLatest queues a latest value flagged as initial. Caller holds hub.mu.
func (c *Client) sendLatest(channel string, entry latestEntry) {
	envelope, _ := json.Marshal(map[string]interface{}{
		"channel":     channel,
		"data":        entry.Data,
		"ts":          entry.TS.Format(time.RFC3339Nano),
		"channel_seq": entry.Seq,
		"initial":     true,
	})
	select {
	case c.send <- envelope:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
		log.Printf("[gateway] ws client %s disconnected", c.id)
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg []byte) {
	var base struct {
		Type string `json:"type"`
		Ping int64  `json:"ping"`
	}
	if json.Unmarshal(msg, &base) != nil {
		SendError(c, "", "invalid JSON")
		return
	}

	switch strings.ToUpper(base.Type) {
	case "SUBSCRIBE":
		var sub SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			SendError(c, "", "invalid SUBSCRIBE: "+err.Error())
			return
		}
		c.handleSubscribe(sub)

	case "UNSUBSCRIBE":
		var sub SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			SendError(c, "", "invalid UNSUBSCRIBE: "+err.Error())
			return
		}
		c.handleUnsubscribe(sub)

	default:
		if base.Ping > 0 {
			SendJSON(c, map[string]interface{}{
				"type":      "pong",
				"ping":      base.Ping,
				"server_ts": time.Now().UnixMilli(),
			})
			return
		}
		SendError(c, "", "unknown message type")
	}
}

// handleSubscribe adds a channel and replays its latest value, if any.
func (c *Client) handleSubscribe(msg SubscribeMsg) {
	tf, err := model.ParseTimeframe(msg.Timeframe)
	if err != nil {
		SendError(c, msg.ReqID, err.Error())
		return
	}
	channel := model.Channel(indengine.NormalizeSymbol(msg.Symbol), tf)

	c.subMu.Lock()
	c.subs[channel] = true
	c.subMu.Unlock()

	c.hub.mu.RLock()
	entry, ok := c.hub.latest[channel]
	seq := c.hub.channelSeqs[channel]
	c.hub.mu.RUnlock()

	SendJSON(c, AckMsg{Type: "SUBSCRIBED", ReqID: msg.ReqID, Channel: channel, Seq: seq})
	if ok {
		c.hub.mu.RLock()
		c.sendLatest(channel, entry)
		c.hub.mu.RUnlock()
	}
	log.Printf("[gateway] ws client %s subscribed to %s", c.id, channel)
}

// handleUnsubscribe removes a channel subscription.
func (c *Client) handleUnsubscribe(msg SubscribeMsg) {
	tf, err := model.ParseTimeframe(msg.Timeframe)
	if err != nil {
		SendError(c, msg.ReqID, err.Error())
		return
	}
	channel := model.Channel(indengine.NormalizeSymbol(msg.Symbol), tf)

	c.subMu.Lock()
	delete(c.subs, channel)
	c.subMu.Unlock()

	SendJSON(c, AckMsg{Type: "UNSUBSCRIBED", ReqID: msg.ReqID, Channel: channel, Seq: c.hub.GetChannelSeq(channel)})
	log.Printf("[gateway] ws client %s unsubscribed from %s", c.id, channel)
}

// matchesChannel reports whether the client should receive channel.
// A client with no subscriptions receives everything.
func (c *Client) matchesChannel(channel string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	if len(c.subs) == 0 {
		return true
	}
	return c.subs[channel]
}

// SendJSON queues v for the client, dropping it if the send buffer is full.
func SendJSON(c *Client, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[gateway] json marshal error: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[gateway] ws client %s send buffer full, dropping message", c.id)
	}
}

// SendError queues an ERROR frame.
func SendError(c *Client, reqID, errMsg string) {
	SendJSON(c, WSErrorMsg{Type: "ERROR", ReqID: reqID, Error: errMsg})
}
