// Package gateway exposes the pipeline over HTTP: REST endpoints for the
// latest per-symbol state and a WebSocket hub that streams every snapshot
// the engine produces.
package gateway

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bhavikk10/crypto-trading-bot/internal/engine"
	"github.com/bhavikk10/crypto-trading-bot/internal/metrics"
	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

// Hub manages WebSocket clients and fans engine snapshots out to them.
type Hub struct {
	engine    *engine.Engine
	metrics   *metrics.Metrics
	snapshots <-chan model.Snapshot

	mu      sync.RWMutex
	clients map[*Client]bool
	latest  map[string]latestEntry
}

type latestEntry struct {
	Data json.RawMessage
	TS   time.Time
}

// NewHub creates a hub over the engine and subscribes to its snapshot
// stream. Must be called before the engine starts. m may be nil.
func NewHub(eng *engine.Engine, m *metrics.Metrics) *Hub {
	return &Hub{
		engine:    eng,
		metrics:   m,
		snapshots: eng.Subscribe("gateway"),
		clients:   make(map[*Client]bool),
		latest:    make(map[string]latestEntry),
	}
}

// Run consumes the engine's snapshot stream and broadcasts each snapshot to
// all connected clients. Blocks until ctx is cancelled or the stream closes.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-h.snapshots:
			if !ok {
				return
			}
			h.broadcast(snap)
		}
	}
}

func (h *Hub) broadcast(snap model.Snapshot) {
	envelope, err := json.Marshal(wsEnvelope{
		Channel: "snapshot:" + snap.Symbol,
		Data:    snap.JSON(),
		TS:      snap.TS.Format(time.RFC3339Nano),
	})
	if err != nil {
		return
	}

	h.mu.Lock()
	h.latest[snap.Symbol] = latestEntry{Data: snap.JSON(), TS: snap.TS}
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- envelope:
		default:
			if h.metrics != nil {
				h.metrics.WSDroppedMessages.Inc()
			}
		}
	}
}

type wsEnvelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
	TS      string          `json:"ts"`
	Initial bool            `json:"initial,omitempty"`
}

// HandleWSRequest registers an upgraded connection and starts its pumps.
// lastTS lets reconnecting clients skip initial state they already hold.
func (h *Hub) HandleWSRequest(conn *websocket.Conn, lastTS string) {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
		hub:  h,
	}

	conn.EnableWriteCompression(true)

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(count))
	}
	log.Printf("[gateway] ws client connected (%d total)", count)

	go client.sendInitialState(lastTS)
	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub and signals its write pump to
// stop. Safe to call more than once. The send channel stays open so a
// broadcast or initial-state push racing with removal cannot panic.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	close(c.done)

	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(count))
	}
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
