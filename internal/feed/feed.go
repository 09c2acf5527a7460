// Package feed ingests a Coinbase-style ticker WebSocket stream into
// per-symbol latest quotes and rolling minute-candle windows. The feed is
// the primary tier of the source fallback chain; when it is disconnected or
// has no data yet, its Source methods error and the resolver moves on.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bhavikk10/crypto-trading-bot/internal/metrics"
	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

const defaultFeedURL = "wss://ws-feed.exchange.coinbase.com"

// Config holds the feed connection parameters.
type Config struct {
	URL        string
	Symbols    []string
	WindowSize int           // closed candles retained per symbol
	MaxTickAge time.Duration // quote staleness bound; zero disables
}

// Feed maintains live market state from the exchange WebSocket.
type Feed struct {
	cfg     Config
	metrics *metrics.Metrics

	mu      sync.RWMutex
	quotes  map[string]model.Quote
	windows map[string]*window

	connected atomic.Bool
}

// New creates a Feed for the configured symbols.
func New(cfg Config, m *metrics.Metrics) *Feed {
	if cfg.URL == "" {
		cfg.URL = defaultFeedURL
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 128
	}

	f := &Feed{
		cfg:     cfg,
		metrics: m,
		quotes:  make(map[string]model.Quote, len(cfg.Symbols)),
		windows: make(map[string]*window, len(cfg.Symbols)),
	}
	for _, s := range cfg.Symbols {
		f.windows[s] = newWindow(cfg.WindowSize)
	}
	return f
}

// Run connects and reads until ctx is cancelled, reconnecting with
// exponential backoff on any failure.
func (f *Feed) Run(ctx context.Context) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if err := f.connectAndRead(ctx); err != nil {
			log.Printf("[feed] connection lost: %v", err)
		}
		f.connected.Store(false)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		if f.metrics != nil {
			f.metrics.FeedReconnects.Inc()
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// Connected reports whether the WebSocket is currently established.
func (f *Feed) Connected() bool { return f.connected.Load() }

func (f *Feed) connectAndRead(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.cfg.URL, err)
	}
	defer conn.Close()

	sub := map[string]interface{}{
		"type":        "subscribe",
		"product_ids": f.cfg.Symbols,
		"channels":    []string{"ticker"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.Printf("[feed] connected to %s, subscribed %v", f.cfg.URL, f.cfg.Symbols)
	f.connected.Store(true)

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		f.handleMessage(raw)
	}
}

// tickerMsg is the subset of the exchange ticker payload the feed consumes.
type tickerMsg struct {
	Type      string    `json:"type"`
	ProductID string    `json:"product_id"`
	Price     string    `json:"price"`
	LastSize  string    `json:"last_size"`
	Time      time.Time `json:"time"`
}

func (f *Feed) handleMessage(raw []byte) {
	var msg tickerMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		f.dropTick()
		log.Printf("[feed] parse error: %v", err)
		return
	}
	if msg.Type != "ticker" {
		return
	}

	price, err := strconv.ParseFloat(msg.Price, 64)
	if err != nil || price <= 0 {
		f.dropTick()
		return
	}
	size, _ := strconv.ParseFloat(msg.LastSize, 64)

	ts := msg.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	w, ok := f.lookupWindow(msg.ProductID)
	if !ok {
		f.dropTick()
		return
	}
	w.apply(price, size, ts)

	f.mu.Lock()
	f.quotes[msg.ProductID] = model.Quote{
		Symbol: msg.ProductID,
		Price:  price,
		TS:     ts,
		Source: f.Name(),
	}
	f.mu.Unlock()

	if f.metrics != nil {
		f.metrics.FeedTicksTotal.Inc()
	}
}

func (f *Feed) lookupWindow(symbol string) (*window, bool) {
	f.mu.RLock()
	w, ok := f.windows[symbol]
	f.mu.RUnlock()
	return w, ok
}

// LastTick returns the timestamp of the newest quote across all symbols.
// Zero when no tick has arrived yet.
func (f *Feed) LastTick() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var last time.Time
	for _, q := range f.quotes {
		if q.TS.After(last) {
			last = q.TS
		}
	}
	return last
}

func (f *Feed) dropTick() {
	if f.metrics != nil {
		f.metrics.FeedDroppedTicks.Inc()
	}
}

// Name implements source.Source.
func (f *Feed) Name() string { return "feed" }

// Quote returns the latest live quote for symbol.
func (f *Feed) Quote(_ context.Context, symbol string) (model.Quote, error) {
	f.mu.RLock()
	q, ok := f.quotes[symbol]
	f.mu.RUnlock()

	if !ok {
		return model.Quote{}, fmt.Errorf("no live quote for %s", symbol)
	}
	if f.cfg.MaxTickAge > 0 && time.Since(q.TS) > f.cfg.MaxTickAge {
		return model.Quote{}, fmt.Errorf("live quote for %s is stale (%s old)", symbol, time.Since(q.TS).Round(time.Second))
	}
	return q, nil
}

// History returns up to limit closed minute candles accumulated from the
// live stream.
func (f *Feed) History(_ context.Context, symbol string, limit int) (model.CandleHistory, error) {
	w, ok := f.lookupWindow(symbol)
	if !ok {
		return model.CandleHistory{}, fmt.Errorf("symbol %s not subscribed", symbol)
	}
	if w.len() == 0 {
		return model.CandleHistory{}, fmt.Errorf("no closed candles yet for %s", symbol)
	}
	return model.CandleHistory{Symbol: symbol, Source: f.Name(), Candles: w.last(limit)}, nil
}
