package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"

	"github.com/bhavikk10/crypto-trading-bot/internal/engine"
	"github.com/bhavikk10/crypto-trading-bot/internal/model"
	redisstore "github.com/bhavikk10/crypto-trading-bot/internal/store/redis"
	sqlitestore "github.com/bhavikk10/crypto-trading-bot/internal/store/sqlite"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// Deps carries everything the REST handlers read from. Redis, RedisLog, and
// Store may be nil; the endpoints that need them degrade instead of failing.
type Deps struct {
	Hub          *Hub
	Engine       *engine.Engine
	Redis        *goredis.Client
	RedisLog     *redisstore.Logger
	Store        *sqlitestore.Writer
	ConfigStatus map[string]bool
	ProcessStart time.Time
}

// logKinds are the per-kind Redis streams LogSnapshot writes.
var logKinds = map[string]bool{
	"snapshot": true, "price": true, "indicators": true,
	"signal": true, "risk": true, "sentiment": true,
}

// RegisterRoutes registers all HTTP routes on the provided mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		d.Hub.HandleWSRequest(conn, r.URL.Query().Get("last_ts"))
	})

	mux.HandleFunc("/api/price", snapshotField(d, func(s model.Snapshot) interface{} {
		return s.Quote
	}))
	mux.HandleFunc("/api/indicators", snapshotField(d, func(s model.Snapshot) interface{} {
		return s.Indicators
	}))
	mux.HandleFunc("/api/sentiment", snapshotField(d, func(s model.Snapshot) interface{} {
		return s.Sentiment
	}))
	mux.HandleFunc("/api/signal", snapshotField(d, func(s model.Snapshot) interface{} {
		return s.Signal
	}))
	mux.HandleFunc("/api/risk", snapshotField(d, func(s model.Snapshot) interface{} {
		return s.Risk
	}))
	mux.HandleFunc("/api/snapshot", snapshotField(d, func(s model.Snapshot) interface{} {
		return s
	}))

	// REST: latest decision per evaluated symbol plus process health.
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		type symbolStatus struct {
			Symbol     string    `json:"symbol"`
			Decision   string    `json:"decision"`
			Strength   string    `json:"strength"`
			Confidence float64   `json:"confidence"`
			Price      float64   `json:"price"`
			Source     string    `json:"source"`
			TS         time.Time `json:"ts"`
		}
		all := d.Engine.LatestAll()
		statuses := make([]symbolStatus, 0, len(all))
		for _, s := range all {
			statuses = append(statuses, symbolStatus{
				Symbol:     s.Symbol,
				Decision:   string(s.Signal.Decision),
				Strength:   string(s.Signal.Strength),
				Confidence: s.Signal.Confidence,
				Price:      s.Quote.Price,
				Source:     s.Quote.Source,
				TS:         s.TS,
			})
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     "running",
			"symbols":    statuses,
			"ws_clients": d.Hub.ClientCount(),
			"uptime_sec": int64(time.Since(d.ProcessStart).Seconds()),
			"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// REST: which optional integrations are wired.
	mux.HandleFunc("/api/config-status", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"configuration": d.ConfigStatus,
			"message":       "check which integrations are configured",
			"ts":            time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// REST: persisted evaluation history, newest first.
	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		if d.Store == nil {
			json.NewEncoder(w).Encode([]interface{}{})
			return
		}

		limit := 100
		if s := r.URL.Query().Get("limit"); s != "" {
			if l, err := strconv.Atoi(s); err == nil && l > 0 && l <= 1000 {
				limit = l
			}
		}

		rows, err := d.Store.Recent(symbolParam(r, d.Engine), limit)
		if err != nil {
			log.Printf("[gateway] history query failed: %v", err)
			json.NewEncoder(w).Encode([]interface{}{})
			return
		}
		json.NewEncoder(w).Encode(rows)
	})

	// REST: recent entries from the Redis log streams, oldest first.
	mux.HandleFunc("/api/logs", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		if d.RedisLog == nil {
			json.NewEncoder(w).Encode([]interface{}{})
			return
		}

		kind := r.URL.Query().Get("kind")
		if !logKinds[kind] {
			kind = "signal"
		}
		symbol := symbolParam(r, d.Engine)

		// latest=true reads the per-kind latest key instead of the stream.
		if r.URL.Query().Get("latest") == "true" {
			raw, err := d.RedisLog.Latest(r.Context(), kind, symbol)
			if err != nil {
				log.Printf("[gateway] latest log query failed: %v", err)
				json.NewEncoder(w).Encode(nil)
				return
			}
			w.Write(raw)
			return
		}

		limit := int64(50)
		if s := r.URL.Query().Get("limit"); s != "" {
			if l, err := strconv.ParseInt(s, 10, 64); err == nil && l > 0 && l <= 1000 {
				limit = l
			}
		}

		entries, err := d.RedisLog.Recent(r.Context(), kind, symbol, limit)
		if err != nil {
			log.Printf("[gateway] log query failed: %v", err)
			json.NewEncoder(w).Encode([]interface{}{})
			return
		}

		out := make([]json.RawMessage, 0, len(entries))
		for _, e := range entries {
			out = append(out, json.RawMessage(e))
		}
		json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		redisOK := false
		if d.Redis != nil && d.Redis.Ping(r.Context()).Err() == nil {
			redisOK = true
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     "ok",
			"redis":      redisOK,
			"ws_clients": d.Hub.ClientCount(),
			"uptime_sec": int64(time.Since(d.ProcessStart).Seconds()),
			"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}

// snapshotField serves one field of the latest snapshot for the requested
// symbol, evaluating on demand when no tick has run for it yet.
func snapshotField(d Deps, field func(model.Snapshot) interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		symbol := symbolParam(r, d.Engine)
		snap, ok := d.Engine.Latest(symbol)
		if !ok {
			snap = d.Engine.Evaluate(r.Context(), symbol)
		}
		json.NewEncoder(w).Encode(field(snap))
	}
}

func symbolParam(r *http.Request, eng *engine.Engine) string {
	if s := r.URL.Query().Get("symbol"); s != "" {
		return s
	}
	if symbols := eng.Symbols(); len(symbols) > 0 {
		return symbols[0]
	}
	return "BTC-USD"
}
