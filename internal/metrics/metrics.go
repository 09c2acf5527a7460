package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the trading bot.
type Metrics struct {
	// Source resolver
	ResolverAttempts  *prometheus.CounterVec // labels: tier, kind=quote|history
	ResolverFailures  *prometheus.CounterVec // labels: tier, kind
	ResolverFallbacks *prometheus.CounterVec // labels: kind
	ResolveDur        prometheus.Histogram

	// Evaluation pipeline
	EvaluationsTotal   *prometheus.CounterVec // labels: symbol, decision
	EvaluationDur      prometheus.Histogram
	EvaluationsSkipped prometheus.Counter
	DegradedIndicators *prometheus.CounterVec // labels: indicator, reason

	// Feed ingest
	FeedTicksTotal   prometheus.Counter
	FeedReconnects   prometheus.Counter
	FeedDroppedTicks prometheus.Counter

	// Stores
	RedisWriteDur   prometheus.Histogram
	RedisLogErrors  prometheus.Counter
	SQLiteCommitDur prometheus.Histogram

	// Circuit breaker
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter
	RedisBufferedWrites      prometheus.Counter

	// Gateway
	WSClients         prometheus.Gauge
	WSDroppedMessages prometheus.Counter

	// Notifications
	AlertsTotal *prometheus.CounterVec // labels: notifier
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		ResolverAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_resolver_attempts_total",
			Help: "Source tier resolution attempts",
		}, []string{"tier", "kind"}),
		ResolverFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_resolver_failures_total",
			Help: "Source tier resolution failures (timeout or invalid result)",
		}, []string{"tier", "kind"}),
		ResolverFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_resolver_fallbacks_total",
			Help: "Resolutions that exhausted all tiers and used the synthetic generator",
		}, []string{"kind"}),
		ResolveDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradebot_resolve_duration_seconds",
			Help:    "Full fallback-chain resolution latency",
			Buckets: prometheus.DefBuckets,
		}),

		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_evaluations_total",
			Help: "Completed evaluation ticks by symbol and decision",
		}, []string{"symbol", "decision"}),
		EvaluationDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradebot_evaluation_duration_seconds",
			Help:    "Full pipeline latency per evaluation tick",
			Buckets: prometheus.DefBuckets,
		}),
		EvaluationsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_evaluations_skipped_total",
			Help: "Ticks skipped because the previous evaluation was still running",
		}),
		DegradedIndicators: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_degraded_indicators_total",
			Help: "Indicator computations that fell back to neutral defaults",
		}, []string{"indicator", "reason"}),

		FeedTicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_feed_ticks_total",
			Help: "Ticker messages received from the exchange WebSocket",
		}),
		FeedReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_feed_reconnects_total",
			Help: "Exchange WebSocket reconnection attempts",
		}),
		FeedDroppedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_feed_dropped_ticks_total",
			Help: "Ticker messages dropped (unparseable or unknown symbol)",
		}),

		RedisWriteDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradebot_redis_write_duration_seconds",
			Help:    "Redis snapshot write latency",
			Buckets: prometheus.DefBuckets,
		}),
		RedisLogErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_redis_log_errors_total",
			Help: "Failed Redis snapshot writes",
		}),
		SQLiteCommitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradebot_sqlite_commit_duration_seconds",
			Help:    "SQLite batch commit latency",
			Buckets: prometheus.DefBuckets,
		}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),
		RedisBufferedWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_redis_buffered_writes_total",
			Help: "Writes buffered locally while the circuit breaker was open",
		}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_ws_clients",
			Help: "Currently connected dashboard WebSocket clients",
		}),
		WSDroppedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_ws_dropped_messages_total",
			Help: "Snapshot messages dropped on slow WebSocket clients",
		}),

		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_alerts_total",
			Help: "Actionable-signal alerts delivered per notifier",
		}, []string{"notifier"}),
	}

	prometheus.MustRegister(
		m.ResolverAttempts,
		m.ResolverFailures,
		m.ResolverFallbacks,
		m.ResolveDur,
		m.EvaluationsTotal,
		m.EvaluationDur,
		m.EvaluationsSkipped,
		m.DegradedIndicators,
		m.FeedTicksTotal,
		m.FeedReconnects,
		m.FeedDroppedTicks,
		m.RedisWriteDur,
		m.RedisLogErrors,
		m.SQLiteCommitDur,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
		m.RedisBufferedWrites,
		m.WSClients,
		m.WSDroppedMessages,
		m.AlertsTotal,
	)

	return m
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	FeedConnected  bool      `json:"feed_connected"`
	LastTickTime   time.Time `json:"last_tick_time"`
	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`
	Symbols        []string  `json:"symbols"`

	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetFeedConnected(v bool) {
	h.mu.Lock()
	h.FeedConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastTickTime(t time.Time) {
	h.mu.Lock()
	h.LastTickTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetSymbols(symbols []string) {
	h.mu.Lock()
	h.Symbols = symbols
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint. The pipeline itself never goes
// unhealthy (the synthetic tier keeps it fed); health reflects the optional
// collaborators around it.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	if !h.FeedConnected || !h.RedisConnected || !h.SQLiteOK {
		overallStatus = "degraded"
	}

	tickAge := ""
	if !h.LastTickTime.IsZero() {
		tickAge = time.Since(h.LastTickTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string   `json:"status"`
		Uptime          string   `json:"uptime"`
		FeedConnected   bool     `json:"feed_connected"`
		LastTickTime    string   `json:"last_tick_time"`
		TickAge         string   `json:"tick_age"`
		RedisConnected  bool     `json:"redis_connected"`
		RedisLatencyMs  float64  `json:"redis_latency_ms"`
		SQLiteOK        bool     `json:"sqlite_ok"`
		SQLiteLatencyMs float64  `json:"sqlite_latency_ms"`
		Symbols         []string `json:"symbols"`
		LastCheckAt     string   `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		FeedConnected:   h.FeedConnected,
		LastTickTime:    h.LastTickTime.Format(time.RFC3339),
		TickAge:         tickAge,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		Symbols:         h.Symbols,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
