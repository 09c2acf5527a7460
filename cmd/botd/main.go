// Command botd runs the trading bot daemon: the evaluation engine, the
// HTTP/WebSocket gateway, and the Redis and SQLite sinks. Every external
// service is optional; with nothing configured the bot runs end to end on
// the synthetic data tier.
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/bhavikk10/crypto-trading-bot/internal/config"
	"github.com/bhavikk10/crypto-trading-bot/internal/engine"
	"github.com/bhavikk10/crypto-trading-bot/internal/feed"
	"github.com/bhavikk10/crypto-trading-bot/internal/gateway"
	"github.com/bhavikk10/crypto-trading-bot/internal/indicator"
	"github.com/bhavikk10/crypto-trading-bot/internal/logger"
	"github.com/bhavikk10/crypto-trading-bot/internal/metrics"
	"github.com/bhavikk10/crypto-trading-bot/internal/notification"
	"github.com/bhavikk10/crypto-trading-bot/internal/risk"
	"github.com/bhavikk10/crypto-trading-bot/internal/sentiment"
	"github.com/bhavikk10/crypto-trading-bot/internal/source"
	redisstore "github.com/bhavikk10/crypto-trading-bot/internal/store/redis"
	sqlitestore "github.com/bhavikk10/crypto-trading-bot/internal/store/sqlite"
	"github.com/bhavikk10/crypto-trading-bot/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[botd] starting...")

	// ---- Load config from env ----
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[botd] config load failed: %v", err)
	}
	logger.Init("botd", logger.ParseLevel(cfg.LogLevel))
	log.Printf("[botd] symbols=%v interval=%s", cfg.Symbols, cfg.Interval)

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.SetSymbols(cfg.Symbols)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Redis logger (optional) ----
	var redisLogger *redisstore.Logger
	var bufferedLogger *redisstore.BufferedLogger
	if cfg.RedisAddr != "" {
		redisLogger, err = redisstore.New(redisstore.LoggerConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Printf("[botd] WARNING: redis init failed: %v (continuing without redis)", err)
			redisLogger = nil
		} else {
			breaker := redisstore.NewBreaker(5, 10*time.Second)
			breaker.OnStateChange = func(from, to redisstore.State) {
				prom.RedisCircuitBreakerState.Set(float64(to))
				if to == redisstore.StateOpen {
					prom.RedisCircuitBreakerTrips.Inc()
				}
			}
			bufferedLogger = redisstore.NewBufferedLogger(ctx, redisLogger, breaker, 10000)
			bufferedLogger.OnBuffer = func() { prom.RedisBufferedWrites.Inc() }
			log.Println("[botd] redis logger ready")
		}
	}

	// ---- SQLite writer (optional) ----
	var sqlWriter *sqlitestore.Writer
	if cfg.SQLitePath != "" {
		os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
		sqlWriter, err = sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
		if err != nil {
			log.Fatalf("[botd] sqlite init failed: %v", err)
		}
		defer sqlWriter.Close()
		sqlWriter.OnCommit = func(d time.Duration) {
			prom.SQLiteCommitDur.Observe(d.Seconds())
		}
		log.Println("[botd] sqlite writer ready")
	}

	// ---- Periodic liveness checks ----
	var sqlDB *sql.DB
	if sqlWriter != nil {
		sqlDB = sqlWriter.DB()
	}
	if redisLogger != nil || sqlDB != nil {
		health.StartLivenessChecker(ctx, redisClient(redisLogger), sqlDB, 10*time.Second)
	}

	// ---- Live feed (optional, first resolver tier) ----
	var tiers []source.Source
	if cfg.FeedEnabled {
		liveFeed := feed.New(feed.Config{
			URL:        cfg.FeedURL,
			Symbols:    cfg.Symbols,
			WindowSize: cfg.HistoryLimit + 8,
			MaxTickAge: cfg.QuoteMaxAge,
		}, prom)
		go liveFeed.Run(ctx)
		go func() {
			ticker := time.NewTicker(5 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					health.SetFeedConnected(liveFeed.Connected())
					if last := liveFeed.LastTick(); !last.IsZero() {
						health.SetLastTickTime(last)
					}
				}
			}
		}()
		tiers = append(tiers, liveFeed)
	}

	// ---- Remaining resolver tiers ----
	if redisLogger != nil {
		tiers = append(tiers, source.NewCache(redisLogger.Client(), cfg.QuoteMaxAge))
	}
	tiers = append(tiers, source.NewCoinbase(cfg.CoinbaseURL, cfg.SourceTimeout))

	synth := source.NewSynthetic(cfg.SyntheticSeed)
	resolver := source.NewResolver(cfg.SourceTimeout, synth, prom, tiers...)

	// ---- Sentiment providers ----
	var providers []sentiment.Provider
	if redisLogger != nil {
		providers = append(providers, sentiment.NewRedisProvider(redisLogger.Client(), cfg.SentimentMaxAge))
	}
	providers = append(providers, sentiment.NewKeyword(nil))
	sentiments := sentiment.NewChain(providers...)

	// ---- Notifiers ----
	notifiers := []notification.Notifier{notification.NewLogNotifier()}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	alerts := notification.NewFanout(func(n string) {
		prom.AlertsTotal.WithLabelValues(n).Inc()
	}, notifiers...)

	// ---- Evaluation engine ----
	eng := engine.New(engine.Config{
		Symbols:        cfg.Symbols,
		Interval:       cfg.Interval,
		HistoryLimit:   cfg.HistoryLimit,
		PortfolioValue: cfg.PortfolioValue,
	},
		resolver,
		indicator.NewEngine(cfg.Indicator()),
		risk.NewEngine(cfg.Risk()),
		strategy.NewFusion(cfg.Strategy()),
		sentiments,
		alerts,
		prom,
	)

	// ---- Snapshot sinks (subscribe before the engine starts) ----
	hub := gateway.NewHub(eng, prom)

	if bufferedLogger != nil {
		redisCh := eng.Subscribe("redis")
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case snap, ok := <-redisCh:
					if !ok {
						return
					}
					start := time.Now()
					if err := bufferedLogger.LogSnapshot(snap); err != nil {
						prom.RedisLogErrors.Inc()
						log.Printf("[botd] redis log failed: %v", err)
						continue
					}
					prom.RedisWriteDur.Observe(time.Since(start).Seconds())
				}
			}
		}()

		// Keep the redis-cache tier stocked so restarts resolve from cache
		// instead of hitting the exchange.
		go cacheHistories(ctx, resolver, redisLogger, cfg.Symbols, cfg.HistoryLimit)
	}

	if sqlWriter != nil {
		go sqlWriter.Run(ctx, eng.Subscribe("sqlite"))
	}

	go eng.Run(ctx)
	go hub.Run(ctx)

	// ---- HTTP gateway ----
	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux, gateway.Deps{
		Hub:          hub,
		Engine:       eng,
		Redis:        redisClient(redisLogger),
		RedisLog:     redisLogger,
		Store:        sqlWriter,
		ConfigStatus: cfg.Status(),
		ProcessStart: time.Now(),
	})
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		log.Printf("[botd] gateway listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[botd] gateway failed: %v", err)
		}
	}()

	// ---- Wait for shutdown signal ----
	<-sigCh
	log.Println("[botd] shutdown signal received, cleaning up...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)

	if redisLogger != nil {
		redisLogger.Close()
	}

	log.Println("[botd] shutdown complete.")
}

// cacheHistories periodically resolves each symbol's history and writes it to
// the Redis candle cache. Histories the cache itself produced are skipped.
func cacheHistories(ctx context.Context, resolver *source.Resolver, rl *redisstore.Logger, symbols []string, limit int) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	warm := func() {
		for _, symbol := range symbols {
			h := resolver.ResolveHistory(ctx, symbol, limit)
			if h.Source == "redis-cache" || h.Source == "synthetic" {
				continue
			}
			if err := rl.CacheHistory(ctx, h); err != nil {
				log.Printf("[botd] history cache write failed for %s: %v", symbol, err)
			}
		}
	}

	warm()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			warm()
		}
	}
}

// redisClient returns the underlying client, or nil when Redis is not
// configured, so the gateway health check can skip the ping.
func redisClient(rl *redisstore.Logger) *goredis.Client {
	if rl == nil {
		return nil
	}
	return rl.Client()
}
