// Package redis persists evaluation output to Redis: per-kind streams with
// bounded retention for history, latest-value keys with TTL for cheap
// lookups, and pub/sub for live subscribers. It also refills the cache keys
// the source resolver's redis-cache tier reads, so data survives restarts.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

const (
	streamMaxLen     = 1000
	defaultLatestTTL = 24 * time.Hour
)

// LoggerConfig configures the Redis logger.
type LoggerConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
}

// Logger writes evaluation snapshots and their parts to Redis.
type Logger struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks and the
// cache/sentiment readers.
func (l *Logger) Client() *goredis.Client { return l.client }

// New creates a Logger and pings the server.
func New(cfg LoggerConfig) (*Logger, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Logger{client: client}, nil
}

// NewWithClient wraps an existing client (tests).
func NewWithClient(client *goredis.Client) *Logger {
	return &Logger{client: client}
}

// LogSnapshot writes one evaluation snapshot in a single pipeline: the
// composed snapshot plus its price, indicators, signal, risk, and sentiment
// parts, each as XADD + SET latest + PUBLISH. The quote is also written to
// the resolver cache key.
func (l *Logger) LogSnapshot(ctx context.Context, snap model.Snapshot) error {
	pipe := l.client.Pipeline()

	l.logPart(ctx, pipe, "snapshot", snap.Symbol, snap.JSON())
	l.logPart(ctx, pipe, "price", snap.Symbol, snap.Quote.JSON())
	l.logPart(ctx, pipe, "indicators", snap.Symbol, snap.Indicators.JSON())
	l.logPart(ctx, pipe, "signal", snap.Symbol, snap.Signal.JSON())
	l.logPart(ctx, pipe, "risk", snap.Symbol, snap.Risk.JSON())
	l.logPart(ctx, pipe, "sentiment", snap.Symbol, snap.Sentiment.JSON())

	// Refill the cache tier so a restart can resolve from Redis.
	pipe.Set(ctx, "quote:latest:"+snap.Symbol, string(snap.Quote.JSON()), defaultLatestTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("snapshot pipeline for %s: %w", snap.Symbol, err)
	}
	return nil
}

func (l *Logger) logPart(ctx context.Context, pipe goredis.Pipeliner, kind, symbol string, payload []byte) {
	data := string(payload)

	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: "log:" + kind + ":" + symbol,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": data},
	})
	pipe.Set(ctx, kind+":latest:"+symbol, data, defaultLatestTTL)
	pipe.Publish(ctx, "pub:"+kind+":"+symbol, data)
}

// CacheHistory replaces the resolver cache's candle list for a symbol with
// the given history.
func (l *Logger) CacheHistory(ctx context.Context, h model.CandleHistory) error {
	if h.Len() == 0 {
		return nil
	}

	key := "candles:" + h.Symbol
	entries := make([]interface{}, 0, h.Len())
	for _, c := range h.Candles {
		entries = append(entries, string(c.JSON()))
	}

	pipe := l.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.RPush(ctx, key, entries...)
	pipe.LTrim(ctx, key, -streamMaxLen, -1)
	pipe.Expire(ctx, key, defaultLatestTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache history for %s: %w", h.Symbol, err)
	}
	return nil
}

// Latest reads the most recent value of a kind for a symbol, as written by
// LogSnapshot.
func (l *Logger) Latest(ctx context.Context, kind, symbol string) ([]byte, error) {
	raw, err := l.client.Get(ctx, kind+":latest:"+symbol).Bytes()
	if err == goredis.Nil {
		return nil, fmt.Errorf("no %s logged for %s", kind, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s latest: %w", kind, err)
	}
	return raw, nil
}

// Recent reads up to limit recent entries of a kind for a symbol, oldest
// first.
func (l *Logger) Recent(ctx context.Context, kind, symbol string, limit int64) ([][]byte, error) {
	msgs, err := l.client.XRevRangeN(ctx, "log:"+kind+":"+symbol, "+", "-", limit).Result()
	if err != nil {
		return nil, fmt.Errorf("redis xrevrange %s: %w", kind, err)
	}

	out := make([][]byte, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		if data, ok := msgs[i].Values["data"].(string); ok {
			out = append(out, []byte(data))
		}
	}
	return out, nil
}

// Close closes the Redis client.
func (l *Logger) Close() error {
	return l.client.Close()
}
