package source

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

// Redis key layout shared with the snapshot logger and any upstream collector.
const (
	quoteKeyPrefix   = "quote:latest:"
	candlesKeyPrefix = "candles:"
)

// Cache is the cached-store tier. It reads quotes and candle lists that an
// upstream collector (the feed ingest or an external system) has written to
// Redis. Stale entries are rejected by age rather than trusted blindly.
type Cache struct {
	rdb    *goredis.Client
	maxAge time.Duration
}

// NewCache creates the cache tier. maxAge bounds how old a cached quote may
// be before it is treated as a miss; zero disables the check.
func NewCache(rdb *goredis.Client, maxAge time.Duration) *Cache {
	return &Cache{rdb: rdb, maxAge: maxAge}
}

func (c *Cache) Name() string { return "redis-cache" }

// Quote reads the latest cached quote for symbol.
func (c *Cache) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	raw, err := c.rdb.Get(ctx, quoteKeyPrefix+symbol).Result()
	if err == goredis.Nil {
		return model.Quote{}, fmt.Errorf("no cached quote for %s", symbol)
	}
	if err != nil {
		return model.Quote{}, fmt.Errorf("redis get quote: %w", err)
	}

	var q model.Quote
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return model.Quote{}, fmt.Errorf("decode cached quote: %w", err)
	}
	if c.maxAge > 0 && time.Since(q.TS) > c.maxAge {
		return model.Quote{}, fmt.Errorf("cached quote for %s is stale (%s old)", symbol, time.Since(q.TS).Round(time.Second))
	}
	return q, nil
}

// History reads the most recent limit candles cached for symbol.
func (c *Cache) History(ctx context.Context, symbol string, limit int) (model.CandleHistory, error) {
	entries, err := c.rdb.LRange(ctx, candlesKeyPrefix+symbol, int64(-limit), -1).Result()
	if err != nil {
		return model.CandleHistory{}, fmt.Errorf("redis lrange candles: %w", err)
	}
	if len(entries) == 0 {
		return model.CandleHistory{}, fmt.Errorf("no cached candles for %s", symbol)
	}

	candles := make([]model.Candle, 0, len(entries))
	for _, entry := range entries {
		var c model.Candle
		if err := json.Unmarshal([]byte(entry), &c); err != nil {
			return model.CandleHistory{}, fmt.Errorf("decode cached candle: %w", err)
		}
		candles = append(candles, c)
	}

	return model.CandleHistory{Symbol: symbol, Source: "redis-cache", Candles: candles}, nil
}
