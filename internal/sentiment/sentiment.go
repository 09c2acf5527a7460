// Package sentiment provides the market sentiment input for signal fusion.
// Providers are chained like the source resolver tiers: a Redis-backed
// reading from an external analyzer first, then the built-in keyword
// analyzer, with a neutral constant as the last resort. A reading is always
// produced.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

// Provider produces a sentiment reading for the market.
type Provider interface {
	Name() string
	Sentiment(ctx context.Context) (model.Sentiment, error)
}

// Chain tries providers in order and falls back to neutral. Never fails.
type Chain struct {
	providers []Provider
}

// NewChain builds the provider chain.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Sentiment returns the first valid reading, clamped to [0,100], or the
// neutral fallback when every provider fails.
func (c *Chain) Sentiment(ctx context.Context) model.Sentiment {
	for _, p := range c.providers {
		s, err := p.Sentiment(ctx)
		if err != nil {
			log.Printf("[sentiment] provider %s failed: %v", p.Name(), err)
			continue
		}
		s.Score = clampScore(s.Score)
		if s.Label == "" {
			s.Label = model.LabelForScore(s.Score)
		}
		if s.TS.IsZero() {
			s.TS = time.Now().UTC()
		}
		return s
	}
	return model.NeutralSentiment()
}

// redisKey is where an external analyzer publishes its latest reading.
const redisKey = "sentiment:latest"

// RedisProvider reads the latest externally produced sentiment from Redis.
type RedisProvider struct {
	rdb    *goredis.Client
	maxAge time.Duration
}

// NewRedisProvider creates the Redis provider. maxAge bounds reading
// staleness; zero disables the check.
func NewRedisProvider(rdb *goredis.Client, maxAge time.Duration) *RedisProvider {
	return &RedisProvider{rdb: rdb, maxAge: maxAge}
}

func (p *RedisProvider) Name() string { return "redis" }

func (p *RedisProvider) Sentiment(ctx context.Context) (model.Sentiment, error) {
	raw, err := p.rdb.Get(ctx, redisKey).Result()
	if err == goredis.Nil {
		return model.Sentiment{}, fmt.Errorf("no sentiment reading published")
	}
	if err != nil {
		return model.Sentiment{}, fmt.Errorf("redis get sentiment: %w", err)
	}

	var s model.Sentiment
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return model.Sentiment{}, fmt.Errorf("decode sentiment reading: %w", err)
	}
	if p.maxAge > 0 && time.Since(s.TS) > p.maxAge {
		return model.Sentiment{}, fmt.Errorf("sentiment reading is stale (%s old)", time.Since(s.TS).Round(time.Second))
	}
	return s, nil
}

// Static always returns the same score. Used as a test double and for the
// -offline one-shot mode.
type Static struct {
	Score float64
}

func (s Static) Name() string { return "static" }

func (s Static) Sentiment(context.Context) (model.Sentiment, error) {
	score := clampScore(s.Score)
	return model.Sentiment{
		Score: score,
		Label: model.LabelForScore(score),
		TS:    time.Now().UTC(),
	}, nil
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
