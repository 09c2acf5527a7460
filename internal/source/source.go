// Package source resolves market data through a priority-ordered fallback
// chain: live feed, cached store, external API, and finally a deterministic
// synthetic generator. Resolution never fails; a tier that errors, times
// out, or returns an invalid result is logged and skipped.
package source

import (
	"context"
	"log"
	"time"

	"github.com/bhavikk10/crypto-trading-bot/internal/metrics"
	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

// Source is one tier of the fallback chain.
type Source interface {
	Name() string
	Quote(ctx context.Context, symbol string) (model.Quote, error)
	History(ctx context.Context, symbol string, limit int) (model.CandleHistory, error)
}

// Resolver tries tiers in order under a per-tier timeout and returns the
// first valid result, tagged with the tier name. The synthetic generator is
// the implicit last tier, so resolution always terminates with data.
type Resolver struct {
	tiers   []Source
	synth   *Synthetic
	timeout time.Duration
	metrics *metrics.Metrics
}

// NewResolver builds a resolver over the given tiers. The synthetic
// generator is not part of tiers; it is always the final fallback. A nil
// Metrics disables instrumentation (tests).
func NewResolver(timeout time.Duration, synth *Synthetic, m *metrics.Metrics, tiers ...Source) *Resolver {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if synth == nil {
		synth = NewSynthetic(0)
	}
	return &Resolver{tiers: tiers, synth: synth, timeout: timeout, metrics: m}
}

// ResolveQuote returns the current quote for symbol from the first tier
// that produces a valid one.
func (r *Resolver) ResolveQuote(ctx context.Context, symbol string) model.Quote {
	start := time.Now()
	defer r.observeResolve(start)

	for _, tier := range r.tiers {
		r.countAttempt(tier.Name(), "quote")

		tierCtx, cancel := context.WithTimeout(ctx, r.timeout)
		q, err := tier.Quote(tierCtx, symbol)
		cancel()

		if err != nil {
			r.countFailure(tier.Name(), "quote")
			log.Printf("[source] tier %s quote %s failed: %v", tier.Name(), symbol, err)
			continue
		}
		if !q.Valid() {
			r.countFailure(tier.Name(), "quote")
			log.Printf("[source] tier %s quote %s invalid, skipping", tier.Name(), symbol)
			continue
		}
		q.Source = tier.Name()
		return q
	}

	r.countFallback("quote")
	q, _ := r.synth.Quote(ctx, symbol)
	q.Source = r.synth.Name()
	return q
}

// ResolveHistory returns up to limit candles for symbol from the first tier
// that produces a valid, non-empty history.
func (r *Resolver) ResolveHistory(ctx context.Context, symbol string, limit int) model.CandleHistory {
	start := time.Now()
	defer r.observeResolve(start)

	for _, tier := range r.tiers {
		r.countAttempt(tier.Name(), "history")

		tierCtx, cancel := context.WithTimeout(ctx, r.timeout)
		h, err := tier.History(tierCtx, symbol, limit)
		cancel()

		if err != nil {
			r.countFailure(tier.Name(), "history")
			log.Printf("[source] tier %s history %s failed: %v", tier.Name(), symbol, err)
			continue
		}
		if !h.Valid() {
			r.countFailure(tier.Name(), "history")
			log.Printf("[source] tier %s history %s invalid, skipping", tier.Name(), symbol)
			continue
		}
		h.Source = tier.Name()
		return h
	}

	r.countFallback("history")
	h, _ := r.synth.History(ctx, symbol, limit)
	h.Source = r.synth.Name()
	return h
}

func (r *Resolver) countAttempt(tier, kind string) {
	if r.metrics != nil {
		r.metrics.ResolverAttempts.WithLabelValues(tier, kind).Inc()
	}
}

func (r *Resolver) countFailure(tier, kind string) {
	if r.metrics != nil {
		r.metrics.ResolverFailures.WithLabelValues(tier, kind).Inc()
	}
}

func (r *Resolver) countFallback(kind string) {
	if r.metrics != nil {
		r.metrics.ResolverFallbacks.WithLabelValues(kind).Inc()
	}
}

func (r *Resolver) observeResolve(start time.Time) {
	if r.metrics != nil {
		r.metrics.ResolveDur.Observe(time.Since(start).Seconds())
	}
}
