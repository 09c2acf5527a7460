// Package engine runs the evaluation pipeline: once per tick, for every
// configured symbol, it resolves market data, computes indicators, derives
// risk controls, fuses the trading signal, and fans the composed snapshot
// out to the registered sinks. A tick is skipped for a symbol whose previous
// evaluation is still in flight.
package engine

import (
	"context"
	"log"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bhavikk10/crypto-trading-bot/internal/indicator"
	"github.com/bhavikk10/crypto-trading-bot/internal/logger"
	"github.com/bhavikk10/crypto-trading-bot/internal/metrics"
	"github.com/bhavikk10/crypto-trading-bot/internal/model"
	"github.com/bhavikk10/crypto-trading-bot/internal/notification"
	"github.com/bhavikk10/crypto-trading-bot/internal/risk"
	"github.com/bhavikk10/crypto-trading-bot/internal/sentiment"
	"github.com/bhavikk10/crypto-trading-bot/internal/source"
	"github.com/bhavikk10/crypto-trading-bot/internal/strategy"
)

// Config holds the evaluation loop parameters.
type Config struct {
	Symbols        []string
	Interval       time.Duration
	HistoryLimit   int
	PortfolioValue float64
}

// Engine orchestrates one evaluation pipeline per symbol per tick.
type Engine struct {
	cfg        Config
	resolver   *source.Resolver
	indicators *indicator.Engine
	riskEngine *risk.Engine
	fusion     *strategy.Fusion
	sentiments *sentiment.Chain
	metrics    *metrics.Metrics
	alerts     *notification.Fanout

	out chan model.Snapshot
	fan *Fanout

	mu     sync.RWMutex
	latest map[string]model.Snapshot
	busy   map[string]*atomic.Bool
}

// New wires the pipeline components. alerts and m may be nil.
func New(cfg Config, resolver *source.Resolver, ind *indicator.Engine, riskEngine *risk.Engine,
	fusion *strategy.Fusion, sentiments *sentiment.Chain, alerts *notification.Fanout, m *metrics.Metrics) *Engine {

	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 100
	}
	if cfg.PortfolioValue <= 0 {
		cfg.PortfolioValue = 10000
	}

	e := &Engine{
		cfg:        cfg,
		resolver:   resolver,
		indicators: ind,
		riskEngine: riskEngine,
		fusion:     fusion,
		sentiments: sentiments,
		metrics:    m,
		alerts:     alerts,
		out:        make(chan model.Snapshot, len(cfg.Symbols)*2+4),
		fan:        NewFanout(16),
		latest:     make(map[string]model.Snapshot, len(cfg.Symbols)),
		busy:       make(map[string]*atomic.Bool, len(cfg.Symbols)),
	}
	for _, s := range cfg.Symbols {
		e.busy[s] = &atomic.Bool{}
	}
	if m != nil {
		e.fan.OnDrop = func(string) { m.WSDroppedMessages.Inc() }
	}
	return e
}

// Subscribe registers a named snapshot sink. Must be called before Run.
func (e *Engine) Subscribe(name string) <-chan model.Snapshot {
	return e.fan.Subscribe(name)
}

// Run evaluates all symbols immediately and then once per interval until
// ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	go e.fan.Run(ctx, e.out)

	log.Printf("[engine] evaluating %v every %s", e.cfg.Symbols, e.cfg.Interval)
	e.tick(ctx)

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

// tick launches one evaluation per symbol, skipping symbols whose previous
// evaluation has not finished.
func (e *Engine) tick(ctx context.Context) {
	for _, symbol := range e.cfg.Symbols {
		flag := e.busy[symbol]
		if !flag.CompareAndSwap(false, true) {
			log.Printf("[engine] %s still evaluating, skipping tick", symbol)
			if e.metrics != nil {
				e.metrics.EvaluationsSkipped.Inc()
			}
			continue
		}

		go func(symbol string) {
			defer flag.Store(false)
			snap := e.Evaluate(ctx, symbol)
			select {
			case e.out <- snap:
			default:
				log.Printf("[engine] output channel full, dropping snapshot %s", symbol)
			}
		}(symbol)
	}
}

// Evaluate runs the full pipeline for one symbol and returns the composed
// snapshot. It never fails: every stage degrades to a usable default.
func (e *Engine) Evaluate(ctx context.Context, symbol string) model.Snapshot {
	start := time.Now()
	ctx = logger.WithTraceID(ctx, logger.GenerateTraceID(symbol, start))

	quote := e.resolver.ResolveQuote(ctx, symbol)
	history := e.resolver.ResolveHistory(ctx, symbol, e.cfg.HistoryLimit)

	ind := e.indicators.Compute(history)
	e.countDegraded(ind.Degraded)

	sent := e.sentiments.Sentiment(ctx)
	controls := e.riskEngine.Controls(quote.Price, ind.ATR, e.cfg.PortfolioValue)
	signal := e.fusion.Fuse(ind.RSI, ind.ADX, sent.Score)

	snap := model.Snapshot{
		Symbol:     symbol,
		Quote:      quote,
		Indicators: ind,
		Risk:       controls,
		Sentiment:  sent,
		Signal:     signal,
		TS:         time.Now().UTC(),
	}

	e.mu.Lock()
	e.latest[symbol] = snap
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.EvaluationsTotal.WithLabelValues(symbol, string(signal.Decision)).Inc()
		e.metrics.EvaluationDur.Observe(time.Since(start).Seconds())
	}

	slog.Info("evaluation complete", append([]any{
		slog.String("symbol", symbol),
		slog.String("decision", string(signal.Decision)),
		slog.String("strength", string(signal.Strength)),
		slog.Float64("confidence", signal.Confidence),
		slog.String("source", quote.Source),
	}, logger.LogWithTrace(ctx)...)...)

	if signal.Actionable() && e.alerts != nil {
		e.alerts.Send(ctx, notification.SignalAlert(symbol, signal))
	}

	return snap
}

// Latest returns the most recent snapshot for symbol, if one exists.
func (e *Engine) Latest(symbol string) (model.Snapshot, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	snap, ok := e.latest[symbol]
	return snap, ok
}

// LatestAll returns the most recent snapshot for every evaluated symbol, in
// configuration order.
func (e *Engine) LatestAll() []model.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]model.Snapshot, 0, len(e.latest))
	for _, s := range e.cfg.Symbols {
		if snap, ok := e.latest[s]; ok {
			out = append(out, snap)
		}
	}
	return out
}

// Symbols returns the configured symbol list.
func (e *Engine) Symbols() []string { return e.cfg.Symbols }

func (e *Engine) countDegraded(entries []string) {
	if e.metrics == nil {
		return
	}
	for _, entry := range entries {
		name, reason := entry, ""
		if i := strings.IndexByte(entry, ':'); i >= 0 {
			name, reason = entry[:i], entry[i+1:]
		}
		e.metrics.DegradedIndicators.WithLabelValues(name, reason).Inc()
	}
}
