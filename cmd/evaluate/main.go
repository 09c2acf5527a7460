// Command evaluate runs a single evaluation tick for one symbol and prints
// the composed snapshot as JSON. With -offline it never touches the network:
// quotes and history come from the synthetic generator and sentiment from a
// fixed neutral reading.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bhavikk10/crypto-trading-bot/internal/engine"
	"github.com/bhavikk10/crypto-trading-bot/internal/indicator"
	"github.com/bhavikk10/crypto-trading-bot/internal/risk"
	"github.com/bhavikk10/crypto-trading-bot/internal/sentiment"
	"github.com/bhavikk10/crypto-trading-bot/internal/source"
	"github.com/bhavikk10/crypto-trading-bot/internal/strategy"
)

func main() {
	symbol := flag.String("symbol", "BTC-USD", "trading pair to evaluate")
	offline := flag.Bool("offline", false, "synthetic data only, no network calls")
	historyLimit := flag.Int("history", 100, "candles of history to resolve")
	portfolio := flag.Float64("portfolio", 10000, "portfolio value for position sizing")
	seed := flag.Uint64("seed", 0, "synthetic generator seed")
	timeout := flag.Duration("timeout", 5*time.Second, "per-tier resolution timeout")
	flag.Parse()

	log.SetFlags(0)

	synth := source.NewSynthetic(*seed)

	var tiers []source.Source
	var sentiments *sentiment.Chain
	if *offline {
		sentiments = sentiment.NewChain(&sentiment.Static{Score: 50})
	} else {
		tiers = append(tiers, source.NewCoinbase("", *timeout))
		sentiments = sentiment.NewChain(sentiment.NewKeyword(nil))
	}
	resolver := source.NewResolver(*timeout, synth, nil, tiers...)

	eng := engine.New(engine.Config{
		Symbols:        []string{*symbol},
		HistoryLimit:   *historyLimit,
		PortfolioValue: *portfolio,
	},
		resolver,
		indicator.NewEngine(indicator.Config{}),
		risk.NewEngine(risk.Config{}),
		strategy.NewFusion(strategy.DefaultConfig()),
		sentiments,
		nil,
		nil,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap := eng.Evaluate(ctx, *symbol)

	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		log.Fatalf("encode snapshot: %v", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
}
