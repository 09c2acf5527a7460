package source

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

const defaultCoinbaseURL = "https://api.exchange.coinbase.com"

// Coinbase is the external-API tier. It reads the public Coinbase Exchange
// ticker and candles endpoints; no authentication is required.
type Coinbase struct {
	client      *resty.Client
	granularity int // candle width in seconds
}

// NewCoinbase creates the Coinbase tier. baseURL overrides the production
// endpoint (tests point it at a local httptest server).
func NewCoinbase(baseURL string, timeout time.Duration) *Coinbase {
	if baseURL == "" {
		baseURL = defaultCoinbaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "crypto-trading-bot/1.0")

	return &Coinbase{client: client, granularity: 3600}
}

func (c *Coinbase) Name() string { return "coinbase" }

// Quote fetches the current ticker price for a product like "BTC-USD".
func (c *Coinbase) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/products/%s/ticker", symbol))
	if err != nil {
		return model.Quote{}, fmt.Errorf("coinbase ticker %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return model.Quote{}, fmt.Errorf("coinbase ticker %s: status %d", symbol, resp.StatusCode())
	}

	var tick struct {
		Price string    `json:"price"`
		Time  time.Time `json:"time"`
	}
	if err := json.Unmarshal(resp.Body(), &tick); err != nil {
		return model.Quote{}, fmt.Errorf("parse ticker response: %w", err)
	}

	price, err := strconv.ParseFloat(tick.Price, 64)
	if err != nil {
		return model.Quote{}, fmt.Errorf("parse ticker price %q: %w", tick.Price, err)
	}

	ts := tick.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return model.Quote{Symbol: symbol, Price: price, TS: ts, Source: c.Name()}, nil
}

// History fetches recent hourly candles. Coinbase returns rows newest-first
// as [time, low, high, open, close, volume]; they are reordered ascending
// and trimmed to limit.
func (c *Coinbase) History(ctx context.Context, symbol string, limit int) (model.CandleHistory, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("granularity", strconv.Itoa(c.granularity)).
		Get(fmt.Sprintf("/products/%s/candles", symbol))
	if err != nil {
		return model.CandleHistory{}, fmt.Errorf("coinbase candles %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return model.CandleHistory{}, fmt.Errorf("coinbase candles %s: status %d", symbol, resp.StatusCode())
	}

	var rows [][]float64
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return model.CandleHistory{}, fmt.Errorf("parse candles response: %w", err)
	}
	if len(rows) == 0 {
		return model.CandleHistory{}, fmt.Errorf("coinbase candles %s: empty response", symbol)
	}

	candles := make([]model.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			return model.CandleHistory{}, fmt.Errorf("coinbase candles %s: malformed row of %d fields", symbol, len(row))
		}
		candles = append(candles, model.Candle{
			TS:     time.Unix(int64(row[0]), 0).UTC(),
			Low:    row[1],
			High:   row[2],
			Open:   row[3],
			Close:  row[4],
			Volume: row[5],
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].TS.Before(candles[j].TS) })
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}

	return model.CandleHistory{Symbol: symbol, Source: c.Name(), Candles: candles}, nil
}
