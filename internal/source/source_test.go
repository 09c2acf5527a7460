package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

type stubSource struct {
	name string
	q    model.Quote
	qErr error
	h    model.CandleHistory
	hErr error
	// block makes both calls wait for ctx cancellation.
	block bool
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	if s.block {
		<-ctx.Done()
		return model.Quote{}, ctx.Err()
	}
	return s.q, s.qErr
}

func (s *stubSource) History(ctx context.Context, symbol string, limit int) (model.CandleHistory, error) {
	if s.block {
		<-ctx.Done()
		return model.CandleHistory{}, ctx.Err()
	}
	return s.h, s.hErr
}

func TestResolveQuote_FirstSuccessWins(t *testing.T) {
	good := model.Quote{Symbol: "BTC-USD", Price: 45100, TS: time.Now()}
	r := NewResolver(time.Second, NewSynthetic(1), nil,
		&stubSource{name: "feed", qErr: errors.New("not connected")},
		&stubSource{name: "redis-cache", q: good},
		&stubSource{name: "coinbase", q: model.Quote{Symbol: "BTC-USD", Price: 99999, TS: time.Now()}},
	)

	q := r.ResolveQuote(context.Background(), "BTC-USD")

	assert.Equal(t, 45100.0, q.Price)
	assert.Equal(t, "redis-cache", q.Source, "result tagged with the winning tier")
}

func TestResolveQuote_InvalidResultSkipsTier(t *testing.T) {
	r := NewResolver(time.Second, NewSynthetic(1), nil,
		&stubSource{name: "feed", q: model.Quote{Symbol: "BTC-USD", Price: 0}}, // no error, but invalid
		&stubSource{name: "coinbase", q: model.Quote{Symbol: "BTC-USD", Price: 44000, TS: time.Now()}},
	)

	q := r.ResolveQuote(context.Background(), "BTC-USD")

	assert.Equal(t, 44000.0, q.Price)
	assert.Equal(t, "coinbase", q.Source)
}

func TestResolveQuote_AllTiersFailFallsBackToSynthetic(t *testing.T) {
	r := NewResolver(time.Second, NewSynthetic(1), nil,
		&stubSource{name: "feed", qErr: errors.New("down")},
		&stubSource{name: "coinbase", qErr: errors.New("down")},
	)

	q := r.ResolveQuote(context.Background(), "BTC-USD")

	assert.Equal(t, "synthetic", q.Source)
	base := BasePrice("BTC-USD")
	assert.InDelta(t, base, q.Price, base*0.05, "synthetic quote stays within 5%% of base")
}

func TestResolveQuote_SlowTierTimesOut(t *testing.T) {
	r := NewResolver(20*time.Millisecond, NewSynthetic(1), nil,
		&stubSource{name: "feed", block: true},
	)

	start := time.Now()
	q := r.ResolveQuote(context.Background(), "ETH-USD")

	assert.Less(t, time.Since(start), time.Second, "per-tier timeout bounds the stall")
	assert.Equal(t, "synthetic", q.Source)
}

func TestResolveHistory_AllTiersFailFallsBackToSynthetic(t *testing.T) {
	r := NewResolver(time.Second, NewSynthetic(1), nil,
		&stubSource{name: "feed", hErr: errors.New("down")},
	)

	h := r.ResolveHistory(context.Background(), "BTC-USD", 30)

	assert.Equal(t, "synthetic", h.Source)
	assert.Equal(t, 30, h.Len())
	assert.True(t, h.Valid(), "synthetic history must be schema-valid")
}

func TestResolveHistory_EmptyHistorySkipsTier(t *testing.T) {
	r := NewResolver(time.Second, NewSynthetic(1), nil,
		&stubSource{name: "redis-cache", h: model.CandleHistory{Symbol: "BTC-USD"}},
	)

	h := r.ResolveHistory(context.Background(), "BTC-USD", 10)

	assert.Equal(t, "synthetic", h.Source)
}

func TestSynthetic_Deterministic(t *testing.T) {
	s := NewSynthetic(42)

	q1, _ := s.Quote(context.Background(), "BTC-USD")
	q2, _ := s.Quote(context.Background(), "BTC-USD")
	assert.Equal(t, q1.Price, q2.Price, "same symbol and seed walk identically")

	h1, _ := s.History(context.Background(), "ETH-USD", 20)
	h2, _ := s.History(context.Background(), "ETH-USD", 20)
	require.Equal(t, 20, h1.Len())
	for i := range h1.Candles {
		assert.Equal(t, h1.Candles[i].Close, h2.Candles[i].Close)
	}

	other := NewSynthetic(43)
	q3, _ := other.Quote(context.Background(), "BTC-USD")
	assert.NotEqual(t, q1.Price, q3.Price, "different base seed varies the walk")
}

func TestSynthetic_BasePrices(t *testing.T) {
	s := NewSynthetic(0)

	for symbol, base := range map[string]float64{
		"BTC-USD":  45000,
		"ETH-USD":  3000,
		"DOGE-USD": 100,
	} {
		q, err := s.Quote(context.Background(), symbol)
		require.NoError(t, err)
		assert.InDelta(t, base, q.Price, base*0.05, "symbol %s", symbol)
	}
}

func TestSynthetic_CandleShape(t *testing.T) {
	s := NewSynthetic(7)

	h, err := s.History(context.Background(), "BTC-USD", 50)
	require.NoError(t, err)
	require.True(t, h.Valid())

	for i, c := range h.Candles {
		assert.InDelta(t, c.Close*1.001, c.High, 0.01, "candle %d high", i)
		assert.InDelta(t, c.Close*0.998, c.Low, 0.01, "candle %d low", i)
		assert.InDelta(t, c.Close*0.999, c.Open, 0.01, "candle %d open", i)
		assert.True(t, c.Volume >= 100 && c.Volume <= 1000, "candle %d volume %f", i, c.Volume)
		if i > 0 {
			step := c.Close/h.Candles[i-1].Close - 1
			assert.LessOrEqual(t, step, 0.021, "candle %d step", i)
			assert.GreaterOrEqual(t, step, -0.021, "candle %d step", i)
		}
	}
}

func TestCoinbase_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/BTC-USD/ticker", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"trade_id":1,"price":"45123.45","time":"2024-06-01T12:00:00Z"}`)
	}))
	defer srv.Close()

	cb := NewCoinbase(srv.URL, time.Second)
	q, err := cb.Quote(context.Background(), "BTC-USD")

	require.NoError(t, err)
	assert.Equal(t, 45123.45, q.Price)
	assert.Equal(t, "coinbase", q.Source)
	assert.Equal(t, 2024, q.TS.Year())
}

func TestCoinbase_QuoteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cb := NewCoinbase(srv.URL, time.Second)
	_, err := cb.Quote(context.Background(), "BTC-USD")

	assert.Error(t, err)
}

func TestCoinbase_HistoryReordersAscending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/BTC-USD/candles", r.URL.Path)
		assert.Equal(t, "3600", r.URL.Query().Get("granularity"))
		w.Header().Set("Content-Type", "application/json")
		// newest first, rows are [time, low, high, open, close, volume]
		fmt.Fprint(w, `[
			[1717250400, 44900, 45200, 45000, 45100, 12.5],
			[1717246800, 44800, 45100, 44900, 45000, 10.0],
			[1717243200, 44700, 45000, 44800, 44900, 8.0]
		]`)
	}))
	defer srv.Close()

	cb := NewCoinbase(srv.URL, time.Second)
	h, err := cb.History(context.Background(), "BTC-USD", 2)

	require.NoError(t, err)
	require.Equal(t, 2, h.Len(), "trimmed to limit, keeping the newest")
	assert.True(t, h.Candles[0].TS.Before(h.Candles[1].TS))
	assert.Equal(t, 45100.0, h.Candles[1].Close)
	assert.True(t, h.Valid())
}
