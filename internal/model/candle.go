// Package model defines the value objects flowing through the evaluation
// pipeline: candles, quotes, indicator sets, risk controls, trading signals,
// and the composed per-tick snapshot. All types are plain values created and
// consumed within a single evaluation; nothing here carries mutable state.
package model

import (
	"encoding/json"
	"math"
	"time"
)

// Candle represents one OHLCV interval of price history.
type Candle struct {
	TS     time.Time `json:"ts"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Valid reports whether the candle is schema-valid: all fields finite and
// non-negative, and low <= open,close <= high.
func (c Candle) Valid() bool {
	for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if c.Low > c.High {
		return false
	}
	if c.Open < c.Low || c.Open > c.High {
		return false
	}
	if c.Close < c.Low || c.Close > c.High {
		return false
	}
	return true
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// CandleHistory is an ascending-by-timestamp candle sequence resolved for one
// symbol, tagged with the resolver tier that produced it.
type CandleHistory struct {
	Symbol  string   `json:"symbol"`
	Source  string   `json:"source"`
	Candles []Candle `json:"candles"`
}

// Len returns the number of candles in the history.
func (h CandleHistory) Len() int { return len(h.Candles) }

// Closes extracts the closing prices in order.
func (h CandleHistory) Closes() []float64 {
	closes := make([]float64, len(h.Candles))
	for i, c := range h.Candles {
		closes[i] = c.Close
	}
	return closes
}

// Valid reports whether the history is non-empty, every candle is
// schema-valid, and timestamps are strictly ascending (no duplicates).
func (h CandleHistory) Valid() bool {
	if len(h.Candles) == 0 {
		return false
	}
	for i, c := range h.Candles {
		if !c.Valid() {
			return false
		}
		if i > 0 && !c.TS.After(h.Candles[i-1].TS) {
			return false
		}
	}
	return true
}

// JSON returns the JSON-encoded history (ignoring errors for hot-path usage).
func (h CandleHistory) JSON() []byte {
	b, _ := json.Marshal(h)
	return b
}
