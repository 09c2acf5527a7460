package model

import (
	"encoding/json"
	"time"
)

// MomentumLabel classifies trend momentum from RSI and ADX.
type MomentumLabel string

const (
	MomentumStrongBullish MomentumLabel = "Strong Bullish"
	MomentumBullish       MomentumLabel = "Bullish"
	MomentumNeutral       MomentumLabel = "Neutral"
	MomentumBearish       MomentumLabel = "Bearish"
	MomentumStrongBearish MomentumLabel = "Strong Bearish"
)

// MACD holds the MACD line, its signal line, and their difference.
type MACD struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// BollingerBands holds the moving-average envelope.
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// IndicatorSet is the full set of technical indicators computed from one
// candle history. Degraded lists the indicators that fell back to their
// neutral defaults (e.g. "rsi:insufficient_data") so a caller can tell
// uninformative values from computed ones without any error path.
type IndicatorSet struct {
	RSI       float64        `json:"rsi"`
	ADX       float64        `json:"adx"`
	ATR       float64        `json:"atr"`
	MACD      MACD           `json:"macd"`
	Bollinger BollingerBands `json:"bollinger"`
	Momentum  MomentumLabel  `json:"momentum"`
	Degraded  []string       `json:"degraded,omitempty"`
	TS        time.Time      `json:"ts"`
}

// JSON returns the JSON-encoded indicator set.
func (s IndicatorSet) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
