package model

import (
	"encoding/json"
	"time"
)

// Snapshot is the composed output of one evaluation tick for one symbol:
// the resolved quote, the indicators derived from its history, the risk
// controls, the sentiment input, and the fused signal. It is handed as a
// unit to the streaming, logging, and persistence sinks.
type Snapshot struct {
	Symbol     string        `json:"symbol"`
	Quote      Quote         `json:"quote"`
	Indicators IndicatorSet  `json:"indicators"`
	Risk       RiskControls  `json:"risk"`
	Sentiment  Sentiment     `json:"sentiment"`
	Signal     TradingSignal `json:"signal"`
	TS         time.Time     `json:"ts"`
}

// JSON returns the JSON-encoded snapshot.
func (s Snapshot) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
