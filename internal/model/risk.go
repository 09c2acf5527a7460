package model

import (
	"encoding/json"
	"time"
)

// RiskControls holds ATR-based position sizing and exit levels for a
// prospective long entry. Fallback is set when the stop distance was
// unusable and fixed percentage controls were substituted.
type RiskControls struct {
	EntryPrice      float64   `json:"entry_price"`
	PositionSize    float64   `json:"position_size"`
	PositionValue   float64   `json:"position_value"`
	StopLoss        float64   `json:"stop_loss"`
	TakeProfit      float64   `json:"take_profit"`
	RiskAmount      float64   `json:"risk_amount"`
	RiskPercentage  float64   `json:"risk_percentage"`
	PotentialProfit float64   `json:"potential_profit"`
	RiskRewardRatio float64   `json:"risk_reward_ratio"`
	Fallback        bool      `json:"fallback,omitempty"`
	TS              time.Time `json:"ts"`
}

// JSON returns the JSON-encoded risk controls.
func (r RiskControls) JSON() []byte {
	b, _ := json.Marshal(r)
	return b
}

// Validation is the advisory result of checking risk controls or signals
// against configured limits. It reports but never blocks signal emission.
type Validation struct {
	IsValid  bool     `json:"is_valid"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}
