package model

import (
	"encoding/json"
	"time"
)

// Decision is the discrete trading action.
type Decision string

const (
	DecisionBuy  Decision = "BUY"
	DecisionSell Decision = "SELL"
	DecisionHold Decision = "HOLD"
)

// SignalStrength grades how decisive a signal is.
type SignalStrength string

const (
	StrengthWeak       SignalStrength = "Weak"
	StrengthModerate   SignalStrength = "Moderate"
	StrengthStrong     SignalStrength = "Strong"
	StrengthVeryStrong SignalStrength = "Very Strong"
	StrengthNeutral    SignalStrength = "Neutral"
)

// TradingSignal is the fused decision produced once per evaluation tick.
// All scores are on [0,1]; Rationale is a deterministic pipe-joined
// explanation of how the decision was reached.
type TradingSignal struct {
	Decision       Decision       `json:"decision"`
	Strength       SignalStrength `json:"strength"`
	Confidence     float64        `json:"confidence"`
	MomentumScore  float64        `json:"momentum_score"`
	SentimentScore float64        `json:"sentiment_score"`
	CombinedScore  float64        `json:"combined_score"`
	Rationale      string         `json:"rationale"`
	TS             time.Time      `json:"ts"`
}

// Actionable reports whether the signal calls for a trade.
func (s TradingSignal) Actionable() bool {
	return s.Decision == DecisionBuy || s.Decision == DecisionSell
}

// JSON returns the JSON-encoded signal.
func (s TradingSignal) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
