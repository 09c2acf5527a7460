// Package strategy fuses technical momentum and market sentiment into a
// single trading signal. Momentum and sentiment each produce a sub-score and
// a confidence on [0,1]; both pairs are combined by fixed weights and mapped
// to a BUY/SELL/HOLD decision with a human-readable rationale.
package strategy

import (
	"fmt"
	"strings"
	"time"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

// Config holds the fusion weights and thresholds. Zero-value fields are
// replaced by defaults at construction.
type Config struct {
	MomentumWeight  float64 // weight of the momentum sub-score
	SentimentWeight float64 // weight of the sentiment sub-score

	BuyThreshold        float64 // combined score at or above → BUY candidate
	SellThreshold       float64 // combined score at or below → SELL candidate
	ConfidenceThreshold float64 // minimum confidence for an actionable signal

	RSIOversold   float64
	RSIOverbought float64
	ADXTrend      float64 // moderate-trend threshold
	ADXStrong     float64 // strong-trend threshold

	SentimentBullish float64 // raw sentiment at or above → bullish
	SentimentBearish float64 // raw sentiment at or below → bearish
}

// DefaultConfig returns the standard 60/40 momentum/sentiment fusion
// parameters.
func DefaultConfig() Config {
	return Config{
		MomentumWeight:      0.6,
		SentimentWeight:     0.4,
		BuyThreshold:        0.6,
		SellThreshold:       0.4,
		ConfidenceThreshold: 0.7,
		RSIOversold:         30,
		RSIOverbought:       70,
		ADXTrend:            25,
		ADXStrong:           40,
		SentimentBullish:    60,
		SentimentBearish:    40,
	}
}

// Validate rejects configs whose weights do not form a convex combination.
func (c Config) Validate() error {
	if c.MomentumWeight < 0 || c.SentimentWeight < 0 {
		return fmt.Errorf("strategy: negative weight (momentum=%.2f sentiment=%.2f)",
			c.MomentumWeight, c.SentimentWeight)
	}
	if sum := c.MomentumWeight + c.SentimentWeight; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("strategy: weights must sum to 1.0, got %.3f", sum)
	}
	return nil
}

// Fusion combines momentum and sentiment into trading signals. It holds only
// configuration, so one Fusion is safe across concurrent evaluations.
type Fusion struct {
	cfg Config
}

// NewFusion creates a Fusion, filling unset config fields with defaults.
func NewFusion(cfg Config) *Fusion {
	def := DefaultConfig()
	if cfg.MomentumWeight == 0 && cfg.SentimentWeight == 0 {
		cfg.MomentumWeight = def.MomentumWeight
		cfg.SentimentWeight = def.SentimentWeight
	}
	if cfg.BuyThreshold == 0 {
		cfg.BuyThreshold = def.BuyThreshold
	}
	if cfg.SellThreshold == 0 {
		cfg.SellThreshold = def.SellThreshold
	}
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if cfg.RSIOversold == 0 {
		cfg.RSIOversold = def.RSIOversold
	}
	if cfg.RSIOverbought == 0 {
		cfg.RSIOverbought = def.RSIOverbought
	}
	if cfg.ADXTrend == 0 {
		cfg.ADXTrend = def.ADXTrend
	}
	if cfg.ADXStrong == 0 {
		cfg.ADXStrong = def.ADXStrong
	}
	if cfg.SentimentBullish == 0 {
		cfg.SentimentBullish = def.SentimentBullish
	}
	if cfg.SentimentBearish == 0 {
		cfg.SentimentBearish = def.SentimentBearish
	}
	return &Fusion{cfg: cfg}
}

// Config returns the active fusion parameters.
func (f *Fusion) Config() Config { return f.cfg }

// Fuse produces a trading signal from the current RSI, ADX, and raw
// sentiment score (0-100). Identical inputs always produce an identical
// signal apart from the timestamp.
func (f *Fusion) Fuse(rsi, adx, sentimentScore float64) model.TradingSignal {
	momentum, momentumConf := f.momentumSignal(rsi, adx)
	sentiment, sentimentConf := f.sentimentSignal(sentimentScore)

	combined := momentum*f.cfg.MomentumWeight + sentiment*f.cfg.SentimentWeight
	confidence := momentumConf*f.cfg.MomentumWeight + sentimentConf*f.cfg.SentimentWeight

	var decision model.Decision
	var strength model.SignalStrength
	switch {
	case combined >= f.cfg.BuyThreshold && confidence >= f.cfg.ConfidenceThreshold:
		decision = model.DecisionBuy
		strength = model.StrengthModerate
		if combined >= 0.8 {
			strength = model.StrengthStrong
		}
	case combined <= f.cfg.SellThreshold && confidence >= f.cfg.ConfidenceThreshold:
		decision = model.DecisionSell
		strength = model.StrengthModerate
		if combined <= 0.2 {
			strength = model.StrengthStrong
		}
	default:
		decision = model.DecisionHold
		strength = model.StrengthNeutral
	}

	return model.TradingSignal{
		Decision:       decision,
		Strength:       strength,
		Confidence:     confidence,
		MomentumScore:  momentum,
		SentimentScore: sentiment,
		CombinedScore:  combined,
		Rationale:      f.rationale(decision, strength, momentum, rsi, adx, sentimentScore, confidence),
		TS:             time.Now().UTC(),
	}
}

// momentumSignal scores trend momentum from RSI and ADX. Both start at the
// neutral 0.5; RSI extremes move the score, ADX only moves confidence.
func (f *Fusion) momentumSignal(rsi, adx float64) (score, confidence float64) {
	score, confidence = 0.5, 0.5

	switch {
	case rsi < f.cfg.RSIOversold:
		score += 0.3
		confidence += 0.2
	case rsi > f.cfg.RSIOverbought:
		score -= 0.3
		confidence += 0.2
	case rsi >= 40 && rsi <= 60:
		score += 0.1
		confidence += 0.1
	}

	switch {
	case adx > f.cfg.ADXStrong:
		confidence += 0.3
	case adx > f.cfg.ADXTrend:
		confidence += 0.2
	default:
		confidence -= 0.1
	}

	return clamp01(score), clamp01(confidence)
}

// sentimentSignal rescales the raw 0-100 sentiment to [0,1]. Confidence
// steps up with distance from the neutral midpoint.
func (f *Fusion) sentimentSignal(raw float64) (score, confidence float64) {
	score = clamp01(raw / 100.0)

	switch {
	case raw >= 80 || raw <= 20:
		confidence = 0.9
	case raw >= 70 || raw <= 30:
		confidence = 0.8
	case raw >= 60 || raw <= 40:
		confidence = 0.7
	default:
		confidence = 0.6
	}
	return score, confidence
}

// rationale builds the pipe-joined explanation string. Fragment order is
// fixed: signal, momentum, RSI, trend, sentiment, confidence.
func (f *Fusion) rationale(decision model.Decision, strength model.SignalStrength,
	momentum, rsi, adx, sentiment, confidence float64) string {

	parts := make([]string, 0, 6)
	parts = append(parts, fmt.Sprintf("Signal: %s (%s)", decision, strength))

	switch {
	case momentum > 0.6:
		parts = append(parts, "Momentum: Bullish")
	case momentum < 0.4:
		parts = append(parts, "Momentum: Bearish")
	default:
		parts = append(parts, "Momentum: Neutral")
	}

	switch {
	case rsi < f.cfg.RSIOversold:
		parts = append(parts, fmt.Sprintf("RSI: Oversold (%.1f)", rsi))
	case rsi > f.cfg.RSIOverbought:
		parts = append(parts, fmt.Sprintf("RSI: Overbought (%.1f)", rsi))
	default:
		parts = append(parts, fmt.Sprintf("RSI: Neutral (%.1f)", rsi))
	}

	switch {
	case adx > f.cfg.ADXStrong:
		parts = append(parts, fmt.Sprintf("Trend: Strong (%.1f)", adx))
	case adx > f.cfg.ADXTrend:
		parts = append(parts, fmt.Sprintf("Trend: Moderate (%.1f)", adx))
	default:
		parts = append(parts, fmt.Sprintf("Trend: Weak (%.1f)", adx))
	}

	switch {
	case sentiment >= f.cfg.SentimentBullish:
		parts = append(parts, fmt.Sprintf("Sentiment: Bullish (%.1f)", sentiment))
	case sentiment <= f.cfg.SentimentBearish:
		parts = append(parts, fmt.Sprintf("Sentiment: Bearish (%.1f)", sentiment))
	default:
		parts = append(parts, fmt.Sprintf("Sentiment: Neutral (%.1f)", sentiment))
	}

	parts = append(parts, fmt.Sprintf("Confidence: %.1f%%", confidence*100))
	return strings.Join(parts, " | ")
}

// Strength grades a combined score on the standalone four-step ladder.
// The decision path in Fuse grades BUY/SELL separately.
func Strength(combinedScore float64) model.SignalStrength {
	switch {
	case combinedScore >= 0.8:
		return model.StrengthVeryStrong
	case combinedScore >= 0.6:
		return model.StrengthStrong
	case combinedScore >= 0.4:
		return model.StrengthModerate
	default:
		return model.StrengthWeak
	}
}

// ValidateSignal checks a signal's internal consistency. The result is
// advisory, matching the risk engine's validation contract.
func (f *Fusion) ValidateSignal(sig model.TradingSignal) model.Validation {
	v := model.Validation{Warnings: []string{}, Errors: []string{}}

	switch sig.Decision {
	case model.DecisionBuy, model.DecisionSell, model.DecisionHold:
	default:
		v.Errors = append(v.Errors, fmt.Sprintf("invalid decision: %q", sig.Decision))
	}

	if sig.Confidence < 0 || sig.Confidence > 1 {
		v.Errors = append(v.Errors, fmt.Sprintf("invalid confidence: %.3f", sig.Confidence))
	} else if sig.Confidence < 0.5 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("low confidence signal: %.3f", sig.Confidence))
	}

	if sig.MomentumScore < 0 || sig.MomentumScore > 1 {
		v.Errors = append(v.Errors, fmt.Sprintf("invalid momentum score: %.3f", sig.MomentumScore))
	}
	if sig.SentimentScore < 0 || sig.SentimentScore > 1 {
		v.Errors = append(v.Errors, fmt.Sprintf("invalid sentiment score: %.3f", sig.SentimentScore))
	}

	v.IsValid = len(v.Errors) == 0
	return v
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
