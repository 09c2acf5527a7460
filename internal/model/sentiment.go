package model

import (
	"encoding/json"
	"time"
)

// SentimentLabel buckets a 0-100 sentiment score.
type SentimentLabel string

const (
	SentimentVeryBullish SentimentLabel = "Very Bullish"
	SentimentBullish     SentimentLabel = "Bullish"
	SentimentNeutral     SentimentLabel = "Neutral"
	SentimentBearish     SentimentLabel = "Bearish"
	SentimentVeryBearish SentimentLabel = "Very Bearish"
)

// Sentiment is a market sentiment reading on a 0-100 scale, 50 neutral.
// Confidence reflects how much the underlying readings agreed.
type Sentiment struct {
	Score      float64        `json:"score"`
	Label      SentimentLabel `json:"sentiment"`
	Confidence float64        `json:"confidence"`
	TS         time.Time      `json:"ts"`
}

// LabelForScore maps a score onto the bucket ladder.
func LabelForScore(score float64) SentimentLabel {
	switch {
	case score >= 70:
		return SentimentVeryBullish
	case score >= 60:
		return SentimentBullish
	case score >= 40:
		return SentimentNeutral
	case score >= 30:
		return SentimentBearish
	default:
		return SentimentVeryBearish
	}
}

// NeutralSentiment is the fallback reading when no provider has data.
func NeutralSentiment() Sentiment {
	return Sentiment{Score: 50, Label: SentimentNeutral, TS: time.Now().UTC()}
}

// JSON returns the JSON-encoded sentiment.
func (s Sentiment) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
