package sentiment

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

// Keyword scores headlines by counting positive and negative market terms.
// Each headline contributes +0.7, -0.7, or 0 on a [-1,1] scale; the mean is
// rescaled to [0,100] and the standard deviation across headlines becomes
// the confidence.
type Keyword struct {
	Headlines func() []string

	positive []string
	negative []string
}

// NewKeyword creates the analyzer. headlines supplies the current batch to
// score; nil uses a fixed sample set.
func NewKeyword(headlines func() []string) *Keyword {
	if headlines == nil {
		headlines = sampleHeadlines
	}
	return &Keyword{
		Headlines: headlines,
		positive: []string{
			"high", "growth", "adoption", "promising", "record", "recovery",
			"sustainable", "mainstream", "upgrade", "breakthrough",
		},
		negative: []string{
			"crash", "panic", "concerns", "volatility", "crackdown", "dip",
			"decline", "fall", "loss", "bearish",
		},
	}
}

func (k *Keyword) Name() string { return "keyword" }

func (k *Keyword) Sentiment(context.Context) (model.Sentiment, error) {
	headlines := k.Headlines()

	scores := make([]float64, 0, len(headlines))
	for _, h := range headlines {
		scores = append(scores, k.scoreHeadline(h))
	}

	avg, stddev := 0.0, 0.0
	if len(scores) > 0 {
		for _, s := range scores {
			avg += s
		}
		avg /= float64(len(scores))
		for _, s := range scores {
			stddev += (s - avg) * (s - avg)
		}
		stddev = math.Sqrt(stddev / float64(len(scores)))
	}

	score := clampScore((avg + 1) * 50)
	return model.Sentiment{
		Score:      math.Round(score*100) / 100,
		Label:      model.LabelForScore(score),
		Confidence: math.Round(stddev*100) / 100,
		TS:         time.Now().UTC(),
	}, nil
}

func (k *Keyword) scoreHeadline(headline string) float64 {
	lower := strings.ToLower(headline)

	var pos, neg int
	for _, w := range k.positive {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range k.negative {
		if strings.Contains(lower, w) {
			neg++
		}
	}

	switch {
	case pos > neg:
		return 0.7
	case neg > pos:
		return -0.7
	default:
		return 0
	}
}

func sampleHeadlines() []string {
	return []string{
		"Bitcoin reaches new all-time high as institutional adoption grows",
		"Crypto market crashes amid regulatory concerns and market volatility",
		"Ethereum upgrade shows promising results for scalability",
		"Major banks announce cryptocurrency trading services",
		"Regulatory crackdown on crypto exchanges causes market panic",
	}
}
