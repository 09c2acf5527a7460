package indicator

import (
	"math"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

// BollingerBands calculates the moving-average envelope over the last period
// closes: middle = mean, bands = middle ± stdDev·populationStdDev.
// Returns zeros when fewer than period closes are available.
func BollingerBands(closes []float64, period int, stdDev float64) (model.BollingerBands, Reason) {
	if len(closes) < period {
		return model.BollingerBands{}, ReasonInsufficientData
	}

	window := closes[len(closes)-period:]
	middle := mean(window)

	variance := 0.0
	for _, c := range window {
		d := c - middle
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))

	return model.BollingerBands{
		Upper:  middle + stdDev*sd,
		Middle: middle,
		Lower:  middle - stdDev*sd,
	}, OK
}
