package indicator

import (
	"math"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

// trueRanges computes the true range series over the last period steps of
// the given candles: max(high-low, |high-prevClose|, |low-prevClose|).
// Requires at least period+1 candles; returns nil otherwise.
func trueRanges(candles []model.Candle, period int) []float64 {
	if len(candles) < period+1 {
		return nil
	}
	window := candles[len(candles)-(period+1):]
	trs := make([]float64, 0, period)
	for i := 1; i < len(window); i++ {
		hl := window[i].High - window[i].Low
		hc := math.Abs(window[i].High - window[i-1].Close)
		lc := math.Abs(window[i].Low - window[i-1].Close)
		trs = append(trs, math.Max(hl, math.Max(hc, lc)))
	}
	return trs
}

// ATR calculates the Average True Range as a simple mean of the last period
// true-range values. Returns 0 when fewer than period+1 candles are available.
func ATR(candles []model.Candle, period int) (float64, Reason) {
	trs := trueRanges(candles, period)
	if trs == nil {
		return NeutralATR, ReasonInsufficientData
	}
	return mean(trs), OK
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
