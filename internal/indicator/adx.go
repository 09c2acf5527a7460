package indicator

import (
	"math"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

// ADX calculates a single-step directional index from the last period+1
// candles: +DM/-DM smoothed by simple mean, DI lines normalized by ATR, and
// DX = |DI+ - DI-| / (DI+ + DI-) * 100.
//
// Note this is single-step DX rather than the multi-period smoothed ADX of
// the textbooks; the momentum table and fusion thresholds are calibrated
// against this variant. Returns the neutral 25 on insufficient data or when
// the range collapses to zero.
func ADX(candles []model.Candle, period int) (float64, Reason) {
	if len(candles) < period+1 {
		return NeutralADX, ReasonInsufficientData
	}

	window := candles[len(candles)-(period+1):]

	var dmPlusSum, dmMinusSum float64
	for i := 1; i < len(window); i++ {
		upMove := window[i].High - window[i-1].High
		downMove := window[i-1].Low - window[i].Low

		if upMove > downMove && upMove > 0 {
			dmPlusSum += upMove
		}
		if downMove > upMove && downMove > 0 {
			dmMinusSum += downMove
		}
	}

	atr := mean(trueRanges(candles, period))
	if atr == 0 {
		return NeutralADX, ReasonZeroRange
	}

	p := float64(period)
	diPlus := (dmPlusSum / p) / atr * 100
	diMinus := (dmMinusSum / p) / atr * 100

	if diPlus+diMinus == 0 {
		return NeutralADX, ReasonZeroRange
	}

	dx := math.Abs(diPlus-diMinus) / (diPlus + diMinus) * 100
	return dx, OK
}
