package indicator

import "github.com/bhavikk10/crypto-trading-bot/internal/model"

// RSI/ADX thresholds for the momentum decision table.
const (
	rsiOversold   = 30.0
	rsiOverbought = 70.0
	rsiNeutralLo  = 40.0
	rsiNeutralHi  = 60.0
	adxWeak       = 20.0
	adxStrong     = 40.0
)

// Momentum classifies trend momentum from RSI and ADX. The table is
// evaluated top to bottom, first match wins:
//
//	rsi<30, adx>40  → Strong Bullish
//	rsi<40, adx>20  → Bullish
//	rsi>70, adx>40  → Strong Bearish
//	rsi>60, adx>20  → Bearish
//	otherwise       → Neutral
func Momentum(rsi, adx float64) model.MomentumLabel {
	switch {
	case rsi < rsiOversold && adx > adxStrong:
		return model.MomentumStrongBullish
	case rsi < rsiNeutralLo && adx > adxWeak:
		return model.MomentumBullish
	case rsi > rsiOverbought && adx > adxStrong:
		return model.MomentumStrongBearish
	case rsi > rsiNeutralHi && adx > adxWeak:
		return model.MomentumBearish
	default:
		return model.MomentumNeutral
	}
}
