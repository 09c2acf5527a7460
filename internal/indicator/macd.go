package indicator

import "github.com/bhavikk10/crypto-trading-bot/internal/model"

// MACD calculates the Moving Average Convergence Divergence over the full
// close series: macd line = EMA(fast) - EMA(slow) using final EMA values,
// signal line = EMA of the per-step (fast-slow) series, histogram = their
// difference. The EMAs are seeded with the first price rather than a
// warm-up average; the tuned thresholds expect this seeding.
// Returns zeros when the series is shorter than the slow period.
func MACD(closes []float64, fast, slow, signal int) (model.MACD, Reason) {
	if len(closes) < slow {
		return model.MACD{}, ReasonInsufficientData
	}

	macdLine := emaFinal(closes, fast) - emaFinal(closes, slow)

	fastSeries := emaSeries(closes, fast)
	slowSeries := emaSeries(closes, slow)
	macdSeries := make([]float64, len(closes))
	for i := range closes {
		macdSeries[i] = fastSeries[i] - slowSeries[i]
	}

	signalLine := emaFinal(macdSeries, signal)

	return model.MACD{
		Line:      macdLine,
		Signal:    signalLine,
		Histogram: macdLine - signalLine,
	}, OK
}

// emaFinal returns the last value of the EMA with multiplier 2/(period+1),
// seeded by the first element. Series shorter than the period fall back to
// the last raw value.
func emaFinal(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if len(prices) < period {
		return prices[len(prices)-1]
	}
	multiplier := 2.0 / float64(period+1)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = p*multiplier + ema*(1-multiplier)
	}
	return ema
}

// emaSeries returns the full EMA series, same seeding as emaFinal.
// Series shorter than the period are returned as-is.
func emaSeries(prices []float64, period int) []float64 {
	if len(prices) < period {
		return prices
	}
	multiplier := 2.0 / float64(period+1)
	series := make([]float64, len(prices))
	series[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		series[i] = prices[i]*multiplier + series[i-1]*(1-multiplier)
	}
	return series
}
