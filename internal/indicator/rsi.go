package indicator

// RSI calculates the Relative Strength Index over the last period+1 closes.
//
// This is the simple-mean variant: avgGain/avgLoss are unweighted means of
// the positive/negative deltas in the window, not Wilder's exponential
// smoothing. Downstream thresholds are tuned to this variant.
// Returns the neutral 50 when fewer than period+1 closes are available.
func RSI(closes []float64, period int) (float64, Reason) {
	if len(closes) < period+1 {
		return NeutralRSI, ReasonInsufficientData
	}

	window := closes[len(closes)-(period+1):]

	var gainSum, lossSum float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum += -delta
		}
	}

	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)

	if avgLoss == 0 {
		return 100.0, OK
	}

	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs)), OK
}
