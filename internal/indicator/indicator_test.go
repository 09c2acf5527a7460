package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

// histFromCloses builds a valid ascending history where each candle closes
// at the given price with a ±1 high/low band around it.
func histFromCloses(closes ...float64) model.CandleHistory {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{
			TS:     base.Add(time.Duration(i) * time.Minute),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 100,
		}
	}
	return model.CandleHistory{Symbol: "BTC-USD", Source: "test", Candles: candles}
}

func seq(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestRSI_InsufficientDataReturnsNeutral(t *testing.T) {
	for _, n := range []int{0, 1, 5, 14} {
		rsi, reason := RSI(seq(100, 1, n), 14)
		if rsi != NeutralRSI {
			t.Errorf("n=%d: expected RSI=50, got %.4f", n, rsi)
		}
		if reason != ReasonInsufficientData {
			t.Errorf("n=%d: expected insufficient_data, got %q", n, reason)
		}
	}
}

func TestRSI_AllGainsReturns100(t *testing.T) {
	rsi, reason := RSI(seq(100, 1, 20), 14)
	if reason != OK {
		t.Fatalf("expected OK, got %q", reason)
	}
	if rsi != 100.0 {
		t.Errorf("monotonic rise should give RSI=100, got %.4f", rsi)
	}
}

func TestRSI_AllLossesNearZero(t *testing.T) {
	rsi, reason := RSI(seq(100, -1, 20), 14)
	if reason != OK {
		t.Fatalf("expected OK, got %q", reason)
	}
	if rsi != 0.0 {
		t.Errorf("monotonic fall should give RSI=0, got %.4f", rsi)
	}
}

func TestRSI_Bounded(t *testing.T) {
	// Sawtooth, trend up, trend down, flat: RSI stays within [0,100].
	cases := [][]float64{
		{100, 102, 99, 103, 98, 104, 97, 105, 96, 106, 95, 107, 94, 108, 93, 109},
		seq(50, 0.5, 30),
		seq(50, -0.5, 30),
		seq(75, 0, 30),
	}
	for i, closes := range cases {
		rsi, _ := RSI(closes, 14)
		if rsi < 0 || rsi > 100 {
			t.Errorf("case %d: RSI out of bounds: %.4f", i, rsi)
		}
	}
}

func TestRSI_KnownValue(t *testing.T) {
	// 14 deltas: 7 gains of 2, 7 losses of 1.
	// avgGain = 14/14 = 1, avgLoss = 7/14 = 0.5, rs = 2, rsi = 100-100/3.
	closes := []float64{100}
	price := 100.0
	for i := 0; i < 7; i++ {
		price += 2
		closes = append(closes, price)
		price -= 1
		closes = append(closes, price)
	}
	rsi, reason := RSI(closes, 14)
	if reason != OK {
		t.Fatalf("expected OK, got %q", reason)
	}
	want := 100.0 - 100.0/3.0
	if math.Abs(rsi-want) > 1e-9 {
		t.Errorf("expected RSI=%.6f, got %.6f", want, rsi)
	}
}

func TestATR_InsufficientDataReturnsZero(t *testing.T) {
	h := histFromCloses(seq(100, 1, 10)...)
	atr, reason := ATR(h.Candles, 14)
	if atr != 0 || reason != ReasonInsufficientData {
		t.Errorf("expected (0, insufficient_data), got (%.4f, %q)", atr, reason)
	}
}

func TestATR_ConstantRange(t *testing.T) {
	// Flat closes with ±1 band: TR = high-low = 2 every step.
	h := histFromCloses(seq(100, 0, 20)...)
	atr, reason := ATR(h.Candles, 14)
	if reason != OK {
		t.Fatalf("expected OK, got %q", reason)
	}
	if math.Abs(atr-2.0) > 1e-9 {
		t.Errorf("expected ATR=2.0, got %.6f", atr)
	}
}

func TestATR_GapDominatesRange(t *testing.T) {
	// A gap from prev close dominates the intra-candle range.
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	candles := []model.Candle{
		{TS: base, Open: 100, High: 101, Low: 99, Close: 100, Volume: 1},
		{TS: base.Add(time.Minute), Open: 110, High: 111, Low: 109, Close: 110, Volume: 1},
	}
	atr, reason := ATR(candles, 1)
	if reason != OK {
		t.Fatalf("expected OK, got %q", reason)
	}
	// TR = max(111-109, |111-100|, |109-100|) = 11
	if math.Abs(atr-11.0) > 1e-9 {
		t.Errorf("expected ATR=11.0, got %.6f", atr)
	}
}

func TestADX_InsufficientDataReturnsNeutral(t *testing.T) {
	h := histFromCloses(seq(100, 1, 14)...)
	adx, reason := ADX(h.Candles, 14)
	if adx != NeutralADX || reason != ReasonInsufficientData {
		t.Errorf("expected (25, insufficient_data), got (%.4f, %q)", adx, reason)
	}
}

func TestADX_StrongTrendIsHigh(t *testing.T) {
	// Steady rise: all directional movement is +DM, so DI- = 0 and DX = 100.
	h := histFromCloses(seq(100, 2, 20)...)
	adx, reason := ADX(h.Candles, 14)
	if reason != OK {
		t.Fatalf("expected OK, got %q", reason)
	}
	if math.Abs(adx-100.0) > 1e-9 {
		t.Errorf("one-sided trend should give DX=100, got %.6f", adx)
	}
}

func TestADX_FlatSeriesDegradesToNeutral(t *testing.T) {
	// Identical candles: no directional movement at all.
	h := histFromCloses(seq(100, 0, 20)...)
	adx, reason := ADX(h.Candles, 14)
	if adx != NeutralADX {
		t.Errorf("expected neutral 25, got %.4f", adx)
	}
	if reason != ReasonZeroRange {
		t.Errorf("expected zero_range, got %q", reason)
	}
}

func TestMACD_InsufficientDataReturnsZeros(t *testing.T) {
	m, reason := MACD(seq(100, 1, 25), 12, 26, 9)
	if reason != ReasonInsufficientData {
		t.Fatalf("expected insufficient_data, got %q", reason)
	}
	if m.Line != 0 || m.Signal != 0 || m.Histogram != 0 {
		t.Errorf("expected zero MACD, got %+v", m)
	}
}

func TestMACD_UptrendIsPositive(t *testing.T) {
	m, reason := MACD(seq(100, 1, 60), 12, 26, 9)
	if reason != OK {
		t.Fatalf("expected OK, got %q", reason)
	}
	if m.Line <= 0 {
		t.Errorf("uptrend should give positive MACD line, got %.6f", m.Line)
	}
	if math.Abs(m.Histogram-(m.Line-m.Signal)) > 1e-9 {
		t.Errorf("histogram must equal line-signal: %.6f vs %.6f", m.Histogram, m.Line-m.Signal)
	}
}

func TestMACD_FlatSeriesIsZero(t *testing.T) {
	m, reason := MACD(seq(100, 0, 60), 12, 26, 9)
	if reason != OK {
		t.Fatalf("expected OK, got %q", reason)
	}
	if math.Abs(m.Line) > 1e-9 || math.Abs(m.Signal) > 1e-9 {
		t.Errorf("flat series should give zero MACD, got %+v", m)
	}
}

func TestBollinger_FlatSeriesCollapses(t *testing.T) {
	bb, reason := BollingerBands(seq(100, 0, 25), 20, 2.0)
	if reason != OK {
		t.Fatalf("expected OK, got %q", reason)
	}
	if bb.Upper != 100 || bb.Middle != 100 || bb.Lower != 100 {
		t.Errorf("flat series should collapse bands to the mean, got %+v", bb)
	}
}

func TestBollinger_InsufficientData(t *testing.T) {
	bb, reason := BollingerBands(seq(100, 1, 10), 20, 2.0)
	if reason != ReasonInsufficientData {
		t.Fatalf("expected insufficient_data, got %q", reason)
	}
	if bb != (model.BollingerBands{}) {
		t.Errorf("expected zero bands, got %+v", bb)
	}
}

func TestBollinger_KnownStdDev(t *testing.T) {
	// Alternating 98/102 over 20 closes: mean=100, population stddev=2.
	closes := make([]float64, 20)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 98
		} else {
			closes[i] = 102
		}
	}
	bb, reason := BollingerBands(closes, 20, 2.0)
	if reason != OK {
		t.Fatalf("expected OK, got %q", reason)
	}
	if math.Abs(bb.Middle-100) > 1e-9 || math.Abs(bb.Upper-104) > 1e-9 || math.Abs(bb.Lower-96) > 1e-9 {
		t.Errorf("expected bands (104,100,96), got %+v", bb)
	}
}

func TestMomentum_DecisionTable(t *testing.T) {
	cases := []struct {
		rsi, adx float64
		want     model.MomentumLabel
	}{
		{25, 45, model.MomentumStrongBullish},
		{35, 25, model.MomentumBullish},
		{25, 30, model.MomentumBullish}, // oversold but trend not strong → second row
		{75, 45, model.MomentumStrongBearish},
		{65, 25, model.MomentumBearish},
		{75, 30, model.MomentumBearish},
		{50, 50, model.MomentumNeutral},
		{35, 15, model.MomentumNeutral},
		{65, 15, model.MomentumNeutral},
	}
	for _, c := range cases {
		if got := Momentum(c.rsi, c.adx); got != c.want {
			t.Errorf("Momentum(%.0f, %.0f) = %q, want %q", c.rsi, c.adx, got, c.want)
		}
	}
}

func TestEngine_ComputeDegradedList(t *testing.T) {
	engine := NewEngine(Config{})

	// 10 candles: too short for everything.
	set := engine.Compute(histFromCloses(seq(100, 1, 10)...))
	if set.RSI != NeutralRSI || set.ADX != NeutralADX || set.ATR != NeutralATR {
		t.Errorf("short history should yield all neutral defaults, got %+v", set)
	}
	if len(set.Degraded) != 5 {
		t.Errorf("expected 5 degraded entries, got %v", set.Degraded)
	}
}

func TestEngine_ComputeFullHistory(t *testing.T) {
	engine := NewEngine(Config{})

	set := engine.Compute(histFromCloses(seq(100, 0.5, 60)...))
	if len(set.Degraded) != 0 {
		t.Fatalf("60-candle history should compute everything, degraded: %v", set.Degraded)
	}
	if set.RSI < 0 || set.RSI > 100 {
		t.Errorf("RSI out of bounds: %.4f", set.RSI)
	}
	if set.ATR <= 0 {
		t.Errorf("expected positive ATR, got %.4f", set.ATR)
	}
	if set.Momentum == "" {
		t.Error("momentum label missing")
	}
}
