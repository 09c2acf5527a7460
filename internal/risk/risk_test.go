package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControls_CapsPositionSize(t *testing.T) {
	// Scenario from the sizing design: BTC-like entry at 45000, ATR 200,
	// 10k portfolio, 1% risk. Raw size 0.25 is capped by the 2% position cap.
	e := NewEngine(Config{})

	rc := e.Controls(45000, 200, 10000)

	assert.InDelta(t, 400.0, rc.EntryPrice-rc.StopLoss, 1e-9, "stop distance = ATR * 2")
	assert.InDelta(t, 45800.0, rc.TakeProfit, 1e-9, "take profit = entry + 800")

	maxSize := 10000 * 0.02 / 45000.0
	assert.InDelta(t, maxSize, rc.PositionSize, 1e-12, "size capped at maxSize")
	assert.InDelta(t, maxSize*400, rc.RiskAmount, 1e-9)
	assert.InDelta(t, 2.0, rc.RiskRewardRatio, 1e-9)
	assert.False(t, rc.Fallback)
}

func TestControls_UncappedWhenSmall(t *testing.T) {
	// Wide stop on a cheap asset: raw size stays under the cap.
	e := NewEngine(Config{})

	rc := e.Controls(100, 25, 10000)

	// stopDistance=50, riskAmount=100, rawSize=2; maxSize=(10000*0.02)/100=2 → equal
	assert.InDelta(t, 2.0, rc.PositionSize, 1e-12)
	assert.InDelta(t, 100.0, rc.RiskAmount, 1e-9)
	assert.InDelta(t, 1.0, rc.RiskPercentage, 1e-9)
}

func TestControls_ZeroATRFallsBack(t *testing.T) {
	e := NewEngine(Config{})

	rc := e.Controls(200, 0, 10000)

	require.True(t, rc.Fallback)
	assert.InDelta(t, 190.0, rc.StopLoss, 1e-9, "5%% fallback stop")
	assert.InDelta(t, 220.0, rc.TakeProfit, 1e-9, "10%% fallback target")
	assert.Equal(t, 0.001, rc.PositionSize)
}

func TestValidate_RoundTrip(t *testing.T) {
	// Feeding the engine's own output back through Validate with the entry
	// between stop and target must be clean.
	e := NewEngine(Config{})

	rc := e.Controls(45000, 200, 10000)
	v := e.Validate(rc)

	assert.True(t, v.IsValid)
	assert.Empty(t, v.Errors)
	assert.Empty(t, v.Warnings)
}

func TestValidate_Errors(t *testing.T) {
	e := NewEngine(Config{})

	rc := e.Controls(45000, 200, 10000)
	rc.PositionSize = 0
	rc.StopLoss = rc.EntryPrice + 1
	rc.RiskPercentage = 99

	v := e.Validate(rc)
	require.False(t, v.IsValid)
	assert.Len(t, v.Errors, 3)
}

func TestValidate_LowRewardWarns(t *testing.T) {
	e := NewEngine(Config{})

	rc := e.Controls(45000, 200, 10000)
	rc.RiskRewardRatio = 0.5

	v := e.Validate(rc)
	assert.True(t, v.IsValid, "warnings alone do not invalidate")
	assert.Len(t, v.Warnings, 1)
}

func TestPortfolio_StatusLadder(t *testing.T) {
	e := NewEngine(Config{})

	low := e.Portfolio(e.Controls(45000, 200, 10000))
	assert.Equal(t, "Low", low.Status)
	assert.Equal(t, 1, low.PositionCount)

	empty := e.Portfolio()
	assert.Equal(t, 0, empty.PositionCount)
	assert.Zero(t, empty.RiskPercentage)
}
