package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"BTC-USD", "ETH-USD"}, cfg.Symbols)
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, 10000.0, cfg.PortfolioValue)
	assert.Equal(t, 0.6, cfg.MomentumWeight)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SYMBOLS", "SOL-USD")
	t.Setenv("EVAL_INTERVAL", "5s")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"SOL-USD"}, cfg.Symbols)
	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.True(t, cfg.Status()["redis"])
}

func TestLoad_RiskAndIndicatorOverrides(t *testing.T) {
	t.Setenv("MAX_POSITION_FRACTION", "0.10")
	t.Setenv("MAX_PORTFOLIO_RISK", "0.20")
	t.Setenv("MACD_FAST", "8")
	t.Setenv("MACD_SLOW", "21")
	t.Setenv("BOLLINGER_PERIOD", "10")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 0.10, cfg.Risk().MaxPositionFraction)
	assert.Equal(t, 0.20, cfg.Risk().MaxPortfolioRisk)
	assert.Equal(t, 8, cfg.Indicator().MACDFast)
	assert.Equal(t, 21, cfg.Indicator().MACDSlow)
	assert.Equal(t, 10, cfg.Indicator().BollingerPeriod)
}

func TestValidate_RejectsInvertedMACDPeriods(t *testing.T) {
	t.Setenv("MACD_FAST", "26")
	t.Setenv("MACD_SLOW", "12")

	_, err := Load()

	assert.Error(t, err)
}

func TestValidate_RejectsBadWeights(t *testing.T) {
	t.Setenv("MOMENTUM_WEIGHT", "0.9")
	t.Setenv("SENTIMENT_WEIGHT", "0.9")

	_, err := Load()

	assert.Error(t, err)
}

func TestValidate_RejectsEmptySymbols(t *testing.T) {
	cfg := Config{Interval: time.Second, HistoryLimit: 1, PortfolioValue: 1,
		RSIPeriod: 14, ADXPeriod: 14, ATRPeriod: 14,
		MomentumWeight: 0.6, SentimentWeight: 0.4}

	assert.Error(t, cfg.Validate())
}

func TestStatus(t *testing.T) {
	cfg := Config{SQLitePath: "/tmp/bot.db", FeedEnabled: true}

	status := cfg.Status()

	assert.True(t, status["sqlite"])
	assert.True(t, status["feed"])
	assert.False(t, status["redis"])
	assert.False(t, status["webhook"])
}
