// Package config loads the bot configuration from the environment, with an
// optional .env file for local development. All knobs have working defaults:
// a bare `botd` starts up on synthetic data with no external services.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/bhavikk10/crypto-trading-bot/internal/indicator"
	"github.com/bhavikk10/crypto-trading-bot/internal/risk"
	"github.com/bhavikk10/crypto-trading-bot/internal/strategy"
)

// Config is the full bot configuration.
type Config struct {
	Symbols      []string      `envconfig:"SYMBOLS" default:"BTC-USD,ETH-USD"`
	Interval     time.Duration `envconfig:"EVAL_INTERVAL" default:"30s"`
	HistoryLimit int           `envconfig:"HISTORY_LIMIT" default:"100"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`

	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8000"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:""`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	SQLitePath string `envconfig:"SQLITE_PATH" default:""`
	WebhookURL string `envconfig:"WEBHOOK_URL" default:""`

	FeedEnabled bool   `envconfig:"FEED_ENABLED" default:"true"`
	FeedURL     string `envconfig:"FEED_URL" default:""`

	CoinbaseURL   string        `envconfig:"COINBASE_URL" default:""`
	SourceTimeout time.Duration `envconfig:"SOURCE_TIMEOUT" default:"3s"`
	QuoteMaxAge   time.Duration `envconfig:"QUOTE_MAX_AGE" default:"2m"`
	SyntheticSeed uint64        `envconfig:"SYNTHETIC_SEED" default:"0"`

	SentimentMaxAge time.Duration `envconfig:"SENTIMENT_MAX_AGE" default:"15m"`

	PortfolioValue      float64 `envconfig:"PORTFOLIO_VALUE" default:"10000"`
	RiskPerTrade        float64 `envconfig:"RISK_PER_TRADE" default:"0.01"`
	ATRMultiplier       float64 `envconfig:"ATR_MULTIPLIER" default:"2.0"`
	RewardRatio         float64 `envconfig:"REWARD_RATIO" default:"2.0"`
	MaxPositionFraction float64 `envconfig:"MAX_POSITION_FRACTION" default:"0.02"`
	MaxPortfolioRisk    float64 `envconfig:"MAX_PORTFOLIO_RISK" default:"0.05"`

	MomentumWeight      float64 `envconfig:"MOMENTUM_WEIGHT" default:"0.6"`
	SentimentWeight     float64 `envconfig:"SENTIMENT_WEIGHT" default:"0.4"`
	BuyThreshold        float64 `envconfig:"BUY_THRESHOLD" default:"0.6"`
	SellThreshold       float64 `envconfig:"SELL_THRESHOLD" default:"0.4"`
	ConfidenceThreshold float64 `envconfig:"CONFIDENCE_THRESHOLD" default:"0.7"`

	RSIPeriod       int     `envconfig:"RSI_PERIOD" default:"14"`
	ADXPeriod       int     `envconfig:"ADX_PERIOD" default:"14"`
	ATRPeriod       int     `envconfig:"ATR_PERIOD" default:"14"`
	MACDFast        int     `envconfig:"MACD_FAST" default:"12"`
	MACDSlow        int     `envconfig:"MACD_SLOW" default:"26"`
	MACDSignal      int     `envconfig:"MACD_SIGNAL" default:"9"`
	BollingerPeriod int     `envconfig:"BOLLINGER_PERIOD" default:"20"`
	BollingerStdDev float64 `envconfig:"BOLLINGER_STDDEV" default:"2.0"`
}

// Load reads the optional .env file and maps environment variables onto the
// configuration.
func Load() (*Config, error) {
	// .env is a local development convenience; absence is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast on values the pipeline cannot run with.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("config: SYMBOLS must list at least one symbol")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("config: EVAL_INTERVAL must be positive, got %s", c.Interval)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("config: HISTORY_LIMIT must be positive, got %d", c.HistoryLimit)
	}
	if c.PortfolioValue <= 0 {
		return fmt.Errorf("config: PORTFOLIO_VALUE must be positive, got %.2f", c.PortfolioValue)
	}
	if c.RSIPeriod <= 0 || c.ADXPeriod <= 0 || c.ATRPeriod <= 0 ||
		c.MACDFast <= 0 || c.MACDSignal <= 0 || c.BollingerPeriod <= 0 {
		return fmt.Errorf("config: indicator periods must be positive")
	}
	if c.MACDSlow <= c.MACDFast {
		return fmt.Errorf("config: MACD_SLOW (%d) must exceed MACD_FAST (%d)", c.MACDSlow, c.MACDFast)
	}
	if c.BollingerStdDev <= 0 {
		return fmt.Errorf("config: BOLLINGER_STDDEV must be positive, got %.2f", c.BollingerStdDev)
	}
	if c.MaxPositionFraction <= 0 || c.MaxPositionFraction > 1 {
		return fmt.Errorf("config: MAX_POSITION_FRACTION must be in (0,1], got %.3f", c.MaxPositionFraction)
	}
	if c.MaxPortfolioRisk <= 0 || c.MaxPortfolioRisk > 1 {
		return fmt.Errorf("config: MAX_PORTFOLIO_RISK must be in (0,1], got %.3f", c.MaxPortfolioRisk)
	}
	if err := c.Strategy().Validate(); err != nil {
		return err
	}
	return nil
}

// Indicator returns the indicator periods as an engine config.
func (c *Config) Indicator() indicator.Config {
	return indicator.Config{
		RSIPeriod:       c.RSIPeriod,
		ADXPeriod:       c.ADXPeriod,
		ATRPeriod:       c.ATRPeriod,
		MACDFast:        c.MACDFast,
		MACDSlow:        c.MACDSlow,
		MACDSignal:      c.MACDSignal,
		BollingerPeriod: c.BollingerPeriod,
		BollingerStdDev: c.BollingerStdDev,
	}
}

// Risk returns the risk parameters as an engine config.
func (c *Config) Risk() risk.Config {
	return risk.Config{
		RiskPerTrade:        c.RiskPerTrade,
		ATRMultiplier:       c.ATRMultiplier,
		RewardRatio:         c.RewardRatio,
		MaxPositionFraction: c.MaxPositionFraction,
		MaxPortfolioRisk:    c.MaxPortfolioRisk,
	}
}

// Strategy returns the fusion parameters as an engine config.
func (c *Config) Strategy() strategy.Config {
	return strategy.Config{
		MomentumWeight:      c.MomentumWeight,
		SentimentWeight:     c.SentimentWeight,
		BuyThreshold:        c.BuyThreshold,
		SellThreshold:       c.SellThreshold,
		ConfidenceThreshold: c.ConfidenceThreshold,
	}
}

// Status reports which optional integrations are configured. Served by the
// gateway's config-status endpoint.
func (c *Config) Status() map[string]bool {
	return map[string]bool{
		"redis":   c.RedisAddr != "",
		"sqlite":  c.SQLitePath != "",
		"webhook": c.WebhookURL != "",
		"feed":    c.FeedEnabled,
	}
}
