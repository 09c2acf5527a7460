// Package risk computes ATR-based position sizing, exit levels, and
// advisory validation for long entries. Sizing is fixed-fractional: each
// trade risks a configured fraction of portfolio value, capped by a maximum
// position fraction.
package risk

import (
	"fmt"
	"time"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

// Config holds the tunable risk parameters. Zero-value fields are replaced
// by defaults at construction.
type Config struct {
	RiskPerTrade        float64 // fraction of portfolio risked per trade
	ATRMultiplier       float64 // stop distance = ATR * multiplier
	RewardRatio         float64 // take-profit distance = stop distance * ratio
	MaxPositionFraction float64 // position value cap as fraction of portfolio
	MaxPortfolioRisk    float64 // validation cap as fraction of portfolio
}

// DefaultConfig returns the conventional conservative parameters.
func DefaultConfig() Config {
	return Config{
		RiskPerTrade:        0.01,
		ATRMultiplier:       2.0,
		RewardRatio:         2.0,
		MaxPositionFraction: 0.02,
		MaxPortfolioRisk:    0.05,
	}
}

// Engine derives risk controls from price and volatility. It holds only
// configuration, so one Engine is safe across concurrent evaluations.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine, filling unset config fields with defaults.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.RiskPerTrade <= 0 {
		cfg.RiskPerTrade = def.RiskPerTrade
	}
	if cfg.ATRMultiplier <= 0 {
		cfg.ATRMultiplier = def.ATRMultiplier
	}
	if cfg.RewardRatio <= 0 {
		cfg.RewardRatio = def.RewardRatio
	}
	if cfg.MaxPositionFraction <= 0 {
		cfg.MaxPositionFraction = def.MaxPositionFraction
	}
	if cfg.MaxPortfolioRisk <= 0 {
		cfg.MaxPortfolioRisk = def.MaxPortfolioRisk
	}
	return &Engine{cfg: cfg}
}

// Controls computes position size, stop loss, and take profit for a long
// entry at entryPrice with the given ATR and portfolio value. A zero or
// negative stop distance (ATR 0 from a degraded computation) yields the
// fixed-percentage fallback controls instead of an error.
func (e *Engine) Controls(entryPrice, atr, portfolioValue float64) model.RiskControls {
	stopDistance := atr * e.cfg.ATRMultiplier
	if stopDistance <= 0 || entryPrice <= 0 || portfolioValue <= 0 {
		return e.fallbackControls(entryPrice)
	}

	stopLoss := entryPrice - stopDistance
	riskAmount := portfolioValue * e.cfg.RiskPerTrade
	rawSize := riskAmount / stopDistance

	maxSize := portfolioValue * e.cfg.MaxPositionFraction / entryPrice
	size := rawSize
	if size > maxSize {
		size = maxSize
	}

	takeProfitDistance := stopDistance * e.cfg.RewardRatio

	return model.RiskControls{
		EntryPrice:      entryPrice,
		PositionSize:    size,
		PositionValue:   size * entryPrice,
		StopLoss:        stopLoss,
		TakeProfit:      entryPrice + takeProfitDistance,
		RiskAmount:      size * stopDistance,
		RiskPercentage:  size * stopDistance / portfolioValue * 100,
		PotentialProfit: size * takeProfitDistance,
		// Recomputed from the actual distances as a consistency check.
		RiskRewardRatio: takeProfitDistance / stopDistance,
		TS:              time.Now().UTC(),
	}
}

// fallbackControls returns the fixed-percentage controls used when no usable
// stop distance exists: 5% stop, 10% target, minimal fixed size.
func (e *Engine) fallbackControls(entryPrice float64) model.RiskControls {
	const minSize = 0.001
	return model.RiskControls{
		EntryPrice:      entryPrice,
		PositionSize:    minSize,
		PositionValue:   entryPrice * minSize,
		StopLoss:        entryPrice * 0.95,
		TakeProfit:      entryPrice * 1.10,
		RiskAmount:      entryPrice * minSize * 0.05,
		RiskPercentage:  0.5,
		PotentialProfit: entryPrice * minSize * 0.10,
		RiskRewardRatio: 2.0,
		Fallback:        true,
		TS:              time.Now().UTC(),
	}
}

// Validate checks risk controls against configured limits. The result is
// advisory: callers decide whether to act on a risk-invalid signal.
func (e *Engine) Validate(rc model.RiskControls) model.Validation {
	v := model.Validation{Warnings: []string{}, Errors: []string{}}

	if rc.PositionSize <= 0 {
		v.Errors = append(v.Errors, "position size must be positive")
	}
	maxPct := e.cfg.MaxPortfolioRisk * 100
	if rc.RiskPercentage > maxPct {
		v.Errors = append(v.Errors, fmt.Sprintf(
			"risk percentage (%.2f%%) exceeds maximum allowed (%.2f%%)", rc.RiskPercentage, maxPct))
	}
	if rc.StopLoss >= rc.EntryPrice {
		v.Errors = append(v.Errors, "stop loss must be below entry price")
	}
	if rc.RiskRewardRatio < 1.0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf(
			"risk:reward ratio (%.2f) is below recommended minimum (1.0)", rc.RiskRewardRatio))
	}

	v.IsValid = len(v.Errors) == 0
	return v
}

// PortfolioRisk aggregates risk across a set of prospective positions.
type PortfolioRisk struct {
	TotalRiskAmount    float64 `json:"total_risk_amount"`
	TotalPositionValue float64 `json:"total_position_value"`
	RiskPercentage     float64 `json:"risk_percentage"`
	PositionCount      int     `json:"position_count"`
	Status             string  `json:"status"` // Low, Medium, High
	MaxAllowedRisk     float64 `json:"max_allowed_risk"`
}

// Portfolio aggregates the risk of multiple controls into portfolio-level
// metrics with a coarse Low/Medium/High status.
func (e *Engine) Portfolio(controls ...model.RiskControls) PortfolioRisk {
	pr := PortfolioRisk{
		PositionCount:  len(controls),
		MaxAllowedRisk: e.cfg.MaxPortfolioRisk * 100,
		Status:         "Low",
	}
	for _, rc := range controls {
		pr.TotalRiskAmount += rc.RiskAmount
		pr.TotalPositionValue += rc.PositionValue
	}
	if pr.TotalPositionValue > 0 {
		pr.RiskPercentage = pr.TotalRiskAmount / pr.TotalPositionValue * 100
	}
	switch {
	case pr.RiskPercentage > e.cfg.MaxPortfolioRisk*100:
		pr.Status = "High"
	case pr.RiskPercentage > e.cfg.MaxPortfolioRisk*50:
		pr.Status = "Medium"
	}
	return pr
}
