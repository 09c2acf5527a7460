// Package indicator computes technical indicators from candle histories.
//
// Every computation is a pure function that degrades to a documented neutral
// default instead of failing: short histories and zero-range inputs yield
// RSI 50, ADX 25, ATR 0, MACD/Bollinger zeros, each tagged with a Reason so
// callers (and tests) can tell why a neutral value was produced. Nothing in
// this package ever returns an error; the downstream signal pipeline depends
// on always getting a usable set.
package indicator

import (
	"time"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

// Reason explains why a computation fell back to its neutral default.
// The empty reason means the value was fully computed.
type Reason string

const (
	OK                     Reason = ""
	ReasonInsufficientData Reason = "insufficient_data"
	ReasonZeroRange        Reason = "zero_range"
)

// Neutral defaults returned on degraded computations.
const (
	NeutralRSI = 50.0
	NeutralADX = 25.0
	NeutralATR = 0.0
)

// Config holds the tunable periods for all indicators. A zero-value field
// is replaced by its conventional default at construction.
type Config struct {
	RSIPeriod       int
	ADXPeriod       int
	ATRPeriod       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	BollingerPeriod int
	BollingerStdDev float64
}

// DefaultConfig returns the conventional indicator periods.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:       14,
		ADXPeriod:       14,
		ATRPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerStdDev: 2.0,
	}
}

// Engine computes the full indicator set for a candle history. It holds only
// configuration, no per-call state, so a single Engine is safe to share
// across concurrent per-symbol evaluations.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine, filling unset config fields with defaults.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.RSIPeriod <= 0 {
		cfg.RSIPeriod = def.RSIPeriod
	}
	if cfg.ADXPeriod <= 0 {
		cfg.ADXPeriod = def.ADXPeriod
	}
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = def.ATRPeriod
	}
	if cfg.MACDFast <= 0 {
		cfg.MACDFast = def.MACDFast
	}
	if cfg.MACDSlow <= 0 {
		cfg.MACDSlow = def.MACDSlow
	}
	if cfg.MACDSignal <= 0 {
		cfg.MACDSignal = def.MACDSignal
	}
	if cfg.BollingerPeriod <= 0 {
		cfg.BollingerPeriod = def.BollingerPeriod
	}
	if cfg.BollingerStdDev <= 0 {
		cfg.BollingerStdDev = def.BollingerStdDev
	}
	return &Engine{cfg: cfg}
}

// Compute derives the full IndicatorSet from a history. Degraded lists every
// indicator that returned its neutral default, as "name:reason" entries.
func (e *Engine) Compute(h model.CandleHistory) model.IndicatorSet {
	closes := h.Closes()

	var degraded []string
	note := func(name string, r Reason) {
		if r != OK {
			degraded = append(degraded, name+":"+string(r))
		}
	}

	rsi, rsiReason := RSI(closes, e.cfg.RSIPeriod)
	note("rsi", rsiReason)

	adx, adxReason := ADX(h.Candles, e.cfg.ADXPeriod)
	note("adx", adxReason)

	atr, atrReason := ATR(h.Candles, e.cfg.ATRPeriod)
	note("atr", atrReason)

	macd, macdReason := MACD(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
	note("macd", macdReason)

	bb, bbReason := BollingerBands(closes, e.cfg.BollingerPeriod, e.cfg.BollingerStdDev)
	note("bollinger", bbReason)

	return model.IndicatorSet{
		RSI:       rsi,
		ADX:       adx,
		ATR:       atr,
		MACD:      macd,
		Bollinger: bb,
		Momentum:  Momentum(rsi, adx),
		Degraded:  degraded,
		TS:        time.Now().UTC(),
	}
}
