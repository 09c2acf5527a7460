// Package notification delivers actionable-signal alerts to external
// channels. The engine emits an alert whenever a BUY or SELL signal clears
// the confidence gate; delivery failures are logged, never propagated into
// the evaluation pipeline.
package notification

import (
	"context"
	"fmt"
	"log"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// SignalAlert builds the alert for an actionable trading signal.
func SignalAlert(symbol string, sig model.TradingSignal) Alert {
	level := AlertInfo
	if sig.Strength == model.StrengthStrong || sig.Strength == model.StrengthVeryStrong {
		level = AlertWarning
	}
	return Alert{
		Level:   level,
		Title:   fmt.Sprintf("%s %s (%s)", sig.Decision, symbol, sig.Strength),
		Message: sig.Rationale,
	}
}

// Fanout sends each alert to every notifier, logging failures.
type Fanout struct {
	notifiers []Notifier
	onSent    func(notifier string)
}

// NewFanout builds a fanout over the given backends. onSent is an optional
// per-delivery hook (metrics); nil disables it.
func NewFanout(onSent func(notifier string), notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers, onSent: onSent}
}

// Send delivers the alert through every backend. Failures are logged and do
// not stop the remaining backends.
func (f *Fanout) Send(ctx context.Context, alert Alert) {
	for _, n := range f.notifiers {
		if err := n.Send(ctx, alert); err != nil {
			log.Printf("[notify] %s delivery failed: %v", n.Name(), err)
			continue
		}
		if f.onSent != nil {
			f.onSent(n.Name())
		}
	}
}

// LogNotifier logs alerts (useful for development and the offline CLI).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}
