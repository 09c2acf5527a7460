package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

func TestSignalAlert_Levels(t *testing.T) {
	moderate := SignalAlert("BTC-USD", model.TradingSignal{
		Decision:  model.DecisionBuy,
		Strength:  model.StrengthModerate,
		Rationale: "Signal: BUY (Moderate)",
	})
	assert.Equal(t, AlertInfo, moderate.Level)
	assert.Equal(t, "BUY BTC-USD (Moderate)", moderate.Title)

	strong := SignalAlert("ETH-USD", model.TradingSignal{
		Decision: model.DecisionSell,
		Strength: model.StrengthStrong,
	})
	assert.Equal(t, AlertWarning, strong.Level)
}

func TestWebhookNotifier_PostsJSON(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Send(context.Background(), Alert{Level: AlertInfo, Title: "BUY BTC-USD", Message: "test"})

	require.NoError(t, err)
	assert.Equal(t, "BUY BTC-USD", got["title"])
	assert.Equal(t, "INFO", got["level"])
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Send(context.Background(), Alert{Title: "x"})

	assert.Error(t, err)
}

type stubNotifier struct {
	name string
	err  error
	sent int
}

func (s *stubNotifier) Name() string { return s.name }
func (s *stubNotifier) Send(context.Context, Alert) error {
	s.sent++
	return s.err
}

func TestFanout_ContinuesPastFailures(t *testing.T) {
	bad := &stubNotifier{name: "bad", err: errors.New("down")}
	good := &stubNotifier{name: "good"}

	var delivered []string
	f := NewFanout(func(n string) { delivered = append(delivered, n) }, bad, good)
	f.Send(context.Background(), Alert{Title: "x"})

	assert.Equal(t, 1, bad.sent)
	assert.Equal(t, 1, good.sent)
	assert.Equal(t, []string{"good"}, delivered, "only successful deliveries hit the hook")
}
