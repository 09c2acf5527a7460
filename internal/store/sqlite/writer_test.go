package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

func testWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := New(WriterConfig{DBPath: filepath.Join(t.TempDir(), "snapshots.db")})
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func snap(symbol string, ts time.Time, decision model.Decision, price float64) model.Snapshot {
	return model.Snapshot{
		Symbol: symbol,
		Quote:  model.Quote{Symbol: symbol, Price: price, TS: ts, Source: "test"},
		Signal: model.TradingSignal{
			Decision:   decision,
			Strength:   model.StrengthModerate,
			Confidence: 0.8,
			TS:         ts,
		},
		TS: ts,
	}
}

func TestWriter_InsertAndRecent(t *testing.T) {
	w := testWriter(t)
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	batch := []model.Snapshot{
		snap("BTC-USD", base, model.DecisionHold, 45000),
		snap("BTC-USD", base.Add(time.Minute), model.DecisionBuy, 45100),
		snap("ETH-USD", base.Add(time.Minute), model.DecisionSell, 3000),
	}
	require.NoError(t, w.insertBatch(batch))

	rows, err := w.Recent("BTC-USD", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "BUY", rows[0].Decision, "newest first")
	assert.Equal(t, 45100.0, rows[0].Price)
	assert.Equal(t, "HOLD", rows[1].Decision)
	assert.Contains(t, rows[0].Data, `"symbol":"BTC-USD"`)

	rows, err = w.Recent("ETH-USD", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SELL", rows[0].Decision)
}

func TestWriter_RecentLimits(t *testing.T) {
	w := testWriter(t)
	base := time.Now().UTC()

	var batch []model.Snapshot
	for i := 0; i < 5; i++ {
		batch = append(batch, snap("BTC-USD", base.Add(time.Duration(i)*time.Minute), model.DecisionHold, 45000))
	}
	require.NoError(t, w.insertBatch(batch))

	rows, err := w.Recent("BTC-USD", 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestWriter_Prune(t *testing.T) {
	w := testWriter(t)
	now := time.Now().UTC()

	batch := []model.Snapshot{
		snap("BTC-USD", now.Add(-48*time.Hour), model.DecisionHold, 44000),
		snap("BTC-USD", now, model.DecisionHold, 45000),
	}
	require.NoError(t, w.insertBatch(batch))

	require.NoError(t, w.Prune(24*time.Hour))

	rows, err := w.Recent("BTC-USD", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 45000.0, rows[0].Price)
}
