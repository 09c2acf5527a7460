// Package sqlite persists evaluation snapshots locally for dashboard
// history queries. Writes are batched into transactions by a single writer
// goroutine; the database runs in WAL mode.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

const (
	defaultBatchSize  = 50
	defaultFlushDelay = 500 * time.Millisecond
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // e.g. "data/snapshots.db"
}

// Writer is a single-goroutine SQLite writer with transaction batching.
type Writer struct {
	db *sql.DB

	// OnCommit is called with the duration of each successful batch commit.
	OnCommit func(d time.Duration)
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New opens the database in WAL mode and creates the schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol     TEXT    NOT NULL,
			ts         INTEGER NOT NULL,
			decision   TEXT    NOT NULL,
			strength   TEXT    NOT NULL,
			confidence REAL    NOT NULL,
			price      REAL    NOT NULL,
			data       TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_ts ON snapshots (symbol, ts);
	`)
	return err
}

// Run reads snapshots from snapCh and inserts them in batched transactions.
// Flushes every batchSize snapshots or every flushDelay, whichever first.
// Blocks until ctx is cancelled or snapCh is closed.
func (w *Writer) Run(ctx context.Context, snapCh <-chan model.Snapshot) {
	batch := make([]model.Snapshot, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		if err := w.insertBatch(batch); err != nil {
			log.Printf("[sqlite] batch insert error: %v", err)
		} else {
			log.Printf("[sqlite] committed %d snapshots in %v", len(batch), time.Since(start))
			if w.OnCommit != nil {
				w.OnCommit(time.Since(start))
			}
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case snap, ok := <-snapCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, snap)
			if len(batch) >= defaultBatchSize {
				flush()
				timer.Reset(defaultFlushDelay)
			}

		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

// insertBatch inserts a batch of snapshots in a single transaction.
func (w *Writer) insertBatch(snaps []model.Snapshot) error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO snapshots (symbol, ts, decision, strength, confidence, price, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, s := range snaps {
		_, err := stmt.Exec(
			s.Symbol,
			s.TS.Unix(),
			string(s.Signal.Decision),
			string(s.Signal.Strength),
			s.Signal.Confidence,
			s.Quote.Price,
			string(s.JSON()),
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// SnapshotRow is one persisted evaluation, as returned by Recent.
type SnapshotRow struct {
	ID         int64   `json:"id"`
	Symbol     string  `json:"symbol"`
	TS         int64   `json:"ts"`
	Decision   string  `json:"decision"`
	Strength   string  `json:"strength"`
	Confidence float64 `json:"confidence"`
	Price      float64 `json:"price"`
	Data       string  `json:"data"`
}

// Recent returns the latest limit snapshots for a symbol, newest first.
func (w *Writer) Recent(symbol string, limit int) ([]SnapshotRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := w.db.Query(`
		SELECT id, symbol, ts, decision, strength, confidence, price, data
		FROM snapshots WHERE symbol = ? ORDER BY ts DESC LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query recent: %w", err)
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var r SnapshotRow
		if err := rows.Scan(&r.ID, &r.Symbol, &r.TS, &r.Decision, &r.Strength, &r.Confidence, &r.Price, &r.Data); err != nil {
			return nil, fmt.Errorf("sqlite scan snapshot: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune deletes snapshots older than the retention window.
func (w *Writer) Prune(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan).Unix()
	res, err := w.db.Exec(`DELETE FROM snapshots WHERE ts < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("sqlite prune: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("[sqlite] pruned %d old snapshots", n)
	}
	return nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
