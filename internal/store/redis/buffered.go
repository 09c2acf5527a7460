package redis

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

// BufferedLogger wraps a Logger with a circuit breaker. While the breaker is
// open, snapshots are buffered locally (oldest dropped past maxBuf) and
// replayed when the breaker closes.
type BufferedLogger struct {
	logger *Logger
	cb     *Breaker
	ctx    context.Context

	mu     sync.Mutex
	buffer [][]byte
	maxBuf int

	OnBuffer func()
	OnFlush  func(count int)
}

// NewBufferedLogger wraps logger with breaker cb. ctx bounds replay writes.
func NewBufferedLogger(ctx context.Context, logger *Logger, cb *Breaker, maxBufferSize int) *BufferedLogger {
	if maxBufferSize <= 0 {
		maxBufferSize = 10000
	}
	bl := &BufferedLogger{
		logger: logger,
		cb:     cb,
		ctx:    ctx,
		buffer: make([][]byte, 0, 256),
		maxBuf: maxBufferSize,
	}

	prev := cb.OnStateChange
	cb.OnStateChange = func(from, to State) {
		if prev != nil {
			prev(from, to)
		}
		if to == StateClosed {
			go bl.flush()
		}
	}

	return bl
}

// LogSnapshot writes through the circuit breaker, buffering when open.
func (bl *BufferedLogger) LogSnapshot(snap model.Snapshot) error {
	err := bl.cb.Do(func() error {
		return bl.logger.LogSnapshot(bl.ctx, snap)
	})
	if err == ErrCircuitOpen {
		bl.bufferSnapshot(snap)
		return nil // buffered, not lost
	}
	return err
}

func (bl *BufferedLogger) bufferSnapshot(snap model.Snapshot) {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	if len(bl.buffer) >= bl.maxBuf {
		bl.buffer = bl.buffer[1:]
	}
	bl.buffer = append(bl.buffer, snap.JSON())

	if bl.OnBuffer != nil {
		bl.OnBuffer()
	}
}

// flush replays buffered snapshots through the underlying logger.
func (bl *BufferedLogger) flush() {
	bl.mu.Lock()
	if len(bl.buffer) == 0 {
		bl.mu.Unlock()
		return
	}
	toFlush := bl.buffer
	bl.buffer = make([][]byte, 0, 256)
	bl.mu.Unlock()

	flushed := 0
	for _, data := range toFlush {
		var snap model.Snapshot
		if json.Unmarshal(data, &snap) != nil {
			continue
		}
		if err := bl.logger.LogSnapshot(bl.ctx, snap); err != nil {
			log.Printf("[redis] replay write failed: %v", err)
			continue
		}
		flushed++
	}

	log.Printf("[redis] flushed %d buffered snapshots", flushed)
	if bl.OnFlush != nil {
		bl.OnFlush(flushed)
	}
}

// PendingCount returns the number of buffered snapshots awaiting replay.
func (bl *BufferedLogger) PendingCount() int {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	return len(bl.buffer)
}

// Underlying returns the wrapped logger.
func (bl *BufferedLogger) Underlying() *Logger {
	return bl.logger
}
