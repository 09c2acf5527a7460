package feed

import (
	"sync"
	"time"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

// window is a bounded rolling buffer of closed minute candles for one
// symbol, plus the bucket currently being built from live ticks. Oldest
// candles are overwritten once the buffer is full.
type window struct {
	mu   sync.Mutex
	buf  []model.Candle
	head int // next write position
	size int // number of filled slots

	current   model.Candle
	bucketTS  time.Time
	hasBucket bool
}

func newWindow(capacity int) *window {
	if capacity < 2 {
		capacity = 2
	}
	return &window{buf: make([]model.Candle, capacity)}
}

// apply folds one tick into the window, closing out the minute bucket when
// the tick crosses into a new minute.
func (w *window) apply(price, size float64, ts time.Time) {
	bucket := ts.Truncate(time.Minute)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.hasBucket && bucket.After(w.bucketTS) {
		w.pushLocked(w.current)
		w.hasBucket = false
	}

	if !w.hasBucket {
		w.current = model.Candle{
			TS:     bucket,
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: size,
		}
		w.bucketTS = bucket
		w.hasBucket = true
		return
	}

	if price > w.current.High {
		w.current.High = price
	}
	if price < w.current.Low {
		w.current.Low = price
	}
	w.current.Close = price
	w.current.Volume += size
}

func (w *window) pushLocked(c model.Candle) {
	w.buf[w.head] = c
	w.head = (w.head + 1) % len(w.buf)
	if w.size < len(w.buf) {
		w.size++
	}
}

// last returns up to n closed candles in ascending time order.
func (w *window) last(n int) []model.Candle {
	w.mu.Lock()
	defer w.mu.Unlock()

	if n <= 0 || n > w.size {
		n = w.size
	}
	out := make([]model.Candle, n)
	start := (w.head - n + len(w.buf)) % len(w.buf)
	for i := 0; i < n; i++ {
		out[i] = w.buf[(start+i)%len(w.buf)]
	}
	return out
}

func (w *window) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}
