package engine

import (
	"context"
	"log"
	"sync"

	"github.com/bhavikk10/crypto-trading-bot/internal/model"
)

// Fanout broadcasts snapshots from a single input channel to N subscriber
// channels. If a subscriber channel is full the snapshot is dropped for that
// consumer, so a slow sink never blocks the evaluation loop.
type Fanout struct {
	mu      sync.RWMutex
	subs    []subscriber
	bufSize int

	// OnDrop is called with the subscriber name when a snapshot is dropped.
	OnDrop func(name string)
}

type subscriber struct {
	name string
	ch   chan model.Snapshot
}

// NewFanout creates a Fanout with the given buffer size for subscriber
// channels.
func NewFanout(bufSize int) *Fanout {
	if bufSize <= 0 {
		bufSize = 16
	}
	return &Fanout{bufSize: bufSize}
}

// Subscribe creates and returns a new named subscriber channel.
func (f *Fanout) Subscribe(name string) <-chan model.Snapshot {
	ch := make(chan model.Snapshot, f.bufSize)
	f.mu.Lock()
	f.subs = append(f.subs, subscriber{name: name, ch: ch})
	f.mu.Unlock()
	return ch
}

// Run reads from input and fans out to all subscribers. Blocks until ctx is
// cancelled or input is closed; subscriber channels are closed on exit.
func (f *Fanout) Run(ctx context.Context, input <-chan model.Snapshot) {
	defer func() {
		f.mu.RLock()
		for _, s := range f.subs {
			close(s.ch)
		}
		f.mu.RUnlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-input:
			if !ok {
				return
			}
			f.mu.RLock()
			for _, s := range f.subs {
				select {
				case s.ch <- snap:
				default:
					if f.OnDrop != nil {
						f.OnDrop(s.name)
					} else {
						log.Printf("[engine] sink %s full, dropping snapshot %s", s.name, snap.Symbol)
					}
				}
			}
			f.mu.RUnlock()
		}
	}
}
