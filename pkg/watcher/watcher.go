package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vuer-ai/zaku-go/pkg/bus"
	"github.com/vuer-ai/zaku-go/pkg/log"
	"github.com/vuer-ai/zaku-go/pkg/metrics"
	"github.com/vuer-ai/zaku-go/pkg/payload"
	"github.com/vuer-ai/zaku-go/pkg/types"
)

const (
	// pollSlice bounds each receive so the loop notices Stop and flush
	// deadlines promptly.
	pollSlice = 100 * time.Millisecond
	// flushEvery and flushCount bound how long and how many keys may
	// sit in the buffer before a delete batch goes out.
	flushEvery = time.Second
	flushCount = 1000
	// bufferCap caps the buffer during expiry storms; beyond it the
	// oldest keys are dropped.
	bufferCap = 10000
)

// Watcher turns Redis key-expiration events into payload store
// deletions. TTL markers expire, the watcher batches the expired key
// names, maps each back to its collection and bulk-deletes the
// documents they name.
type Watcher struct {
	bus    bus.Bus
	ps     payload.Store
	prefix string
	db     int

	sub       bus.Subscription
	buf       []string
	dropped   int
	lastFlush time.Time

	ctx    context.Context
	cancel context.CancelFunc
	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a watcher listening on the given Redis database number.
func New(b bus.Bus, ps payload.Store, prefix string, db int) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		bus:       b,
		ps:        ps,
		prefix:    prefix,
		db:        db,
		lastFlush: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start subscribes to expiration events and begins the watch loop.
func (w *Watcher) Start() error {
	pattern := fmt.Sprintf("__keyevent@%d__:expired", w.db)
	sub, err := w.bus.PSubscribe(w.ctx, pattern)
	if err != nil {
		return fmt.Errorf("failed to subscribe to key expirations: %w", err)
	}
	w.sub = sub
	log.Info(fmt.Sprintf("Expiration watcher listening on %s", pattern))
	go w.run()
	return nil
}

// Stop flushes the remaining buffer and stops the watch loop.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.cancel()
	<-w.doneCh
	_ = w.sub.Close()
}

// run is the main watch loop
func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			w.flush()
			return
		default:
		}

		key, err := w.sub.Receive(w.ctx, pollSlice)
		switch {
		case errors.Is(err, bus.ErrTimeout):
			// quiet slice
		case err != nil:
			if w.ctx.Err() != nil {
				w.flush()
				return
			}
			log.Warn(fmt.Sprintf("Expiration watcher receive error: %v", err))
			time.Sleep(pollSlice)
		default:
			w.buffer(string(key))
		}

		if len(w.buf) >= flushCount || time.Since(w.lastFlush) >= flushEvery {
			w.flush()
		}
	}
}

// buffer appends an expired key, dropping the oldest entry when the
// buffer is at capacity.
func (w *Watcher) buffer(key string) {
	metrics.GCKeysSeen.Inc()
	if len(w.buf) >= bufferCap {
		w.buf = w.buf[1:]
		w.dropped++
		metrics.GCKeysDropped.Inc()
	}
	w.buf = append(w.buf, key)
}

// flush groups buffered keys by collection and issues one bulk delete
// per collection. Failed batches are logged and the keys are lost; the
// next expiry storm does not wait for stragglers.
func (w *Watcher) flush() {
	w.lastFlush = time.Now()
	if w.dropped > 0 {
		log.Warn(fmt.Sprintf("Expired-key buffer overflowed, dropped %d oldest keys", w.dropped))
		w.dropped = 0
	}
	if len(w.buf) == 0 {
		return
	}

	groups := make(map[string][]string)
	for _, key := range w.buf {
		collection, docID, ok := types.SplitExpiredKey(w.prefix, key)
		if !ok {
			continue
		}
		groups[collection] = append(groups[collection], docID)
	}
	w.buf = w.buf[:0]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for collection, ids := range groups {
		n, err := w.ps.BulkDelete(ctx, collection, ids)
		if err != nil {
			log.Error(fmt.Sprintf("Failed to delete %d expired payloads from %s: %v", len(ids), collection, err))
			continue
		}
		metrics.GCDocsDeleted.Add(float64(n))
		log.Debug(fmt.Sprintf("Reclaimed %d of %d expired payloads from %s", n, len(ids), collection))
	}
	metrics.GCBatchesFlushed.Inc()
}
