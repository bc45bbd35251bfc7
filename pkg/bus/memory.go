package bus

import (
	"context"
	"path"
	"sync"
	"time"
)

// subBuffer is the per-subscriber buffer; slow consumers drop messages
// rather than stall the publisher, matching Redis pub/sub behavior.
const subBuffer = 50

// MemoryBus is an in-process Bus used by embedded mode and tests.
type MemoryBus struct {
	mu   sync.RWMutex
	subs map[*memorySub]bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[*memorySub]bool)}
}

// Publish delivers payload to every matching subscriber and reports how
// many matched. Full subscriber buffers are skipped.
func (b *MemoryBus) Publish(_ context.Context, channel string, payload []byte) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var n int64
	for sub := range b.subs {
		if !sub.matches(channel) {
			continue
		}
		n++
		select {
		case sub.ch <- append([]byte(nil), payload...):
		default:
			// Subscriber buffer full, skip
		}
	}
	return n, nil
}

func (b *MemoryBus) Subscribe(_ context.Context, channel string) (Subscription, error) {
	return b.add(channel, false), nil
}

func (b *MemoryBus) PSubscribe(_ context.Context, pattern string) (Subscription, error) {
	return b.add(pattern, true), nil
}

func (b *MemoryBus) Ping(_ context.Context) error { return nil }

// SubscriberCount returns the number of subscribers matching channel.
func (b *MemoryBus) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for sub := range b.subs {
		if sub.matches(channel) {
			n++
		}
	}
	return n
}

func (b *MemoryBus) add(channel string, pattern bool) *memorySub {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &memorySub{
		bus:     b,
		channel: channel,
		pattern: pattern,
		ch:      make(chan []byte, subBuffer),
	}
	b.subs[sub] = true
	return sub
}

func (b *MemoryBus) remove(sub *memorySub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[sub] {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

type memorySub struct {
	bus     *MemoryBus
	channel string
	pattern bool
	ch      chan []byte
}

func (s *memorySub) matches(channel string) bool {
	if !s.pattern {
		return s.channel == channel
	}
	ok, err := path.Match(s.channel, channel)
	return err == nil && ok
}

func (s *memorySub) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case msg, ok := <-s.ch:
		if !ok {
			return nil, ErrClosed
		}
		return msg, nil
	case <-t.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *memorySub) Close() error {
	s.bus.remove(s)
	return nil
}
