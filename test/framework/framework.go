package framework

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vuer-ai/zaku-go/pkg/client"
	"github.com/vuer-ai/zaku-go/pkg/embedded"
)

// Waiter polls a condition until it holds or the timeout elapses.
type Waiter struct {
	timeout  time.Duration
	interval time.Duration
}

// NewWaiter creates a Waiter with the given timeout and polling interval.
func NewWaiter(timeout, interval time.Duration) *Waiter {
	return &Waiter{
		timeout:  timeout,
		interval: interval,
	}
}

// DefaultWaiter returns a waiter tuned for broker operations
// (10s timeout, 50ms interval).
func DefaultWaiter() *Waiter {
	return NewWaiter(10*time.Second, 50*time.Millisecond)
}

// WaitFor waits for a condition to become true.
func (w *Waiter) WaitFor(ctx context.Context, condition func() bool, description string) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if condition() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for: %s (timeout: %v)", description, w.timeout)
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}

// WaitForCount waits for a queue to report exactly want claimable jobs.
func (w *Waiter) WaitForCount(ctx context.Context, q *client.TaskQ, want int64) error {
	return w.WaitFor(ctx, func() bool {
		n, err := q.Count(ctx)
		return err == nil && n == want
	}, fmt.Sprintf("queue %s to hold %d job(s)", q.Queue(), want))
}

// WaitForEmpty waits for a queue to drain to zero claimable jobs.
func (w *Waiter) WaitForEmpty(ctx context.Context, q *client.TaskQ) error {
	return w.WaitForCount(ctx, q, 0)
}

// WaitForSubscriber waits until publishing on the topic reaches at
// least one live subscriber, and counts that first delivered message.
func (w *Waiter) WaitForSubscriber(ctx context.Context, q *client.TaskQ, topic string, payload []byte) error {
	return w.WaitFor(ctx, func() bool {
		n, err := q.Publish(ctx, topic, payload)
		return err == nil && n > 0
	}, fmt.Sprintf("a subscriber on topic %s", topic))
}

// StartBroker boots an embedded broker on an ephemeral loopback port
// and stops it when the test finishes.
func StartBroker(t *testing.T) *embedded.Broker {
	t.Helper()
	b := embedded.New(nil)
	require.NoError(t, b.Start(), "embedded broker failed to start")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = b.Stop(ctx)
	})
	return b
}

// NewQueue creates a queue on the broker and drops it when the test
// finishes.
func NewQueue(t *testing.T, b *embedded.Broker, name string) *client.TaskQ {
	t.Helper()
	q, err := b.Queue(name)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, q.Init(ctx), "failed to create queue %s", name)
	t.Cleanup(func() { _ = q.Drop(context.Background()) })
	return q
}
