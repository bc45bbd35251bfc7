package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerDrainsQueue(t *testing.T) {
	q := newTestQueue(t, "renders")
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := q.Add(ctx, []byte{byte(i)})
		require.NoError(t, err)
	}

	var processed atomic.Int64
	w := NewWorker(q, func(context.Context, *Job) error {
		processed.Add(1)
		return nil
	})
	w.Concurrency = 3
	w.Interval = 20 * time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	require.Eventually(t, func() bool {
		return processed.Load() == 12
	}, 10*time.Second, 20*time.Millisecond)

	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWorkerResetsFailedJobs(t *testing.T) {
	q := newTestQueue(t, "renders")
	ctx := context.Background()

	_, err := q.Add(ctx, []byte("x"))
	require.NoError(t, err)

	// Fail twice, then succeed. The job must come back after each
	// failure.
	var attempts atomic.Int64
	w := NewWorker(q, func(context.Context, *Job) error {
		if attempts.Add(1) < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	w.Interval = 20 * time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	require.Eventually(t, func() bool {
		return attempts.Load() >= 3
	}, 10*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		n, err := q.Count(ctx)
		return err == nil && n == 0
	}, 10*time.Second, 20*time.Millisecond)
}

func TestWorkerStopWaitsForInflight(t *testing.T) {
	q := newTestQueue(t, "renders")
	ctx := context.Background()

	_, err := q.Add(ctx, []byte("x"))
	require.NoError(t, err)

	var mu sync.Mutex
	var finished bool
	started := make(chan struct{})
	w := NewWorker(q, func(context.Context, *Job) error {
		close(started)
		time.Sleep(200 * time.Millisecond)
		mu.Lock()
		finished = true
		mu.Unlock()
		return nil
	})
	w.Interval = 10 * time.Millisecond
	require.NoError(t, w.Start())

	<-started
	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, finished, "Stop should wait for the in-flight job")
}

func TestWorkerStartValidation(t *testing.T) {
	w := NewWorker(nil, nil)
	assert.Error(t, w.Start())

	q := newTestQueue(t, "renders")
	w = NewWorker(q, nil)
	assert.Error(t, w.Start())

	// Stop before Start is harmless.
	w = NewWorker(q, func(context.Context, *Job) error { return nil })
	w.Stop()
}
