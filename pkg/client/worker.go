package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vuer-ai/zaku-go/pkg/log"
)

// defaultPollInterval is how long an idle worker sleeps between polls
const defaultPollInterval = 500 * time.Millisecond

// Worker drains a queue with a pool of goroutines, settling every job
// through the pop contract: done when the handler returns nil, reset
// when it fails or panics. Handler errors are logged and the loop
// keeps going; the failed job is already back in the queue.
type Worker struct {
	// Queue is the queue to drain
	Queue *TaskQ
	// Handler processes one job
	Handler func(ctx context.Context, job *Job) error
	// Concurrency is the pool size, at least 1
	Concurrency int
	// Interval is how long an idle goroutine sleeps before polling
	// again. Zero means defaultPollInterval.
	Interval time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWorker returns a single-goroutine worker for the queue. Adjust
// Concurrency and Interval before Start.
func NewWorker(queue *TaskQ, handler func(ctx context.Context, job *Job) error) *Worker {
	return &Worker{
		Queue:   queue,
		Handler: handler,
	}
}

// Start launches the pool. The queue must exist; workers report an
// absent queue the same as an empty one and spin quietly.
func (w *Worker) Start() error {
	if w.Queue == nil {
		return fmt.Errorf("worker has no queue")
	}
	if w.Handler == nil {
		return fmt.Errorf("worker has no handler")
	}
	if w.Concurrency <= 0 {
		w.Concurrency = 1
	}
	if w.Interval <= 0 {
		w.Interval = defaultPollInterval
	}
	w.stopCh = make(chan struct{})

	for i := 0; i < w.Concurrency; i++ {
		w.wg.Add(1)
		go w.run()
	}
	log.Info(fmt.Sprintf("Worker pool started on queue %s (%d goroutines)", w.Queue.Queue(), w.Concurrency))
	return nil
}

// Stop ends the pool and waits for in-flight jobs to settle
func (w *Worker) Stop() {
	if w.stopCh == nil {
		return
	}
	close(w.stopCh)
	w.wg.Wait()
	log.Info(fmt.Sprintf("Worker pool on queue %s stopped", w.Queue.Queue()))
}

// run polls the queue until stopped
func (w *Worker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		processed, err := w.Queue.PopFunc(context.Background(), w.Handler)
		if err != nil {
			log.Warn(fmt.Sprintf("Worker: job on queue %s failed: %v", w.Queue.Queue(), err))
		}
		if processed {
			continue
		}

		select {
		case <-w.stopCh:
			return
		case <-time.After(w.Interval):
		}
	}
}
