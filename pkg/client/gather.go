package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Payload keys carrying the gather contract alongside user data. The
// broker never sees them as anything but payload bytes.
const (
	gatherIDKey    = "_gather_id"
	gatherTokenKey = "_gather_token"
)

// gatherPoll is how often Wait re-drains the reply queue
const gatherPoll = 100 * time.Millisecond

// Gather fans a batch of jobs out through the work queue and tracks
// acknowledgement tokens coming back on a private reply queue. Each
// job carries the reply-queue name and a fresh token in its payload;
// a worker that finishes posts the token back (AckGather does the
// bookkeeping), and the batch is settled once every token returned.
type Gather struct {
	work    *TaskQ
	replies *TaskQ

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewGather mints the private reply queue and returns an empty batch
func (q *TaskQ) NewGather(ctx context.Context) (*Gather, error) {
	replies := q.WithQueue(fmt.Sprintf("%s.gather.%s", q.queue, uuid.NewString()))
	if err := replies.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to create reply queue: %w", err)
	}
	return &Gather{
		work:    q,
		replies: replies,
		pending: make(map[string]struct{}),
	}, nil
}

// Gather enqueues the whole batch and returns its tracking handle
func (q *TaskQ) Gather(ctx context.Context, jobs []map[string]any) (*Gather, error) {
	g, err := q.NewGather(ctx)
	if err != nil {
		return nil, err
	}
	for _, job := range jobs {
		if _, err := g.Add(ctx, job); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Add enqueues one job tagged with the gather contract and returns its
// token. The caller's map is not modified.
func (g *Gather) Add(ctx context.Context, value map[string]any) (string, error) {
	token := uuid.NewString()
	tagged := make(map[string]any, len(value)+2)
	for k, v := range value {
		tagged[k] = v
	}
	tagged[gatherIDKey] = g.replies.queue
	tagged[gatherTokenKey] = token

	if _, err := g.work.AddData(ctx, tagged); err != nil {
		return "", err
	}
	g.mu.Lock()
	g.pending[token] = struct{}{}
	g.mu.Unlock()
	return token, nil
}

// Pending reports how many jobs have not been acknowledged yet
func (g *Gather) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// Done drains whatever acknowledgements have arrived and reports
// whether the whole batch is settled. It never waits for stragglers.
func (g *Gather) Done(ctx context.Context) (bool, error) {
	for {
		job, err := g.replies.Take(ctx)
		if err != nil {
			return false, err
		}
		if job == nil {
			break
		}
		value, err := job.Decode()
		if err == nil {
			if token, ok := value[gatherTokenKey].(string); ok {
				g.mu.Lock()
				delete(g.pending, token)
				g.mu.Unlock()
			}
		}
		if err := g.replies.MarkDone(ctx, job.ID); err != nil {
			return false, err
		}
	}
	return g.Pending() == 0, nil
}

// Wait blocks until every job in the batch is acknowledged or the
// context ends.
func (g *Gather) Wait(ctx context.Context) error {
	for {
		done, err := g.Done(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(gatherPoll):
		}
	}
}

// Close drops the reply queue. Acknowledgements arriving afterwards
// are lost, so settle the batch first.
func (g *Gather) Close(ctx context.Context) error {
	if err := g.replies.Clear(ctx); err != nil {
		return err
	}
	return g.replies.Drop(ctx)
}

// AckGather acknowledges a gathered job: it reads the reply queue and
// token planted by Gather.Add, strips them from value, and posts the
// token back. Returns false when value carries no gather contract.
func (q *TaskQ) AckGather(ctx context.Context, value map[string]any) (bool, error) {
	id, ok := value[gatherIDKey].(string)
	if !ok || id == "" {
		return false, nil
	}
	token, ok := value[gatherTokenKey].(string)
	if !ok || token == "" {
		return false, nil
	}
	delete(value, gatherIDKey)
	delete(value, gatherTokenKey)
	_, err := q.WithQueue(id).AddData(ctx, map[string]any{gatherTokenKey: token})
	return true, err
}
