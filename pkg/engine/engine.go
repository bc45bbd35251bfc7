package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vuer-ai/zaku-go/pkg/index"
	"github.com/vuer-ai/zaku-go/pkg/log"
	"github.com/vuer-ai/zaku-go/pkg/metrics"
	"github.com/vuer-ai/zaku-go/pkg/payload"
	"github.com/vuer-ai/zaku-go/pkg/types"
)

// Engine drives the job lifecycle across the metadata index and the
// payload store: add, claim, finish, reset, reclaim.
type Engine struct {
	mi     index.Store
	ps     payload.Store
	prefix string
}

func New(mi index.Store, ps payload.Store, prefix string) *Engine {
	return &Engine{mi: mi, ps: ps, prefix: prefix}
}

// CreateQueue makes the queue claimable. Creating an existing queue
// succeeds.
func (e *Engine) CreateQueue(ctx context.Context, queue string) error {
	if err := validateQueue(queue); err != nil {
		return err
	}
	if err := e.mi.EnsureQueue(ctx, queue); err != nil {
		return err
	}
	log.Info(fmt.Sprintf("Queue %s ready", queue))
	return nil
}

// DropQueue removes the queue's index, its keys and its payload
// collections. Document cleanup is best-effort; the expiration watcher
// mops up whatever is left behind markers.
func (e *Engine) DropQueue(ctx context.Context, queue string) error {
	if err := validateQueue(queue); err != nil {
		return err
	}
	if err := e.mi.DropQueue(ctx, queue); err != nil {
		return err
	}
	if _, err := e.mi.DeleteQueue(ctx, queue); err != nil {
		log.Warn(fmt.Sprintf("Failed to clear keys for dropped queue %s: %v", queue, err))
	}
	for _, coll := range []string{
		types.PayloadCollection(e.prefix, queue),
		types.TopicCollection(e.prefix, queue),
	} {
		if err := e.ps.DropCollection(ctx, coll); err != nil {
			log.Warn(fmt.Sprintf("Failed to drop collection %s: %v", coll, err))
		}
	}
	log.Info(fmt.Sprintf("Queue %s dropped", queue))
	return nil
}

// Add stores the payload, then publishes the job as claimable. The
// order matters: a job must never be claimable before its payload is
// readable. Returns the job ID, minting one when the producer did not
// supply it.
func (e *Engine) Add(ctx context.Context, req types.AddRequest) (string, error) {
	if err := validateQueue(req.Queue); err != nil {
		return "", err
	}
	if req.TTL < 0 {
		return "", types.BadInput("ttl must not be negative")
	}
	jobID := req.JobID
	if jobID == "" {
		jobID = uuid.NewString()
	}
	if len(req.Payload) > 0 {
		if err := e.ps.Put(ctx, types.PayloadCollection(e.prefix, req.Queue), jobID, req.Payload); err != nil {
			return "", fmt.Errorf("failed to store payload for job %s: %w", jobID, err)
		}
	}
	meta := types.JobMeta{CreatedTS: types.NowTS(), Status: types.JobStatusCreated}
	if err := e.mi.PutJob(ctx, req.Queue, jobID, meta, req.TTL); err != nil {
		return "", fmt.Errorf("failed to index job %s: %w", jobID, err)
	}
	metrics.JobsAdded.WithLabelValues(req.Queue).Inc()
	return jobID, nil
}

// Take claims the oldest created job and returns it with its payload.
// Returns (nil, nil) when nothing is claimable; an absent queue counts
// as empty, not as an error.
func (e *Engine) Take(ctx context.Context, queue string) (*types.TakenJob, error) {
	if err := validateQueue(queue); err != nil {
		return nil, err
	}
	timer := metrics.NewTimer()
	jobID, err := e.mi.ClaimOldest(ctx, queue, types.NowTS())
	if errors.Is(err, types.ErrNoIndex) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if jobID == "" {
		metrics.TakeEmpty.WithLabelValues(queue).Inc()
		return nil, nil
	}
	body, err := e.ps.Fetch(ctx, types.PayloadCollection(e.prefix, queue), jobID)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		// The claim stands; the worker decides whether a payload-less
		// job is workable or should be reset.
		log.Warn(fmt.Sprintf("Failed to fetch payload for job %s in queue %s: %v", jobID, queue, err))
	}
	timer.ObserveDuration(metrics.TakeDuration)
	metrics.JobsTaken.WithLabelValues(queue).Inc()
	return &types.TakenJob{JobID: jobID, Payload: body}, nil
}

// Remove deletes a finished or abandoned job. A jobID of "*" clears the
// whole queue.
func (e *Engine) Remove(ctx context.Context, queue, jobID string) error {
	if err := validateQueue(queue); err != nil {
		return err
	}
	if jobID == "" {
		return types.BadInput("job id is required")
	}
	if jobID == "*" {
		_, err := e.RemoveAll(ctx, queue)
		return err
	}
	if err := e.mi.DeleteJob(ctx, queue, jobID); err != nil {
		return err
	}
	if err := e.ps.Delete(ctx, types.PayloadCollection(e.prefix, queue), jobID); err != nil {
		log.Warn(fmt.Sprintf("Failed to delete payload for job %s in queue %s: %v", jobID, queue, err))
	}
	metrics.JobsRemoved.WithLabelValues(queue).Inc()
	return nil
}

// RemoveAll clears every job in the queue and reports how many keys
// were removed from the index.
func (e *Engine) RemoveAll(ctx context.Context, queue string) (int64, error) {
	if err := validateQueue(queue); err != nil {
		return 0, err
	}
	removed, err := e.mi.DeleteQueue(ctx, queue)
	if err != nil {
		return removed, err
	}
	if err := e.ps.DropCollection(ctx, types.PayloadCollection(e.prefix, queue)); err != nil {
		log.Warn(fmt.Sprintf("Failed to drop payload collection for queue %s: %v", queue, err))
	}
	metrics.JobsRemoved.WithLabelValues(queue).Add(float64(removed))
	log.Info(fmt.Sprintf("Cleared queue %s (%d keys)", queue, removed))
	return removed, nil
}

// Count reports how many jobs are claimable right now. A queue that was
// never created reports types.ErrNoIndex rather than zero so callers can
// tell "empty" from "absent".
func (e *Engine) Count(ctx context.Context, queue string) (int64, error) {
	if err := validateQueue(queue); err != nil {
		return 0, err
	}
	return e.mi.CountCreated(ctx, queue)
}

// Reset returns a claimed job to created so another worker can take it.
func (e *Engine) Reset(ctx context.Context, queue, jobID string) error {
	if err := validateQueue(queue); err != nil {
		return err
	}
	if jobID == "" {
		return types.BadInput("job id is required")
	}
	if err := e.mi.ResetJob(ctx, queue, jobID); err != nil {
		return err
	}
	metrics.JobsReset.WithLabelValues(queue).Inc()
	return nil
}

// Unstale reclaims every lease older than ttl and reports how many jobs
// went back to created. A zero ttl sweeps every outstanding lease.
func (e *Engine) Unstale(ctx context.Context, queue string, ttl time.Duration) (int64, error) {
	if err := validateQueue(queue); err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, types.BadInput("ttl must not be negative")
	}
	reset, err := e.mi.ResetStale(ctx, queue, ttl)
	if err != nil {
		if errors.Is(err, types.ErrNoIndex) {
			return 0, nil
		}
		return 0, err
	}
	n := int64(len(reset))
	if n > 0 {
		metrics.JobsUnstaled.WithLabelValues(queue).Add(float64(n))
		log.Info(fmt.Sprintf("Reclaimed %d stale jobs in queue %s", n, queue))
	}
	return n, nil
}

// Queues lists the queues known to the metadata index.
func (e *Engine) Queues(ctx context.Context) ([]string, error) {
	return e.mi.ListQueues(ctx)
}

func validateQueue(queue string) error {
	if queue == "" {
		return types.BadInput("queue name is required")
	}
	if strings.ContainsAny(queue, ": \t\n") {
		return types.BadInput("queue name %q must not contain colons or whitespace", queue)
	}
	return nil
}
