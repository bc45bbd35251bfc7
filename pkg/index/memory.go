package index

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vuer-ai/zaku-go/pkg/types"
)

// MemoryStore is an in-process Store used by embedded mode and tests.
// It mirrors the Redis semantics: documents can exist without an index,
// and claim/count on an unindexed queue return ErrNoIndex.
type MemoryStore struct {
	mu     sync.Mutex
	queues map[string]*memQueue
	seq    int64
}

type memQueue struct {
	indexed bool
	jobs    map[string]*memJob
}

type memJob struct {
	meta      types.JobMeta
	seq       int64
	expiresAt time.Time // zero means no TTL
}

func (j *memJob) expired(now time.Time) bool {
	return !j.expiresAt.IsZero() && now.After(j.expiresAt)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{queues: make(map[string]*memQueue)}
}

func (s *MemoryStore) EnsureQueue(_ context.Context, queue string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucket(queue).indexed = true
	return nil
}

func (s *MemoryStore) DropQueue(_ context.Context, queue string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[queue]
	if !ok || !q.indexed {
		return types.ErrNoIndex
	}
	q.indexed = false
	return nil
}

func (s *MemoryStore) ListQueues(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var queues []string
	for name, q := range s.queues {
		if q.indexed {
			queues = append(queues, name)
		}
	}
	sort.Strings(queues)
	return queues, nil
}

func (s *MemoryStore) PutJob(_ context.Context, queue, jobID string, meta types.JobMeta, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	job := &memJob{meta: meta, seq: s.seq}
	if ttl > 0 {
		job.expiresAt = time.Now().Add(ttl)
	}
	s.bucket(queue).jobs[jobID] = job
	return nil
}

func (s *MemoryStore) ClaimOldest(_ context.Context, queue string, grabTS float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.indexedQueue(queue)
	if err != nil {
		return "", err
	}
	now := time.Now()
	var (
		bestID string
		best   *memJob
	)
	for id, j := range q.jobs {
		if j.expired(now) || j.meta.Status != types.JobStatusCreated {
			continue
		}
		if best == nil || j.meta.CreatedTS < best.meta.CreatedTS ||
			(j.meta.CreatedTS == best.meta.CreatedTS && j.seq < best.seq) {
			best, bestID = j, id
		}
	}
	if best == nil {
		return "", nil
	}
	best.meta.Status = types.JobStatusInProgress
	best.meta.GrabTS = &grabTS
	return bestID, nil
}

func (s *MemoryStore) ResetJob(_ context.Context, queue, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[queue]
	if !ok {
		return types.ErrNotFound
	}
	job, ok := q.jobs[jobID]
	if !ok || job.expired(time.Now()) {
		return types.ErrNotFound
	}
	job.meta.Status = types.JobStatusCreated
	job.meta.GrabTS = nil
	return nil
}

func (s *MemoryStore) DeleteJob(_ context.Context, queue, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.queues[queue]; ok {
		delete(q.jobs, jobID)
	}
	return nil
}

func (s *MemoryStore) DeleteQueue(_ context.Context, queue string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[queue]
	if !ok {
		return 0, nil
	}
	removed := int64(len(q.jobs))
	q.jobs = make(map[string]*memJob)
	return removed, nil
}

func (s *MemoryStore) CountCreated(_ context.Context, queue string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.indexedQueue(queue)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	var n int64
	for _, j := range q.jobs {
		if !j.expired(now) && j.meta.Status == types.JobStatusCreated {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ResetStale(_ context.Context, queue string, ttl time.Duration) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.indexedQueue(queue)
	if err != nil {
		return nil, err
	}
	cutoff := types.NowTS() - ttl.Seconds()
	now := time.Now()
	var reset []string
	for id, j := range q.jobs {
		if j.expired(now) || j.meta.Status != types.JobStatusInProgress {
			continue
		}
		if j.meta.GrabTS != nil && *j.meta.GrabTS <= cutoff {
			j.meta.Status = types.JobStatusCreated
			j.meta.GrabTS = nil
			reset = append(reset, id)
		}
	}
	sort.Strings(reset)
	return reset, nil
}

// SetMarker is a no-op: no watcher runs in embedded mode, so a real
// marker would never be collected.
func (s *MemoryStore) SetMarker(_ context.Context, _, _ string, _ time.Duration) error {
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// bucket returns the queue's bucket, creating an unindexed one on
// first touch. Callers hold the lock.
func (s *MemoryStore) bucket(queue string) *memQueue {
	q, ok := s.queues[queue]
	if !ok {
		q = &memQueue{jobs: make(map[string]*memJob)}
		s.queues[queue] = q
	}
	return q
}

func (s *MemoryStore) indexedQueue(queue string) (*memQueue, error) {
	q, ok := s.queues[queue]
	if !ok || !q.indexed {
		return nil, types.ErrNoIndex
	}
	return q, nil
}
