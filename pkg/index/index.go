package index

import (
	"context"
	"time"

	"github.com/vuer-ai/zaku-go/pkg/types"
)

// Store is the metadata index: it owns queue search indexes, per-job
// metadata documents, and the atomic claim that moves a job from
// created to in_progress.
//
// Implemented by RedisStore (RediSearch + RedisJSON) in production and
// MemoryStore for embedded mode and tests.
type Store interface {
	// Queues
	EnsureQueue(ctx context.Context, queue string) error
	DropQueue(ctx context.Context, queue string) error
	ListQueues(ctx context.Context) ([]string, error)

	// Jobs
	PutJob(ctx context.Context, queue, jobID string, meta types.JobMeta, ttl time.Duration) error
	ClaimOldest(ctx context.Context, queue string, grabTS float64) (string, error)
	ResetJob(ctx context.Context, queue, jobID string) error
	DeleteJob(ctx context.Context, queue, jobID string) error
	DeleteQueue(ctx context.Context, queue string) (int64, error)
	CountCreated(ctx context.Context, queue string) (int64, error)
	ResetStale(ctx context.Context, queue string, ttl time.Duration) ([]string, error)

	// SetMarker plants a TTL-bearing marker key whose expiry tells the
	// watcher to reclaim the payload document it names.
	SetMarker(ctx context.Context, collection, docID string, ttl time.Duration) error

	// Utility
	Ping(ctx context.Context) error
	Close() error
}
