package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/vuer-ai/zaku-go/pkg/config"
	"github.com/vuer-ai/zaku-go/pkg/types"
)

// claimScript picks the oldest created job and flips it to in_progress
// in a single atomic step. KEYS[1] is the queue's search index, ARGV[1]
// the grab timestamp. Returns the job's metadata key, or false when no
// job is claimable.
var claimScript = redis.NewScript(`
local res = redis.call('FT.SEARCH', KEYS[1], '@status:{created}', 'NOCONTENT', 'SORTBY', 'created_ts', 'ASC', 'LIMIT', '0', '1')
if res[1] == 0 then
    return false
end
local key = res[2]
redis.call('JSON.SET', key, '$.status', '"in_progress"')
redis.call('JSON.SET', key, '$.grab_ts', ARGV[1])
return key
`)

const scanBatch = 500

// RedisStore implements Store on Redis with the RediSearch and
// RedisJSON modules loaded (redis-stack).
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewClient builds the Redis client shared by the metadata index, the
// pub/sub bus and the expiration watcher. Sentinel settings take
// precedence over the plain host/port pair. Search commands require
// RESP2, so the protocol is pinned.
func NewClient(rc config.Redis, sc config.Sentinel) *redis.Client {
	if sc.Enabled() {
		hosts := append([]string(nil), sc.Hosts...)
		if sc.Shuffle {
			rand.Shuffle(len(hosts), func(i, j int) { hosts[i], hosts[j] = hosts[j], hosts[i] })
		}
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       sc.MasterName,
			SentinelAddrs:    hosts,
			SentinelPassword: sc.Password,
			Password:         rc.Password,
			DB:               sc.DB,
			Protocol:         2,
		})
	}
	return redis.NewClient(&redis.Options{
		Addr:     rc.Addr(),
		Password: rc.Password,
		DB:       rc.DB,
		Protocol: 2,
	})
}

// NewRedisStore wraps an existing client. Close tears the client down,
// so the composition root should close the store last when the client
// is shared.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// EnsureQueue creates the queue's search index. Creating a queue that
// already exists succeeds.
func (s *RedisStore) EnsureQueue(ctx context.Context, queue string) error {
	err := s.rdb.FTCreate(ctx, types.QueueIndex(s.prefix, queue),
		&redis.FTCreateOptions{
			OnJSON: true,
			Prefix: []interface{}{types.QueueKeyPrefix(s.prefix, queue)},
		},
		&redis.FieldSchema{FieldName: "$.created_ts", As: "created_ts", FieldType: redis.SearchFieldTypeNumeric, Sortable: true},
		&redis.FieldSchema{FieldName: "$.status", As: "status", FieldType: redis.SearchFieldTypeTag},
		&redis.FieldSchema{FieldName: "$.grab_ts", As: "grab_ts", FieldType: redis.SearchFieldTypeNumeric, Sortable: true},
	).Err()
	if err != nil {
		if isIndexExists(err) {
			return nil
		}
		return fmt.Errorf("failed to create index for queue %s: %w", queue, err)
	}
	return nil
}

// DropQueue removes the queue's search index. Documents under the
// queue prefix are left in place.
func (s *RedisStore) DropQueue(ctx context.Context, queue string) error {
	if err := s.rdb.FTDropIndex(ctx, types.QueueIndex(s.prefix, queue)).Err(); err != nil {
		return mapIndexErr(err)
	}
	return nil
}

// ListQueues returns the names of queues that currently have a search
// index under this store's prefix.
func (s *RedisStore) ListQueues(ctx context.Context) ([]string, error) {
	names, err := s.rdb.FT_List(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	var queues []string
	for _, name := range names {
		if q, ok := strings.CutPrefix(name, s.prefix+":"); ok {
			queues = append(queues, q)
		}
	}
	sort.Strings(queues)
	return queues, nil
}

// PutJob writes the job's metadata document. A positive ttl bounds the
// job's lifetime; the expiration watcher reclaims the payload after the
// key expires.
func (s *RedisStore) PutJob(ctx context.Context, queue, jobID string, meta types.JobMeta, ttl time.Duration) error {
	doc, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode metadata for job %s: %w", jobID, err)
	}
	key := types.JobKey(s.prefix, queue, jobID)
	pipe := s.rdb.Pipeline()
	pipe.JSONSet(ctx, key, "$", string(doc))
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write job %s: %w", jobID, err)
	}
	return nil
}

// ClaimOldest atomically claims the oldest created job and stamps its
// lease. Returns "" when nothing is claimable and ErrNoIndex when the
// queue has no index.
func (s *RedisStore) ClaimOldest(ctx context.Context, queue string, grabTS float64) (string, error) {
	res, err := claimScript.Run(ctx, s.rdb,
		[]string{types.QueueIndex(s.prefix, queue)},
		strconv.FormatFloat(grabTS, 'f', -1, 64),
	).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", mapIndexErr(err)
	}
	key, ok := res.(string)
	if !ok {
		return "", fmt.Errorf("claim script returned %T, want string", res)
	}
	return strings.TrimPrefix(key, types.QueueKeyPrefix(s.prefix, queue)), nil
}

// ResetJob returns a claimed job to created and clears its lease stamp.
func (s *RedisStore) ResetJob(ctx context.Context, queue, jobID string) error {
	key := types.JobKey(s.prefix, queue, jobID)
	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to look up job %s: %w", jobID, err)
	}
	if exists == 0 {
		return types.ErrNotFound
	}
	pipe := s.rdb.Pipeline()
	pipe.JSONSet(ctx, key, "$.status", strconv.Quote(string(types.JobStatusCreated)))
	pipe.JSONDel(ctx, key, "$.grab_ts")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to reset job %s: %w", jobID, err)
	}
	return nil
}

// DeleteJob unlinks the job's metadata document and its co-located
// payload key, when the payload store keeps payloads in Redis.
func (s *RedisStore) DeleteJob(ctx context.Context, queue, jobID string) error {
	key := types.JobKey(s.prefix, queue, jobID)
	if err := s.rdb.Unlink(ctx, key, types.PayloadKey(s.prefix, queue, jobID)).Err(); err != nil {
		return fmt.Errorf("failed to delete job %s: %w", jobID, err)
	}
	return nil
}

// DeleteQueue unlinks every key under the queue prefix and reports how
// many were removed. The search index stays; documents reappear as new
// jobs are added.
func (s *RedisStore) DeleteQueue(ctx context.Context, queue string) (int64, error) {
	var (
		removed int64
		batch   []string
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.rdb.Unlink(ctx, batch...).Result()
		if err != nil {
			return err
		}
		removed += n
		batch = batch[:0]
		return nil
	}
	iter := s.rdb.Scan(ctx, 0, types.QueueKeyPrefix(s.prefix, queue)+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= scanBatch {
			if err := flush(); err != nil {
				return removed, fmt.Errorf("failed to clear queue %s: %w", queue, err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan queue %s: %w", queue, err)
	}
	if err := flush(); err != nil {
		return removed, fmt.Errorf("failed to clear queue %s: %w", queue, err)
	}
	return removed, nil
}

// CountCreated counts jobs currently claimable. Returns ErrNoIndex when
// the queue has no index.
func (s *RedisStore) CountCreated(ctx context.Context, queue string) (int64, error) {
	res, err := s.rdb.FTSearchWithArgs(ctx, types.QueueIndex(s.prefix, queue),
		"@status:{created}",
		&redis.FTSearchOptions{NoContent: true, LimitOffset: 0, Limit: 1},
	).Result()
	if err != nil {
		return 0, mapIndexErr(err)
	}
	return int64(res.Total), nil
}

// ResetStale returns every job whose lease is older than ttl to
// created and reports their IDs. The search is paged; each page drops
// out of the query as it is reset.
func (s *RedisStore) ResetStale(ctx context.Context, queue string, ttl time.Duration) ([]string, error) {
	cutoff := types.NowTS() - ttl.Seconds()
	query := fmt.Sprintf("@status:{in_progress} @grab_ts:[0 %s]",
		strconv.FormatFloat(cutoff, 'f', -1, 64))
	idx := types.QueueIndex(s.prefix, queue)
	keyPrefix := types.QueueKeyPrefix(s.prefix, queue)

	var reset []string
	for {
		res, err := s.rdb.FTSearchWithArgs(ctx, idx, query,
			&redis.FTSearchOptions{NoContent: true, LimitOffset: 0, Limit: 100},
		).Result()
		if err != nil {
			return reset, mapIndexErr(err)
		}
		if len(res.Docs) == 0 {
			return reset, nil
		}
		pipe := s.rdb.Pipeline()
		for _, doc := range res.Docs {
			pipe.JSONSet(ctx, doc.ID, "$.status", strconv.Quote(string(types.JobStatusCreated)))
			pipe.JSONDel(ctx, doc.ID, "$.grab_ts")
			reset = append(reset, strings.TrimPrefix(doc.ID, keyPrefix))
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return reset, fmt.Errorf("failed to reset stale jobs in queue %s: %w", queue, err)
		}
	}
}

// EnableExpiryEvents asks the server to emit keyspace notifications
// for expired keys ("Ex"), which the expiration watcher listens for.
// Managed Redis often refuses CONFIG SET; callers warn and continue.
func (s *RedisStore) EnableExpiryEvents(ctx context.Context) error {
	if err := s.rdb.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		return fmt.Errorf("failed to enable expiry notifications: %w", err)
	}
	return nil
}

// SetMarker plants {collection}:{docID} with a TTL. When it expires,
// Redis emits a keyspace notification and the watcher deletes the
// payload document the marker names.
func (s *RedisStore) SetMarker(ctx context.Context, collection, docID string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, types.MarkerKey(collection, docID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set marker for %s/%s: %w", collection, docID, err)
	}
	return nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// WaitReady pings with exponential backoff until the server answers or
// the attempts are spent. Used at startup, where the metadata index is
// a hard dependency.
func (s *RedisStore) WaitReady(ctx context.Context) error {
	return backoff.Retry(func() error {
		return s.Ping(ctx)
	}, backoff.WithContext(retryPolicy(), ctx))
}

// Close tears down the underlying client and every connection sharing
// its pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// retryPolicy is the store-wide retry schedule: 3 attempts, 100ms
// initial interval, doubling.
func retryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	return backoff.WithMaxRetries(policy, 2)
}

// mapIndexErr normalizes RediSearch "unknown index" replies, whose
// wording varies across module versions.
func mapIndexErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "no such index") || strings.Contains(msg, "unknown index") {
		return types.ErrNoIndex
	}
	return err
}

func isIndexExists(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "index already exists")
}
