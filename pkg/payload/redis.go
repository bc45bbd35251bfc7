package payload

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/vuer-ai/zaku-go/pkg/types"
)

// RedisStore implements Store on plain Redis keys, co-located with the
// metadata index. Used when running without MongoDB.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore wraps the client shared with the metadata index. The
// index store owns the client's lifecycle.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// key maps the underscore collection form back to the colon key form,
// so job payloads land next to their metadata documents:
//
//	{prefix}_{queue} / {job_id}  ->  {prefix}:{queue}:{job_id}.payload
func (s *RedisStore) key(collection, docID string) string {
	if rest, ok := strings.CutPrefix(collection, s.prefix+"_"); ok {
		return types.PayloadKey(s.prefix, rest, docID)
	}
	return collection + ":" + docID + ".payload"
}

func (s *RedisStore) Put(ctx context.Context, collection, docID string, payload []byte) error {
	if err := s.rdb.Set(ctx, s.key(collection, docID), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to store payload %s/%s: %w", collection, docID, err)
	}
	return nil
}

func (s *RedisStore) Fetch(ctx context.Context, collection, docID string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.key(collection, docID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payload %s/%s: %w", collection, docID, err)
	}
	return b, nil
}

func (s *RedisStore) Delete(ctx context.Context, collection, docID string) error {
	if err := s.rdb.Unlink(ctx, s.key(collection, docID)).Err(); err != nil {
		return fmt.Errorf("failed to delete payload %s/%s: %w", collection, docID, err)
	}
	return nil
}

func (s *RedisStore) BulkDelete(ctx context.Context, collection string, docIDs []string) (int64, error) {
	if len(docIDs) == 0 {
		return 0, nil
	}
	keys := make([]string, len(docIDs))
	for i, id := range docIDs {
		keys[i] = s.key(collection, id)
	}
	n, err := s.rdb.Unlink(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to bulk delete from %s: %w", collection, err)
	}
	return n, nil
}

// DropCollection unlinks every payload key for the collection. The
// ".payload" suffix keeps the scan away from metadata documents under
// the same prefix.
func (s *RedisStore) DropCollection(ctx context.Context, collection string) error {
	pattern := s.key(collection, "*")
	var batch []string
	iter := s.rdb.Scan(ctx, 0, pattern, 500).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 500 {
			if err := s.rdb.Unlink(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to drop collection %s: %w", collection, err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan collection %s: %w", collection, err)
	}
	if len(batch) > 0 {
		if err := s.rdb.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to drop collection %s: %w", collection, err)
		}
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close is a no-op; the shared client belongs to the metadata index.
func (s *RedisStore) Close() error { return nil }
