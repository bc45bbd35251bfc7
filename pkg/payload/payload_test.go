package payload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuer-ai/zaku-go/pkg/types"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	payload := []byte{0x82, 0xa3, 0x66, 0x6f, 0x6f}
	require.NoError(t, s.Put(ctx, "Zaku-task-queues_renders", "job-1", payload))

	got, err := s.Fetch(ctx, "Zaku-task-queues_renders", "job-1")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// The store keeps its own copy.
	payload[0] = 0x00
	got, err = s.Fetch(ctx, "Zaku-task-queues_renders", "job-1")
	require.NoError(t, err)
	assert.Equal(t, byte(0x82), got[0])
}

func TestMemoryStoreFetchMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Fetch(context.Background(), "nope", "job-1")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestMemoryStoreBulkDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "coll", "a", []byte("1")))
	require.NoError(t, s.Put(ctx, "coll", "b", []byte("2")))

	n, err := s.BulkDelete(ctx, "coll", []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.BulkDelete(ctx, "coll", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestMemoryStoreDropCollection(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "coll", "a", []byte("1")))
	require.NoError(t, s.DropCollection(ctx, "coll"))

	_, err := s.Fetch(ctx, "coll", "a")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRedisKeyMapping(t *testing.T) {
	s := &RedisStore{prefix: "Zaku-task-queues"}

	tests := []struct {
		name       string
		collection string
		docID      string
		want       string
	}{
		{
			name:       "job payload lands next to metadata",
			collection: "Zaku-task-queues_renders",
			docID:      "job-1",
			want:       "Zaku-task-queues:renders:job-1.payload",
		},
		{
			name:       "topic payload",
			collection: "Zaku-task-queues_renders_topics",
			docID:      "msg-1",
			want:       "Zaku-task-queues:renders_topics:msg-1.payload",
		},
		{
			name:       "foreign prefix kept as-is",
			collection: "other_renders",
			docID:      "job-1",
			want:       "other_renders:job-1.payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.key(tt.collection, tt.docID))
		})
	}
}
