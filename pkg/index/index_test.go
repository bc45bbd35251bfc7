package index

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuer-ai/zaku-go/pkg/types"
)

func newMeta(createdTS float64) types.JobMeta {
	return types.JobMeta{CreatedTS: createdTS, Status: types.JobStatusCreated}
}

func TestCountOnMissingIndex(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.CountCreated(ctx, "ghost")
	assert.ErrorIs(t, err, types.ErrNoIndex)

	_, err = s.ClaimOldest(ctx, "ghost", types.NowTS())
	assert.ErrorIs(t, err, types.ErrNoIndex)

	require.NoError(t, s.EnsureQueue(ctx, "ghost"))
	n, err := s.CountCreated(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestClaimOrdersByCreatedTS(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.EnsureQueue(ctx, "renders"))

	// Inserted out of order on purpose.
	require.NoError(t, s.PutJob(ctx, "renders", "mid", newMeta(200), 0))
	require.NoError(t, s.PutJob(ctx, "renders", "old", newMeta(100), 0))
	require.NoError(t, s.PutJob(ctx, "renders", "new", newMeta(300), 0))

	var got []string
	for {
		id, err := s.ClaimOldest(ctx, "renders", types.NowTS())
		require.NoError(t, err)
		if id == "" {
			break
		}
		got = append(got, id)
	}
	assert.Equal(t, []string{"old", "mid", "new"}, got)
}

func TestClaimAndResetRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.EnsureQueue(ctx, "renders"))
	require.NoError(t, s.PutJob(ctx, "renders", "job-1", newMeta(types.NowTS()), 0))

	id, err := s.ClaimOldest(ctx, "renders", types.NowTS())
	require.NoError(t, err)
	assert.Equal(t, "job-1", id)

	// Claimed jobs are no longer countable or claimable.
	n, err := s.CountCreated(ctx, "renders")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	id, err = s.ClaimOldest(ctx, "renders", types.NowTS())
	require.NoError(t, err)
	assert.Empty(t, id)

	// Reset makes it claimable again.
	require.NoError(t, s.ResetJob(ctx, "renders", "job-1"))
	n, err = s.CountCreated(ctx, "renders")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestResetJobMissing(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.EnsureQueue(ctx, "renders"))

	err := s.ResetJob(ctx, "renders", "nope")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestResetStale(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.EnsureQueue(ctx, "renders"))

	now := types.NowTS()
	require.NoError(t, s.PutJob(ctx, "renders", "stale-1", newMeta(now-600), 0))
	require.NoError(t, s.PutJob(ctx, "renders", "stale-2", newMeta(now-500), 0))
	require.NoError(t, s.PutJob(ctx, "renders", "fresh", newMeta(now-400), 0))

	// Claim all three, backdating the first two leases.
	for _, grab := range []float64{now - 300, now - 200, now} {
		id, err := s.ClaimOldest(ctx, "renders", grab)
		require.NoError(t, err)
		require.NotEmpty(t, id)
	}

	reset, err := s.ResetStale(ctx, "renders", 60*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale-1", "stale-2"}, reset)

	n, err := s.CountCreated(ctx, "renders")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestDropQueueKeepsDocuments(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.EnsureQueue(ctx, "renders"))
	require.NoError(t, s.PutJob(ctx, "renders", "job-1", newMeta(types.NowTS()), 0))

	require.NoError(t, s.DropQueue(ctx, "renders"))
	_, err := s.CountCreated(ctx, "renders")
	assert.ErrorIs(t, err, types.ErrNoIndex)

	// Dropping twice fails; re-creating the index finds the documents.
	assert.ErrorIs(t, s.DropQueue(ctx, "renders"), types.ErrNoIndex)
	require.NoError(t, s.EnsureQueue(ctx, "renders"))
	n, err := s.CountCreated(ctx, "renders")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDeleteQueueReportsRemoved(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.EnsureQueue(ctx, "renders"))
	require.NoError(t, s.PutJob(ctx, "renders", "a", newMeta(1), 0))
	require.NoError(t, s.PutJob(ctx, "renders", "b", newMeta(2), 0))

	removed, err := s.DeleteQueue(ctx, "renders")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	n, err := s.CountCreated(ctx, "renders")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	removed, err = s.DeleteQueue(ctx, "never-created")
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
}

func TestListQueues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.EnsureQueue(ctx, "b-queue"))
	require.NoError(t, s.EnsureQueue(ctx, "a-queue"))
	require.NoError(t, s.PutJob(ctx, "unindexed", "j", newMeta(1), 0))

	queues, err := s.ListQueues(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-queue", "b-queue"}, queues)
}

func TestJobTTLExpires(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.EnsureQueue(ctx, "renders"))
	require.NoError(t, s.PutJob(ctx, "renders", "short-lived", newMeta(types.NowTS()), 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)

	n, err := s.CountCreated(ctx, "renders")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	id, err := s.ClaimOldest(ctx, "renders", types.NowTS())
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestMapIndexErr(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		noIndex bool
	}{
		{name: "nil", err: nil, noIndex: false},
		{name: "modern wording", err: errors.New("no such index"), noIndex: true},
		{name: "legacy wording", err: errors.New("Unknown Index name"), noIndex: true},
		{name: "mixed case", err: errors.New("No Such Index renders"), noIndex: true},
		{name: "unrelated", err: errors.New("connection refused"), noIndex: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapIndexErr(tt.err)
			if tt.noIndex {
				assert.ErrorIs(t, got, types.ErrNoIndex)
			} else {
				assert.Equal(t, tt.err, got)
			}
		})
	}
}

func TestIsIndexExists(t *testing.T) {
	assert.True(t, isIndexExists(errors.New("Index already exists")))
	assert.False(t, isIndexExists(errors.New("something else")))
	assert.False(t, isIndexExists(nil))
}
