package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuer-ai/zaku-go/pkg/client"
	"github.com/vuer-ai/zaku-go/test/framework"
)

// One job travels add → take → done over loopback HTTP.
func TestLeaseLifecycle(t *testing.T) {
	b := framework.StartBroker(t)
	q := framework.NewQueue(t, b, "e2e-lease")
	ctx := context.Background()

	id, err := q.AddTask(ctx, client.Task{ID: "j1", Payload: []byte("hello")})
	require.NoError(t, err)
	assert.Equal(t, "j1", id)

	job, err := q.Take(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "j1", job.ID)
	assert.Equal(t, []byte("hello"), job.Payload)

	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "leased job must not be claimable")

	require.NoError(t, q.MarkDone(ctx, job.ID))

	again, err := q.Take(ctx)
	require.NoError(t, err)
	assert.Nil(t, again, "queue should be empty after done")
}

// A reset job comes back with the same ID and payload.
func TestResetMakesJobRetakeable(t *testing.T) {
	b := framework.StartBroker(t)
	q := framework.NewQueue(t, b, "e2e-reset")
	ctx := context.Background()

	_, err := q.AddTask(ctx, client.Task{ID: "j", Payload: []byte("x")})
	require.NoError(t, err)

	job, err := q.Take(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)

	require.NoError(t, q.MarkReset(ctx, job.ID))

	retaken, err := q.Take(ctx)
	require.NoError(t, err)
	require.NotNil(t, retaken)
	assert.Equal(t, "j", retaken.ID)
	assert.Equal(t, []byte("x"), retaken.Payload)
}

// A lease older than the unstale ttl is returned to the queue; a
// younger one is left alone.
func TestUnstaleReclaimsExpiredLease(t *testing.T) {
	b := framework.StartBroker(t)
	q := framework.NewQueue(t, b, "e2e-unstale")
	ctx := context.Background()

	_, err := q.AddTask(ctx, client.Task{ID: "j", Payload: []byte("x")})
	require.NoError(t, err)

	job, err := q.Take(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)

	blocked, err := q.Take(ctx)
	require.NoError(t, err)
	assert.Nil(t, blocked, "leased job must not be retakeable")

	// Lease is fresh, a generous ttl reclaims nothing.
	require.NoError(t, q.Unstale(ctx, time.Hour))
	still, err := q.Take(ctx)
	require.NoError(t, err)
	assert.Nil(t, still)

	time.Sleep(300 * time.Millisecond)
	require.NoError(t, q.Unstale(ctx, 100*time.Millisecond))

	retaken, err := q.Take(ctx)
	require.NoError(t, err)
	require.NotNil(t, retaken)
	assert.Equal(t, "j", retaken.ID)
	assert.Equal(t, []byte("x"), retaken.Payload)
}
