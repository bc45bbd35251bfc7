package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuer-ai/zaku-go/pkg/client"
	"github.com/vuer-ai/zaku-go/pkg/types"
	"github.com/vuer-ai/zaku-go/pkg/watcher"
)

// An expired job's payload document is deleted once the watcher sees
// the key expiry event and flushes a GC batch.
func TestExpiredPayloadIsCollected(t *testing.T) {
	b := startRealBroker(t)
	ctx := context.Background()

	if err := b.mi.EnableExpiryEvents(ctx); err != nil {
		t.Skipf("cannot enable keyspace notifications: %v", err)
	}

	w := watcher.New(b.bus, b.ps, b.cfg.Prefix, b.cfg.Redis.DB)
	require.NoError(t, w.Start())
	defer w.Stop()

	q := b.queue(t, "gc")

	id, err := q.AddTask(ctx, client.Task{Payload: []byte("ephemeral"), TTL: time.Second})
	require.NoError(t, err)

	coll := types.PayloadCollection(b.cfg.Prefix, q.Queue())
	_, err = b.ps.Fetch(ctx, coll, id)
	require.NoError(t, err, "payload must be stored while the job lives")

	assert.Eventually(t, func() bool {
		_, err := b.ps.Fetch(ctx, coll, id)
		return errors.Is(err, types.ErrNotFound)
	}, 20*time.Second, 500*time.Millisecond, "payload document survived expiry")
}
