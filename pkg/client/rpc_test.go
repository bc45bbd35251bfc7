package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRpcRoundTrip(t *testing.T) {
	q := newTestQueue(t, "renders")
	ctx := context.Background()

	// The handler waits a beat before answering so the caller's
	// subscription is in place; replies are at-most-once.
	w := NewWorker(q, func(ctx context.Context, job *Job) error {
		value, err := job.Decode()
		if err != nil {
			return err
		}
		time.Sleep(300 * time.Millisecond)
		_, err = q.Respond(ctx, value, map[string]any{"echo": value["op"]})
		return err
	})
	w.Interval = 20 * time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	reply, err := q.Rpc(ctx, map[string]any{"op": "render"}, 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, reply, "handler should have answered inside the window")

	decoded, err := (&Job{Payload: reply}).Decode()
	require.NoError(t, err)
	assert.Equal(t, "render", decoded["echo"])
}

func TestRpcStreamCollectsReplies(t *testing.T) {
	q := newTestQueue(t, "renders")
	ctx := context.Background()

	// The handler answers three times on the reply topic.
	w := NewWorker(q, func(ctx context.Context, job *Job) error {
		value, err := job.Decode()
		if err != nil {
			return err
		}
		time.Sleep(300 * time.Millisecond)
		for i := 0; i < 3; i++ {
			if _, err := q.Respond(ctx, value, map[string]any{"step": int64(i)}); err != nil {
				return err
			}
		}
		return nil
	})
	w.Interval = 20 * time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	var steps []any
	err := q.RpcStream(ctx, map[string]any{"op": "render"}, time.Second, func(body []byte) error {
		value, err := (&Job{Payload: body}).Decode()
		if err != nil {
			return err
		}
		steps = append(steps, value["step"])
		return nil
	})
	require.NoError(t, err)
	require.Len(t, steps, 3)
	for i, step := range steps {
		assert.EqualValues(t, i, step)
	}
}

func TestRpcQuietWindow(t *testing.T) {
	q := newTestQueue(t, "renders")

	reply, err := q.Rpc(context.Background(), map[string]any{"op": "noop"}, 300*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, reply, "nobody answered")
}

func TestRespondRejectsPlainJobs(t *testing.T) {
	q := newTestQueue(t, "renders")

	_, err := q.Respond(context.Background(), map[string]any{"op": "x"}, map[string]any{})
	assert.Error(t, err)
}

func TestRequestID(t *testing.T) {
	id, ok := RequestID(map[string]any{requestIDKey: "topic-1"})
	assert.True(t, ok)
	assert.Equal(t, "topic-1", id)

	_, ok = RequestID(map[string]any{})
	assert.False(t, ok)
}
