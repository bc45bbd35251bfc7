package e2e

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuer-ai/zaku-go/pkg/client"
	"github.com/vuer-ai/zaku-go/pkg/zdata"
	"github.com/vuer-ai/zaku-go/test/framework"
)

// A one-shot subscriber returns the first message published after it
// attaches; later publishes are discarded.
func TestSubscribeOneDeliversFirstMessage(t *testing.T) {
	b := framework.StartBroker(t)
	q := framework.NewQueue(t, b, "e2e-topics")
	ctx := context.Background()

	got := make(chan []byte, 1)
	errCh := make(chan error, 1)
	go func() {
		body, err := q.SubscribeOne(ctx, "steps", 10*time.Second)
		errCh <- err
		got <- body
	}()

	first, err := zdata.Encode(map[string]any{"step": 0}, false)
	require.NoError(t, err)

	// The first message that reaches a live subscriber carries step 0.
	waiter := framework.DefaultWaiter()
	require.NoError(t, waiter.WaitForSubscriber(ctx, q, "steps", first))

	for i := 1; i < 5; i++ {
		_, err := q.PublishData(ctx, "steps", map[string]any{"step": i})
		require.NoError(t, err)
	}

	require.NoError(t, <-errCh)
	body := <-got
	require.NotNil(t, body)

	value, err := zdata.Decode(body)
	require.NoError(t, err)
	assert.EqualValues(t, 0, value["step"])
}

// A streaming subscriber observes messages in publish order.
func TestSubscribeStreamPreservesOrder(t *testing.T) {
	b := framework.StartBroker(t)
	q := framework.NewQueue(t, b, "e2e-stream")
	ctx := context.Background()

	errEnough := errors.New("enough")
	bodies := make(chan []byte, 8)
	errCh := make(chan error, 1)
	go func() {
		count := 0
		errCh <- q.SubscribeStream(ctx, "frames", 10*time.Second, func(body []byte) error {
			bodies <- body
			count++
			if count == 5 {
				return errEnough
			}
			return nil
		})
	}()

	first, err := zdata.Encode(map[string]any{"step": 0}, false)
	require.NoError(t, err)

	waiter := framework.DefaultWaiter()
	require.NoError(t, waiter.WaitForSubscriber(ctx, q, "frames", first))

	for i := 1; i < 5; i++ {
		_, err := q.PublishData(ctx, "frames", map[string]any{"step": i})
		require.NoError(t, err)
	}

	assert.ErrorIs(t, <-errCh, errEnough)
	close(bodies)

	i := 0
	for body := range bodies {
		value, err := zdata.Decode(body)
		require.NoError(t, err)
		assert.EqualValues(t, i, value["step"], "message %d out of order", i)
		i++
	}
	assert.Equal(t, 5, i)
}

// An RPC round trip: caller adds a tagged request, a worker responds on
// the reply topic, the caller gets the reply bytes.
func TestRpcRoundTripOverLoopback(t *testing.T) {
	b := framework.StartBroker(t)
	q := framework.NewQueue(t, b, "e2e-rpc")
	ctx := context.Background()

	responder := client.NewWorker(q, func(ctx context.Context, job *client.Job) error {
		value, err := job.Decode()
		if err != nil {
			return err
		}
		// Give the caller's subscription time to attach.
		time.Sleep(200 * time.Millisecond)
		_, err = q.Respond(ctx, value, map[string]any{"echo": value["ask"]})
		return err
	})
	responder.Interval = 20 * time.Millisecond
	require.NoError(t, responder.Start())
	defer responder.Stop()

	reply, err := q.Rpc(ctx, map[string]any{"ask": "ping"}, 10*time.Second)
	require.NoError(t, err)
	require.NotNil(t, reply, "rpc reply window closed quietly")

	value, err := zdata.Decode(reply)
	require.NoError(t, err)
	assert.Equal(t, "ping", value["echo"])
}
