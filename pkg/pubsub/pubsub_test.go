package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuer-ai/zaku-go/pkg/bus"
	"github.com/vuer-ai/zaku-go/pkg/index"
	"github.com/vuer-ai/zaku-go/pkg/payload"
	"github.com/vuer-ai/zaku-go/pkg/types"
)

const testPrefix = "Zaku-task-queues"

func newTestEngine() (*Engine, *bus.MemoryBus, *payload.MemoryStore) {
	b := bus.NewMemoryBus()
	ps := payload.NewMemoryStore()
	return New(b, ps, index.NewMemoryStore(), testPrefix, time.Minute), b, ps
}

func TestPublishSendsMessageID(t *testing.T) {
	e, b, ps := newTestEngine()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, types.TopicChannel(testPrefix, "renders", "frames"))
	require.NoError(t, err)
	defer sub.Close()

	body := []byte("a large rendered frame")
	n, err := e.Publish(ctx, "renders", "frames", body)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	wire, err := sub.Receive(ctx, time.Second)
	require.NoError(t, err)
	assert.True(t, isMessageID(wire), "wire bytes should be a message ID, got %q", wire)

	// The body is parked in the topic collection under that ID.
	stored, err := ps.Fetch(ctx, types.TopicCollection(testPrefix, "renders"), string(wire))
	require.NoError(t, err)
	assert.Equal(t, body, stored)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	e, _, _ := newTestEngine()
	n, err := e.Publish(context.Background(), "renders", "frames", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestSubscribeOneResolvesBody(t *testing.T) {
	e, _, _ := newTestEngine()
	ctx := context.Background()
	body := []byte("frame 17")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(50 * time.Millisecond)
		_, err := e.Publish(ctx, "renders", "frames", body)
		assert.NoError(t, err)
	}()

	got, err := e.SubscribeOne(ctx, "renders", "frames", 2*time.Second)
	wg.Wait()
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestSubscribeOneQuietWindow(t *testing.T) {
	e, _, _ := newTestEngine()

	start := time.Now()
	got, err := e.SubscribeOne(context.Background(), "renders", "frames", 150*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRawModePassesBodyThrough(t *testing.T) {
	b := bus.NewMemoryBus()
	e := New(b, nil, index.NewMemoryStore(), testPrefix, time.Minute)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, types.TopicChannel(testPrefix, "renders", "frames"))
	require.NoError(t, err)
	defer sub.Close()

	body := []byte("raw bytes, no store")
	_, err = e.Publish(ctx, "renders", "frames", body)
	require.NoError(t, err)

	wire, err := sub.Receive(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, body, wire)
}

func TestUUIDShapedRawPayloadPassesThrough(t *testing.T) {
	e, b, _ := newTestEngine()
	ctx := context.Background()

	// Raw bytes that happen to look like a message ID but were never
	// stored must come back verbatim.
	fake := []byte("01234567-89ab-cdef-0123-456789abcdef")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(50 * time.Millisecond)
		_, err := b.Publish(ctx, types.TopicChannel(testPrefix, "renders", "frames"), fake)
		assert.NoError(t, err)
	}()

	got, err := e.SubscribeOne(ctx, "renders", "frames", 2*time.Second)
	wg.Wait()
	require.NoError(t, err)
	assert.Equal(t, fake, got)
}

func TestSubscribeStreamDeliversUntilDeadline(t *testing.T) {
	e, _, _ := newTestEngine()
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 3; i++ {
			time.Sleep(30 * time.Millisecond)
			_, err := e.Publish(ctx, "renders", "frames", []byte{byte('a' + i)})
			assert.NoError(t, err)
		}
	}()

	var got [][]byte
	err := e.SubscribeStream(ctx, "renders", "frames", 400*time.Millisecond, func(body []byte) error {
		got = append(got, body)
		return nil
	})
	wg.Wait()
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{'a'}, {'b'}, {'c'}}, got)
}

func TestSubscribeStreamStopsOnCallbackError(t *testing.T) {
	e, _, _ := newTestEngine()
	ctx := context.Background()

	go func() {
		time.Sleep(30 * time.Millisecond)
		_, _ = e.Publish(ctx, "renders", "frames", []byte("x"))
	}()

	wantErr := assert.AnError
	err := e.SubscribeStream(ctx, "renders", "frames", 2*time.Second, func([]byte) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestValidation(t *testing.T) {
	e, _, _ := newTestEngine()
	ctx := context.Background()

	_, err := e.Publish(ctx, "", "frames", []byte("x"))
	assert.True(t, types.IsInputError(err))

	_, err = e.Publish(ctx, "renders", "", []byte("x"))
	assert.True(t, types.IsInputError(err))

	_, err = e.SubscribeOne(ctx, "renders", "", time.Second)
	assert.True(t, types.IsInputError(err))
}

func TestIsMessageID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "canonical lowercase", in: "01234567-89ab-cdef-0123-456789abcdef", want: true},
		{name: "uppercase accepted", in: "01234567-89AB-CDEF-0123-456789ABCDEF", want: true},
		{name: "too short", in: "01234567-89ab-cdef-0123", want: false},
		{name: "dash misplaced", in: "0123456789-ab-cdef-0123-456789abcdef", want: false},
		{name: "non-hex content", in: "0123456z-89ab-cdef-0123-456789abcdef", want: false},
		{name: "empty", in: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isMessageID([]byte(tt.in)))
		})
	}
}
