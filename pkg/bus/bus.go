package bus

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout reports that no message arrived within the receive
	// window. Subscribe loops treat it as "poll again".
	ErrTimeout = errors.New("bus: receive timed out")
	// ErrClosed reports a receive on a closed subscription.
	ErrClosed = errors.New("bus: subscription closed")
)

// Bus is the pub/sub plane: fire-and-forget fan-out to whoever is
// listening right now. No replay, no acknowledgement.
//
// Implemented by RedisBus (Redis pub/sub) and MemoryBus (embedded mode
// and tests).
type Bus interface {
	// Publish sends payload on channel and reports how many
	// subscribers received it.
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
	// Subscribe opens a subscription on a single channel.
	Subscribe(ctx context.Context, channel string) (Subscription, error)
	// PSubscribe opens a pattern subscription, as used for keyspace
	// notifications.
	PSubscribe(ctx context.Context, pattern string) (Subscription, error)

	Ping(ctx context.Context) error
}

// Subscription is a stream of raw message payloads from one channel or
// pattern.
type Subscription interface {
	// Receive blocks up to timeout for the next message. Returns
	// ErrTimeout when the window elapses quietly; honors ctx
	// cancellation between and during waits.
	Receive(ctx context.Context, timeout time.Duration) ([]byte, error)
	Close() error
}
