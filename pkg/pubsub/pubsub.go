package pubsub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vuer-ai/zaku-go/pkg/bus"
	"github.com/vuer-ai/zaku-go/pkg/log"
	"github.com/vuer-ai/zaku-go/pkg/metrics"
	"github.com/vuer-ai/zaku-go/pkg/payload"
	"github.com/vuer-ai/zaku-go/pkg/types"
)

// pollSlice bounds each blocking receive so subscriber loops observe
// deadlines and cancellation promptly.
const pollSlice = 100 * time.Millisecond

// MarkerStore plants the TTL markers that bound topic message life.
// Satisfied by the metadata index stores.
type MarkerStore interface {
	SetMarker(ctx context.Context, collection, docID string, ttl time.Duration) error
}

// Engine is the topic plane: publish fans a message out to current
// subscribers, with payload bytes parked in the payload store and only
// a message ID on the wire.
type Engine struct {
	bus      bus.Bus
	ps       payload.Store // nil sends payloads raw on the channel
	markers  MarkerStore
	prefix   string
	topicTTL time.Duration
}

func New(b bus.Bus, ps payload.Store, markers MarkerStore, prefix string, topicTTL time.Duration) *Engine {
	return &Engine{bus: b, ps: ps, markers: markers, prefix: prefix, topicTTL: topicTTL}
}

// Publish stores the message body under a fresh message ID, plants its
// TTL marker and publishes the ID on the topic channel. When the
// payload store is off or failing, the body itself goes on the wire.
// Returns the number of subscribers that received the message.
func (e *Engine) Publish(ctx context.Context, queue, topicID string, body []byte) (int64, error) {
	if err := validateTopic(queue, topicID); err != nil {
		return 0, err
	}
	wire := body
	if e.ps != nil {
		msgID := uuid.NewString()
		coll := types.TopicCollection(e.prefix, queue)
		if err := e.ps.Put(ctx, coll, msgID, body); err != nil {
			log.Warn(fmt.Sprintf("Payload store rejected topic message for %s: %v, sending raw", queue, err))
		} else {
			if err := e.markers.SetMarker(ctx, coll, msgID, e.topicTTL); err != nil {
				log.Warn(fmt.Sprintf("Failed to set TTL marker for topic message %s: %v", msgID, err))
			}
			wire = []byte(msgID)
		}
	}
	n, err := e.bus.Publish(ctx, types.TopicChannel(e.prefix, queue, topicID), wire)
	if err != nil {
		return 0, err
	}
	metrics.MessagesPublished.WithLabelValues(queue).Inc()
	return n, nil
}

// SubscribeOne waits up to timeout for a single message on the topic
// and returns its body. Returns (nil, nil) when the window closes
// quietly.
func (e *Engine) SubscribeOne(ctx context.Context, queue, topicID string, timeout time.Duration) ([]byte, error) {
	if err := validateTopic(queue, topicID); err != nil {
		return nil, err
	}
	sub, err := e.bus.Subscribe(ctx, types.TopicChannel(e.prefix, queue, topicID))
	if err != nil {
		return nil, err
	}
	defer sub.Close()

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		msg, err := sub.Receive(ctx, minDuration(pollSlice, remaining))
		if errors.Is(err, bus.ErrTimeout) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return e.resolve(ctx, queue, msg), nil
	}
}

// SubscribeStream delivers every message on the topic to fn until the
// timeout elapses or ctx is canceled. An error from fn stops the
// stream; a quiet deadline is a normal return.
func (e *Engine) SubscribeStream(ctx context.Context, queue, topicID string, timeout time.Duration, fn func(body []byte) error) error {
	if err := validateTopic(queue, topicID); err != nil {
		return err
	}
	sub, err := e.bus.Subscribe(ctx, types.TopicChannel(e.prefix, queue, topicID))
	if err != nil {
		return err
	}
	defer sub.Close()

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		msg, err := sub.Receive(ctx, minDuration(pollSlice, remaining))
		if errors.Is(err, bus.ErrTimeout) {
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(e.resolve(ctx, queue, msg)); err != nil {
			return err
		}
	}
}

// resolve swaps a message ID for its stored body. Bytes that are not
// ID-shaped, or whose document is already gone, pass through unchanged.
func (e *Engine) resolve(ctx context.Context, queue string, msg []byte) []byte {
	if e.ps == nil || !isMessageID(msg) {
		return msg
	}
	body, err := e.ps.Fetch(ctx, types.TopicCollection(e.prefix, queue), string(msg))
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			log.Warn(fmt.Sprintf("Failed to resolve topic message %s: %v", msg, err))
		}
		return msg
	}
	return body
}

// isMessageID reports whether b is shaped like a canonical UUID:
// 36 bytes, hex in 8-4-4-4-12 groups.
func isMessageID(b []byte) bool {
	if len(b) != 36 {
		return false
	}
	for i, c := range b {
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return false
			}
		default:
			if !isHexDigit(c) {
				return false
			}
		}
	}
	return true
}

func isHexDigit(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func validateTopic(queue, topicID string) error {
	if queue == "" {
		return types.BadInput("queue name is required")
	}
	if topicID == "" {
		return types.BadInput("topic id is required")
	}
	return nil
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
