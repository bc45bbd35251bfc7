package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBus implements Bus on Redis pub/sub, sharing the metadata
// index's client. The index store owns the client's lifecycle.
// bufferLen bounds each subscription's in-process message buffer so a
// slow consumer cannot grow memory without limit.
type RedisBus struct {
	rdb       *redis.Client
	bufferLen int
}

func NewRedisBus(rdb *redis.Client, bufferLen int) *RedisBus {
	if bufferLen <= 0 {
		bufferLen = 100
	}
	return &RedisBus{rdb: rdb, bufferLen: bufferLen}
}

func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) (int64, error) {
	n, err := b.rdb.Publish(ctx, channel, payload).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to publish on %s: %w", channel, err)
	}
	return n, nil
}

func (b *RedisBus) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	pubsub := b.rdb.Subscribe(ctx, channel)
	// Wait for the subscription ack so no message published after this
	// call returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	return newRedisSub(pubsub, b.bufferLen), nil
}

func (b *RedisBus) PSubscribe(ctx context.Context, pattern string) (Subscription, error) {
	pubsub := b.rdb.PSubscribe(ctx, pattern)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to psubscribe to %s: %w", pattern, err)
	}
	return newRedisSub(pubsub, b.bufferLen), nil
}

func (b *RedisBus) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

type redisSub struct {
	pubsub *redis.PubSub
	ch     <-chan *redis.Message
}

func newRedisSub(pubsub *redis.PubSub, bufferLen int) *redisSub {
	return &redisSub{
		pubsub: pubsub,
		ch:     pubsub.Channel(redis.WithChannelSize(bufferLen)),
	}
}

func (s *redisSub) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg, ok := <-s.ch:
		if !ok {
			return nil, ErrClosed
		}
		return []byte(msg.Payload), nil
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *redisSub) Close() error {
	return s.pubsub.Close()
}
