package client

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vuer-ai/zaku-go/pkg/types"
)

// requestIDKey carries the reply-topic name inside an RPC job payload
const requestIDKey = "_request_id"

// RequestID extracts the reply topic planted by Rpc, if any
func RequestID(value map[string]any) (string, bool) {
	id, ok := value[requestIDKey].(string)
	return id, ok && id != ""
}

// Rpc enqueues value as a job and waits up to timeout for one reply on
// a private reply topic. It returns (nil, nil) when no handler
// answered inside the window; the job itself stays queued and should
// be idempotent or time-bounded. Replies are at-most-once: one
// published before this caller's subscription lands, or after it gave
// up, is gone.
func (q *TaskQ) Rpc(ctx context.Context, value map[string]any, timeout time.Duration) ([]byte, error) {
	requestID, tagged := tagRequest(value)
	if _, err := q.AddData(ctx, tagged); err != nil {
		return nil, err
	}
	return q.SubscribeOne(ctx, requestID, timeout)
}

// RpcStream enqueues value and hands fn every message the handler
// publishes on the reply topic until timeout elapses. A handler that
// never answers ends the window quietly.
func (q *TaskQ) RpcStream(ctx context.Context, value map[string]any, timeout time.Duration, fn func([]byte) error) error {
	requestID, tagged := tagRequest(value)
	if _, err := q.AddData(ctx, tagged); err != nil {
		return err
	}
	return q.SubscribeStream(ctx, requestID, timeout, fn)
}

// Respond publishes reply on the job's reply topic and reports how
// many subscribers received it; zero means the caller stopped
// waiting. Values without a reply topic are rejected.
func (q *TaskQ) Respond(ctx context.Context, value map[string]any, reply map[string]any) (int64, error) {
	requestID, ok := RequestID(value)
	if !ok {
		return 0, types.BadInput("value carries no %s key; not an rpc job", requestIDKey)
	}
	return q.PublishData(ctx, requestID, reply)
}

// tagRequest copies value with a fresh reply-topic name under
// requestIDKey.
func tagRequest(value map[string]any) (string, map[string]any) {
	requestID := uuid.NewString()
	tagged := make(map[string]any, len(value)+1)
	for k, v := range value {
		tagged[k] = v
	}
	tagged[requestIDKey] = requestID
	return requestID, tagged
}
