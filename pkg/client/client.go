package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vuer-ai/zaku-go/pkg/security"
	"github.com/vuer-ai/zaku-go/pkg/types"
	"github.com/vuer-ai/zaku-go/pkg/wire"
	"github.com/vuer-ai/zaku-go/pkg/zdata"
)

// Environment variables the reference deployment configures clients
// with.
const (
	EnvURI       = "ZAKU_URI"
	EnvQueueName = "ZAKU_QUEUE_NAME"
)

// DefaultURI is where a broker started with default flags listens.
const DefaultURI = "http://localhost:9000"

// ErrNoQueue reports an operation against a queue the broker has never
// seen. Only Count can observe it; every other operation treats an
// absent queue as empty.
var ErrNoQueue = errors.New("queue does not exist")

// TaskQ is a handle on one named queue. It is safe for concurrent use;
// WithQueue derives handles for other queues sharing the same
// transport.
type TaskQ struct {
	uri   string
	queue string
	ttl   time.Duration
	hc    *http.Client
}

// New returns a handle on queue at the broker uri. The queue is not
// created until Init.
func New(uri, queue string) (*TaskQ, error) {
	if uri == "" {
		uri = DefaultURI
	}
	if queue == "" {
		return nil, types.BadInput("queue name is required")
	}
	return &TaskQ{
		uri:   strings.TrimRight(uri, "/"),
		queue: queue,
		hc:    &http.Client{},
	}, nil
}

// NewWithTLS is New against an https broker whose certificate chain is
// rooted at caFile. An empty caFile trusts the system roots.
func NewWithTLS(uri, queue, caFile string) (*TaskQ, error) {
	q, err := New(uri, queue)
	if err != nil {
		return nil, err
	}
	tlsCfg, err := security.ClientTLSConfig(caFile)
	if err != nil {
		return nil, err
	}
	q.hc = &http.Client{Transport: &http.Transport{TLSClientConfig: tlsCfg}}
	return q, nil
}

// FromEnv builds a handle from ZAKU_URI and ZAKU_QUEUE_NAME. With no
// queue name in the environment it mints a random jq-{uuid} name, the
// same convention the reference clients use to avoid collisions.
func FromEnv() (*TaskQ, error) {
	uri := os.Getenv(EnvURI)
	queue := os.Getenv(EnvQueueName)
	if queue == "" {
		queue = "jq-" + uuid.NewString()
	}
	return New(uri, queue)
}

// Queue returns the queue name this handle targets
func (q *TaskQ) Queue() string {
	return q.queue
}

// URI returns the broker endpoint this handle talks to
func (q *TaskQ) URI() string {
	return q.uri
}

// WithQueue derives a handle on another queue of the same broker,
// sharing the HTTP transport.
func (q *TaskQ) WithQueue(queue string) *TaskQ {
	return &TaskQ{uri: q.uri, queue: queue, ttl: q.ttl, hc: q.hc}
}

// WithJobTTL derives a handle whose Add attaches ttl to every job it
// enqueues, making the jobs time-bounded. Zero (the default) means
// jobs never expire on their own.
func (q *TaskQ) WithJobTTL(ttl time.Duration) *TaskQ {
	return &TaskQ{uri: q.uri, queue: q.queue, ttl: ttl, hc: q.hc}
}

// Init creates the queue on the broker. Creating an existing queue
// succeeds.
func (q *TaskQ) Init(ctx context.Context) error {
	_, err := q.callJSON(ctx, http.MethodPut, "/queues", wire.CreateQueue{Name: q.queue})
	return err
}

// Drop removes the queue's index from the broker. Jobs already claimed
// stay claimed; nothing new can be taken.
func (q *TaskQ) Drop(ctx context.Context) error {
	_, err := q.callJSON(ctx, http.MethodDelete, "/queues", wire.DropQueue{Name: q.queue})
	return err
}

// Task describes one job to enqueue
type Task struct {
	// ID is optional; the broker mints a UUID when it is empty
	ID string
	// Payload is opaque to the broker, by convention a msgpack map
	Payload []byte
	// TTL bounds the job's lifetime. Zero falls back to the handle's
	// WithJobTTL setting, which itself defaults to no expiry.
	TTL time.Duration
}

// AddTask enqueues one job and returns its ID
func (q *TaskQ) AddTask(ctx context.Context, t Task) (string, error) {
	ttl := t.TTL
	if ttl == 0 {
		ttl = q.ttl
	}
	body, err := q.callMsgpack(ctx, http.MethodPut, "/tasks", wire.AddJob{
		Queue:   q.queue,
		JobID:   t.ID,
		Payload: t.Payload,
		TTL:     ttl.Seconds(),
	})
	if err != nil {
		return "", err
	}
	var reply wire.AddJobReply
	if err := wire.Unmarshal(body, &reply); err != nil {
		return "", fmt.Errorf("malformed add reply: %w", err)
	}
	return reply.JobID, nil
}

// Add enqueues raw payload bytes under a broker-minted ID
func (q *TaskQ) Add(ctx context.Context, payload []byte) (string, error) {
	return q.AddTask(ctx, Task{Payload: payload})
}

// AddData enqueues a map payload encoded through pkg/zdata. When any
// top-level value is a *zdata.Blob the payload is marked greedy so
// consumers get their blobs back typed.
func (q *TaskQ) AddData(ctx context.Context, value map[string]any) (string, error) {
	payload, err := zdata.Encode(value, hasBlobs(value))
	if err != nil {
		return "", err
	}
	return q.Add(ctx, payload)
}

// Job is one claimed job
type Job struct {
	ID      string
	Payload []byte
}

// Decode interprets the payload as a zdata map
func (j *Job) Decode() (map[string]any, error) {
	if len(j.Payload) == 0 {
		return map[string]any{}, nil
	}
	return zdata.Decode(j.Payload)
}

// Take claims the oldest available job. It returns (nil, nil) when the
// queue has nothing to give; an absent queue counts as empty.
func (q *TaskQ) Take(ctx context.Context) (*Job, error) {
	body, err := q.callJSON(ctx, http.MethodPost, "/tasks", wire.QueueRequest{Queue: q.queue})
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	var reply wire.TakeReply
	if err := wire.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("malformed take reply: %w", err)
	}
	return &Job{ID: reply.JobID, Payload: reply.Payload}, nil
}

// ReleaseFunc settles a claimed job exactly once: release(nil) marks
// it done, release(err) resets it so another worker can take it.
// Further calls are no-ops.
type ReleaseFunc func(error) error

// Pop claims a job together with its releaser. A (nil, nil, nil)
// return means the queue is empty. An unreleased job stays leased
// until an unstale sweep reclaims it.
func (q *TaskQ) Pop(ctx context.Context) (*Job, ReleaseFunc, error) {
	job, err := q.Take(ctx)
	if err != nil || job == nil {
		return nil, nil, err
	}
	var once sync.Once
	release := func(werr error) error {
		var err error
		once.Do(func() {
			if werr != nil {
				err = q.MarkReset(ctx, job.ID)
			} else {
				err = q.MarkDone(ctx, job.ID)
			}
		})
		return err
	}
	return job, release, nil
}

// PopFunc claims one job and runs fn on it, marking the job done when
// fn returns nil and resetting it when fn fails or panics. Returns
// false when the queue had nothing to give.
func (q *TaskQ) PopFunc(ctx context.Context, fn func(context.Context, *Job) error) (bool, error) {
	job, release, err := q.Pop(ctx)
	if err != nil || job == nil {
		return false, err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = release(fmt.Errorf("handler panicked: %v", r))
			panic(r)
		}
	}()
	if err := fn(ctx, job); err != nil {
		_ = release(err)
		return true, err
	}
	return true, release(nil)
}

// MarkDone removes a finished job
func (q *TaskQ) MarkDone(ctx context.Context, jobID string) error {
	_, err := q.callJSON(ctx, http.MethodDelete, "/tasks", wire.JobRef{Queue: q.queue, JobID: jobID})
	return err
}

// MarkReset returns a claimed job to the queue
func (q *TaskQ) MarkReset(ctx context.Context, jobID string) error {
	_, err := q.callJSON(ctx, http.MethodPost, "/tasks/reset", wire.JobRef{Queue: q.queue, JobID: jobID})
	return err
}

// Count reports how many jobs are waiting to be taken. A queue the
// broker has never seen reports ErrNoQueue, which is how it differs
// from a queue that is merely empty.
func (q *TaskQ) Count(ctx context.Context) (int64, error) {
	body, err := q.callJSON(ctx, http.MethodGet, "/tasks/counts", wire.QueueRequest{Queue: q.queue})
	if err != nil {
		return 0, err
	}
	if len(body) == 0 {
		return 0, ErrNoQueue
	}
	var reply wire.CountReply
	if err := wire.Unmarshal(body, &reply); err != nil {
		return 0, fmt.Errorf("malformed count reply: %w", err)
	}
	return reply.Counts, nil
}

// Clear removes every job in the queue
func (q *TaskQ) Clear(ctx context.Context) error {
	_, err := q.callJSON(ctx, http.MethodDelete, "/tasks", wire.JobRef{Queue: q.queue, JobID: "*"})
	return err
}

// Unstale returns every job claimed longer than ttl ago to the queue.
// Zero sweeps every outstanding claim.
func (q *TaskQ) Unstale(ctx context.Context, ttl time.Duration) error {
	_, err := q.callJSON(ctx, http.MethodPut, "/tasks/unstale", wire.UnstaleRequest{Queue: q.queue, TTL: ttl.Seconds()})
	return err
}

// Publish sends payload to everyone subscribed to the topic right now
// and reports how many subscribers received it. Zero receivers means
// the message reached nobody and is gone.
func (q *TaskQ) Publish(ctx context.Context, topic string, payload []byte) (int64, error) {
	body, err := q.callMsgpack(ctx, http.MethodPut, "/publish", wire.Publish{
		Queue:   q.queue,
		TopicID: topic,
		Payload: payload,
	})
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed publish reply %q: %w", body, err)
	}
	return n, nil
}

// PublishData publishes a map payload encoded through pkg/zdata
func (q *TaskQ) PublishData(ctx context.Context, topic string, value map[string]any) (int64, error) {
	payload, err := zdata.Encode(value, hasBlobs(value))
	if err != nil {
		return 0, err
	}
	return q.Publish(ctx, topic, payload)
}

// SubscribeOne waits up to timeout for the first message on the topic.
// It returns (nil, nil) when the window closes quietly.
func (q *TaskQ) SubscribeOne(ctx context.Context, topic string, timeout time.Duration) ([]byte, error) {
	body, err := q.callJSON(ctx, http.MethodPost, "/subscribe_one", wire.Subscribe{
		Queue:   q.queue,
		TopicID: topic,
		Timeout: timeout.Seconds(),
	})
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	return body, nil
}

// SubscribeStream hands fn every message published on the topic until
// timeout elapses, the context ends, or fn returns an error. A quiet
// window is a clean return.
func (q *TaskQ) SubscribeStream(ctx context.Context, topic string, timeout time.Duration, fn func([]byte) error) error {
	resp, err := q.roundTrip(ctx, http.MethodPost, "/subscribe_stream", "application/json", mustJSON(wire.Subscribe{
		Queue:   q.queue,
		TopicID: topic,
		Timeout: timeout.Seconds(),
	}))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return statusErr(resp, body)
	}

	// Messages arrive as back-to-back msgpack bin frames; the decoder
	// splits them without any outer framing.
	dec := wire.NewDecoder(resp.Body)
	for {
		var msg []byte
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("stream broke mid-frame: %w", err)
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
}

// hasBlobs reports whether any top-level value is a typed blob
func hasBlobs(value map[string]any) bool {
	for _, v := range value {
		if _, ok := v.(*zdata.Blob); ok {
			return true
		}
	}
	return false
}

// roundTrip issues one request; the caller owns the response body
func (q *TaskQ) roundTrip(ctx context.Context, method, path, contentType string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, q.uri+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := q.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("broker unreachable: %w", err)
	}
	return resp, nil
}

// call issues one request and returns the fully read body
func (q *TaskQ) call(ctx context.Context, method, path, contentType string, body []byte) ([]byte, error) {
	resp, err := q.roundTrip(ctx, method, path, contentType, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	reply, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read broker reply: %w", err)
	}
	if err := statusErr(resp, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (q *TaskQ) callJSON(ctx context.Context, method, path string, v any) ([]byte, error) {
	return q.call(ctx, method, path, "application/json", mustJSON(v))
}

func (q *TaskQ) callMsgpack(ctx context.Context, method, path string, v any) ([]byte, error) {
	body, err := wire.Marshal(v)
	if err != nil {
		return nil, err
	}
	return q.call(ctx, method, path, "application/msgpack", body)
}

// statusErr maps the broker's status contract onto errors: 400 comes
// back as a types.InputError, everything else non-200 as a plain error
// carrying the broker's reason.
func statusErr(resp *http.Response, body []byte) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest:
		return types.BadInput("%s", strings.TrimSpace(string(body)))
	case http.StatusRequestEntityTooLarge:
		return fmt.Errorf("request body exceeds the broker's size cap")
	default:
		return fmt.Errorf("broker answered %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
}

// mustJSON marshals the fixed wire shapes, which cannot fail
func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
