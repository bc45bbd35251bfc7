/*
Package client is the Go SDK for the Zaku broker: a thin HTTP wrapper
around the task-queue and topic endpoints, plus the small coordination
patterns built on them (pop, gather, rpc, worker pool).

The broker never pushes; everything here is the client pulling. A
TaskQ is a handle on one named queue, safe for concurrent use, and
cheap to derive for other queues on the same broker.

# Architecture

	┌──────────────────── APPLICATION CODE ───────────────────────┐
	│                                                              │
	│  q, err := client.New("http://broker:9000", "renders")      │
	│  id, err := q.Add(ctx, payload)                              │
	│  job, release, err := q.Pop(ctx)                             │
	│                                                              │
	└──────────────────┬───────────────────────────────────────────┘
	                   │
	┌──────────────────▼──── pkg/client ───────────────────────────┐
	│                                                               │
	│  TaskQ        one queue: Add, Take, Pop, MarkDone,            │
	│               MarkReset, Count, Clear, Unstale, Publish,      │
	│               SubscribeOne, SubscribeStream                   │
	│  Gather       batch fan-out with token acknowledgements       │
	│  Rpc/Respond  request/reply over a private topic              │
	│  Worker       goroutine pool popping a queue into a handler   │
	│                                                               │
	└──────────────────┬────────────────────────────────────────────┘
	                   │ HTTP (msgpack bodies for payload traffic,
	                   │       JSON for control traffic)
	                   ▼
	             Zaku broker (pkg/api)

# Configuration

The reference deployment configures clients through the environment:

	export ZAKU_URI=http://localhost:9000
	export ZAKU_QUEUE_NAME=jq-debug-1

	q, err := client.FromEnv()

FromEnv falls back to http://localhost:9000 and a random jq-{uuid}
queue name, so a bare client always lands somewhere harmless.

# The Pop Contract

Workers claim jobs with Pop and settle them exactly once: release(nil)
marks the job done, release(err) resets it so another worker can take
it. PopFunc wraps the whole exchange around a handler function, and
resets the job if the handler panics.

	job, release, err := q.Pop(ctx)
	if err != nil {
	    return err
	}
	if job == nil {
	    return nil // queue is empty
	}
	err = work(job)
	return release(err)

A worker that crashes without settling leaves the job leased; the
queue's unstale sweep returns it to claimable.

# Gather

Gather fans a batch of jobs out through the work queue and counts
acknowledgement tokens coming back on a private reply queue:

	g, err := q.Gather(ctx, jobs)
	...
	if err := g.Wait(ctx); err != nil { ... }

Workers acknowledge with AckGather, which reads the reply-queue name
and token planted in the job payload:

	value, _ := job.Decode()
	// ... do the work ...
	q.AckGather(ctx, value)

# RPC

Rpc enqueues a job carrying a fresh reply-topic name and waits for one
message on that topic. The handler answers with Respond. Replies ride
the at-most-once topic plane: a reply published after the caller gave
up reaches nobody, and Respond reports that as a zero receiver count.

	// caller
	reply, err := q.Rpc(ctx, map[string]any{"op": "render"}, 5*time.Second)

	// handler
	n, err := q.Respond(ctx, value, map[string]any{"status": "done"})

# Payloads

Payload bytes are opaque to the broker. Add sends raw bytes; AddData
encodes a map through pkg/zdata so typed blobs (images, arrays,
tensors) survive the round trip; Job.Decode reverses it.

# Integration Points

This package integrates with:

  - pkg/api: consumes every queue and topic endpoint
  - pkg/wire: msgpack framing shared with the broker
  - pkg/zdata: typed payload envelope
  - pkg/security: CA-pinned TLS via NewWithTLS
  - pkg/types: input-rejection errors surface as types.InputError

# See Also

  - pkg/engine for the broker-side lifecycle semantics
  - cmd/zaku queue subcommands for the same operations from a shell
*/
package client
