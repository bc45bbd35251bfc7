/*
Package api implements the broker's HTTP surface: framing, validation,
dispatch to the engines, and the status-code contract clients rely on.

Handlers are deliberately thin. Each endpoint decodes one request
shape, calls one engine method, and encodes one response; every
decision about queues and topics lives behind pkg/engine and
pkg/pubsub. What this package owns is the wire contract: which bodies
are JSON and which are msgpack, what an empty 200 means, and how
engine errors map onto HTTP status codes.

# Architecture

	┌────────────────────── API SERVER ──────────────────────────┐
	│                                                             │
	│  chi router                                                 │
	│    Recoverer → instrument → CORS → MaxBytes                 │
	│                                                             │
	│  PUT    /queues            create queue      ─▶ jobs        │
	│  DELETE /queues            drop queue        ─▶ jobs        │
	│  PUT    /tasks             add job           ─▶ jobs        │
	│  POST   /tasks             take (claim)      ─▶ jobs        │
	│  GET    /tasks/counts      count created     ─▶ jobs        │
	│  POST   /tasks/reset       release lease     ─▶ jobs        │
	│  DELETE /tasks             done / clear "*"  ─▶ jobs        │
	│  PUT    /tasks/unstale     reclaim leases    ─▶ jobs        │
	│                                                             │
	│  PUT    /publish           fan out           ─▶ topics      │
	│  POST   /subscribe_one     first message     ─▶ topics      │
	│  POST   /subscribe_stream  chunked frames    ─▶ topics      │
	│                                                             │
	│  GET    /health /ready /metrics /static/*                   │
	│                                                             │
	└─────────────────────────────────────────────────────────────┘

# Status Contract

Success and controlled emptiness are both 200. A 200 with no body is
the idiomatic "nothing available right now" answer for take, counts on
a missing queue, and a subscribe window that passed quietly; workers
poll, so emptiness must stay cheap. Malformed bodies are 400 with a
short text reason, an oversized body is 413, and a store failure after
the adapters' retries is 503. A client that disconnects mid-request
gets nothing; the handler observes the cancellation and stops.

# Body Encodings

Payload-bearing calls (add, publish, take's response, subscribe_stream
frames) travel as msgpack so binary payloads avoid base64 inflation.
Control calls carry small JSON bodies. subscribe_stream writes each
message as a standalone msgpack bin frame and flushes it, so the
client's incremental decoder can split the stream without length
prefixes.

# Usage

	srv := api.NewServer(cfg, jobs, topics, registry)

	go func() {
	    if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
	        log.Error(fmt.Sprintf("API server error: %v", err))
	    }
	}()

	// on shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	srv.Stop(ctx)

Serving is plaintext unless cert/key files are configured, in which
case the listener is wrapped in TLS, with client-certificate
verification when a CA bundle is also given.

# Integration Points

This package integrates with:

  - pkg/engine: one engine method per task endpoint
  - pkg/pubsub: publish and both subscribe shapes
  - pkg/wire: request/response shapes and msgpack framing
  - pkg/health: liveness and readiness endpoints
  - pkg/metrics: per-route counters and latency histograms
  - pkg/security: TLS listener material

# See Also

  - pkg/client for the Go client of this API
  - pkg/embedded for serving the same router in-process
*/
package api
