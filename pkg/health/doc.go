/*
Package health provides dependency health checks and the readiness
registry backing the broker's /ready endpoint.

# Architecture

Each backing service gets a named Checker. The Registry runs all of
them and aggregates the verdict:

	┌──────────────┐
	│   Registry    │  Check(ctx) → map[name]Result
	│               │  Healthy(ctx) → bool
	└──────┬───────┘
	       │ runs
	       ▼
	┌──────────────┐  ┌──────────────┐  ┌──────────────┐
	│ PingChecker   │  │ TCPChecker    │  │ HTTPChecker   │
	│ (store pings) │  │ (raw sockets) │  │ (endpoints)   │
	└──────────────┘  └──────────────┘  └──────────────┘

The broker registers a PingChecker per store: the Redis metadata index
always, MongoDB when it holds the payloads. TCP and HTTP checkers
serve the test harness, which needs to wait for containers and broker
endpoints to come up before driving traffic.

# Core Components

  - Checker: Name() plus Check(ctx) Result
  - Result: healthy flag, message, timestamp, check duration
  - Registry: registration, aggregate Check/Healthy, and Wait for
    polling until everything passes

# Usage

	registry := health.NewRegistry()
	registry.Register(health.NewPingChecker("redis", store.Ping))
	registry.Register(health.NewPingChecker("mongo", payloads.Ping))

	// readiness handler
	if registry.Healthy(r.Context()) {
	    w.WriteHeader(http.StatusOK)
	} else {
	    w.WriteHeader(http.StatusServiceUnavailable)
	}

	// test harness: block until the broker answers
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := registry.Wait(ctx, 250*time.Millisecond)

# Semantics

Checks never return errors; failure is a Result with Healthy false and
a message naming the cause. A check that cannot even be constructed
(bad URL) reports unhealthy the same way. Registry.Check runs checkers
sequentially; with per-check timeouts of a few seconds and two or
three registered checks, readiness probes stay well inside their
budgets.

# Integration Points

  - pkg/api: /ready runs the registry, /health stays independent
  - pkg/index, pkg/payload: Ping methods wrapped by PingChecker
  - test/integration: TCPChecker probes the backing stores before scenarios
  - cmd/zaku: the status subcommand probes /health and /ready over HTTP

# See Also

  - pkg/metrics for the numeric view of broker behavior
*/
package health
