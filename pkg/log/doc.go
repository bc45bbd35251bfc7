/*
Package log provides structured logging for Zaku using zerolog.

The log package wraps the zerolog library to provide JSON-structured
logging with component-specific loggers, configurable log levels, and
helper functions for common logging patterns. All logs include
timestamps and support filtering by severity level.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                           │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                   │          │
	│  │  - Zerolog instance                        │          │
	│  │  - Initialized via log.Init()              │          │
	│  │  - Thread-safe for concurrent use          │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                    │          │
	│  │  - Level: debug/info/warn/error            │          │
	│  │  - Format: JSON or console (human)         │          │
	│  │  - Output: stdout, file, or custom writer  │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Context Loggers                    │          │
	│  │  - WithComponent("engine")                 │          │
	│  │  - WithQueue("render-jobs")                │          │
	│  │  - WithTopic("progress")                   │          │
	│  │  - WithJobID("job-9f2c…")                  │          │
	│  └────────────────────────────────────────────┘          │
	│                                                           │
	└───────────────────────────────────────────────────────────┘

# Usage

Initializing the logger:

	import "github.com/vuer-ai/zaku-go/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

Simple logging:

	log.Info("broker listening")
	log.Warn("payload store unreachable, pub/sub degrades to pass-through")
	log.Error("index create failed")

Structured logging:

	log.Logger.Info().
		Str("queue", "render-jobs").
		Int("count", 5).
		Msg("jobs enqueued")

Component loggers:

	engineLog := log.WithComponent("engine")
	engineLog.Debug().Str("job_id", id).Msg("lease claimed")

	watcherLog := log.WithComponent("watcher").
		With().Str("collection", coll).Logger()
	watcherLog.Info().Int("keys", n).Msg("flushed expired payloads")

# Log Output Examples

JSON format (production):

	{"level":"info","component":"api","time":"2025-06-02T10:30:00Z","message":"broker listening"}
	{"level":"error","component":"payload","error":"server selection timeout","time":"2025-06-02T10:30:02Z","message":"store ping failed"}

Console format (development):

	10:30:00 INF broker listening component=api
	10:30:02 ERR store ping failed component=payload error="server selection timeout"

# Integration Points

This package integrates with:

  - pkg/api: request logging and server lifecycle
  - pkg/engine, pkg/pubsub: operation logging
  - pkg/index, pkg/payload, pkg/bus: adapter retries and ping failures
  - pkg/watcher: flush batches and buffer overflow warnings
  - cmd/zaku, cmd/zaku-gc: startup and shutdown

# Design Patterns

Global logger pattern:
  - Single package-level Logger instance
  - Initialized once at application start
  - Accessible from all packages without passing

Context logger pattern:
  - Create child loggers with context fields
  - Automatically includes context in all logs
  - Avoids repetitive field specification

Error logging pattern:
  - Always use .Err(err) for error objects
  - Consistent error format across the codebase

# Best Practices

Do:
  - Use Info level for production
  - Use structured fields for queryable data
  - Create component-specific loggers
  - Include context (queue, topic, job ID)

Don't:
  - Log payload bytes (they are opaque and can be large)
  - Use Debug level in production
  - Log in per-message hot paths (subscribe poll loops)
  - Concatenate strings (use .Str, .Int)
*/
package log
