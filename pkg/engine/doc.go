/*
Package engine implements the job engine, the coordination layer that
turns two dumb stores into a task queue.

The engine owns the job lifecycle. It decides ordering (payload before
metadata on add, metadata before payload on remove), mints job IDs,
maps "queue does not exist" to "queue is empty", and counts everything
for observability. It holds no state of its own; every fact lives in
the metadata index or the payload store.

# Architecture

	┌───────────────────── JOB ENGINE ───────────────────────────┐
	│                                                             │
	│   Add ────────▶ payload.Put ──▶ index.PutJob                │
	│                 (payload readable before job claimable)    │
	│                                                             │
	│   Take ───────▶ index.ClaimOldest ──▶ payload.Fetch         │
	│                 (atomic claim, then read outside the lock) │
	│                                                             │
	│   Remove ─────▶ index.DeleteJob ──▶ payload.Delete          │
	│                 (unclaimable before the bytes go away)     │
	│                                                             │
	│   Reset ──────▶ index.ResetJob                              │
	│   Unstale ────▶ index.ResetStale                            │
	│   Count ──────▶ index.CountCreated                          │
	│                                                             │
	└─────────────────────────────────────────────────────────────┘

# Job Lifecycle

	         Add                    Take
	(absent) ────▶ created ─────────────▶ in_progress
	                  ▲                        │
	                  │   Reset / Unstale      │
	                  └────────────────────────┤
	                                           │ Remove (done)
	                  Remove ("*" clears all)  ▼
	                                       (absent)

A worker that crashes mid-job leaves its lease behind; Unstale finds
leases older than a caller-chosen TTL and returns those jobs to
created. Nothing is retried automatically.

# Usage

	eng := engine.New(mi, ps, cfg.Prefix)

	eng.CreateQueue(ctx, "renders")

	jobID, err := eng.Add(ctx, types.AddRequest{
	    Queue:   "renders",
	    Payload: body, // opaque bytes, usually msgpack
	})

	job, err := eng.Take(ctx, "renders")
	if err != nil { ... }
	if job == nil {
	    // nothing claimable right now
	}

	// worker finished
	eng.Remove(ctx, "renders", job.JobID)

	// worker gave up
	eng.Reset(ctx, "renders", job.JobID)

	// operator reclaims leases older than 5 minutes
	n, err := eng.Unstale(ctx, "renders", 5*time.Minute)

# Emptiness Is Not an Error

Take returns (nil, nil) when nothing is claimable, and Count returns 0
for a queue that was never created. Workers poll; an empty answer is
the common case and must stay cheap and unexceptional. Malformed input
(empty queue name, colons, missing job ID) returns a types.InputError,
which the API layer maps to 400.

# Validation

Queue names must be non-empty and free of colons and whitespace, since
the colon separates segments in every derived key. Job IDs are opaque;
only "" (rejected) and "*" (clear-all on Remove) are special.

# Integration Points

This package integrates with:

  - pkg/index: claims, resets, counts, key enumeration
  - pkg/payload: payload bytes keyed by job ID
  - pkg/metrics: per-queue counters and take latency
  - pkg/api: HTTP handlers call one engine method per endpoint
  - pkg/pubsub: sibling engine for the topic plane

# See Also

  - pkg/index for the atomic claim script
  - pkg/watcher for TTL-driven payload cleanup
*/
package engine
