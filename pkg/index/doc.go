// Package index implements the metadata index, the source of truth for
// job state and the arbiter of job claims.
//
// # Overview
//
// Every job is a small metadata document; every queue is a search index
// over those documents. The index answers three questions: which jobs
// are claimable, which job is oldest, and which leases have gone stale.
// Payload bytes never live here (see pkg/payload).
//
// # Key layout
//
// One queue named "renders" under prefix "Zaku-task-queues":
//
//	┌──────────────────────────────────────────────────────────────┐
//	│ Search index   Zaku-task-queues:renders                      │
//	│   ON JSON PREFIX "Zaku-task-queues:renders:"                 │
//	│   $.status      AS status      TAG                           │
//	│   $.created_ts  AS created_ts  NUMERIC SORTABLE              │
//	│   $.grab_ts     AS grab_ts     NUMERIC SORTABLE              │
//	├──────────────────────────────────────────────────────────────┤
//	│ Job document   Zaku-task-queues:renders:{job_id}             │
//	│   {"created_ts": 1712345678.9, "status": "created"}          │
//	│   in_progress adds: "grab_ts": 1712345680.1                  │
//	└──────────────────────────────────────────────────────────────┘
//
// # Claim flow
//
// The claim is the only multi-step state transition in the system, so
// it runs as a Lua script and is atomic end to end:
//
//	FT.SEARCH {index} '@status:{created}'
//	          NOCONTENT SORTBY created_ts ASC LIMIT 0 1
//	   │
//	   ├── no hit ──▶ return false          (claimable queue is empty)
//	   │
//	   └── hit ─────▶ JSON.SET {key} $.status  '"in_progress"'
//	                  JSON.SET {key} $.grab_ts  {now}
//	                  return {key}
//
// Two workers racing for the last job cannot both win: the script runs
// single-threaded inside Redis.
//
// # Implementations
//
//	RedisStore   production; requires the RediSearch and RedisJSON
//	             modules (redis-stack). Supports Sentinel failover.
//	MemoryStore  embedded mode and tests; same semantics, one mutex.
//
// # Usage
//
//	rdb := index.NewClient(cfg.Redis, cfg.Sentinel)
//	mi := index.NewRedisStore(rdb, cfg.Prefix)
//	if err := mi.WaitReady(ctx); err != nil {
//	    log.Fatal(fmt.Sprintf("Metadata index unreachable: %v", err))
//	}
//
//	mi.EnsureQueue(ctx, "renders")
//	mi.PutJob(ctx, "renders", jobID, types.JobMeta{
//	    CreatedTS: types.NowTS(),
//	    Status:    types.JobStatusCreated,
//	}, 0)
//
//	jobID, err := mi.ClaimOldest(ctx, "renders", types.NowTS())
//	// jobID == "" means nothing to do; errors.Is(err, types.ErrNoIndex)
//	// means the queue was never created (or its index was dropped).
//
// # Error handling
//
// RediSearch reports a missing index with wording that varies across
// module versions ("no such index", "Unknown Index name"). Both map to
// types.ErrNoIndex so callers can treat an absent queue as empty rather
// than broken. Creating a queue twice is a no-op.
//
// # Integration points
//
//   - pkg/engine drives claims, resets and deletes through Store
//   - pkg/watcher shares the same Redis client for keyspace events
//   - pkg/metrics samples CountCreated per queue for the depth gauge
//   - cmd/zaku builds the client once and closes the store last
package index
