// Package payload implements the payload store, where job and topic
// message bodies live. The metadata index stays small because this
// package carries the bytes.
//
// # Addressing
//
// Documents are addressed by (collection, doc ID). Collection names use
// the underscore form so the expiration watcher can recover them from
// expired marker keys by splitting on the last colon:
//
//	jobs    {prefix}_{queue}           doc ID = job_id
//	topics  {prefix}_{queue}_topics    doc ID = message UUID
//
// # Implementations
//
//	MongoStore   production. One Mongo collection per queue, documents
//	             shaped {_id, payload, created_at}. Duplicate inserts
//	             replace, so retries stay idempotent. Writes retry with
//	             exponential backoff (3 attempts, 100ms, doubling).
//
//	RedisStore   payloads co-located with the metadata index, for
//	             deployments without MongoDB:
//
//	             {prefix}_{queue}/{job_id}
//	                 -> {prefix}:{queue}:{job_id}.payload
//
//	MemoryStore  embedded mode and tests.
//
// # Usage
//
//	ps, err := payload.NewMongoStore(ctx, cfg.Mongo)
//	if err != nil { ... }
//	if err := ps.WaitReady(ctx); err != nil {
//	    log.Warn("payload store unreachable, degrading")
//	}
//
//	coll := types.PayloadCollection(cfg.Prefix, "renders")
//	ps.Put(ctx, coll, jobID, body)
//	body, err := ps.Fetch(ctx, coll, jobID)
//
// # Failure posture
//
// The payload store is a soft dependency. The broker starts without it;
// job adds that need it surface errors to the producer, while pub/sub
// degrades to passing raw payload bytes on the bus. Fetch of a missing
// document returns types.ErrNotFound, which callers may treat as
// "expired under me" rather than a hard fault.
//
// # Integration points
//
//   - pkg/engine stores and fetches job payloads
//   - pkg/pubsub stores topic messages with a TTL marker key
//   - pkg/watcher bulk-deletes documents whose markers expired
package payload
