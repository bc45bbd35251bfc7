/*
Package watcher reclaims payload documents whose TTL markers have
expired.

# Architecture

Job metadata lives in Redis and expires on its own. Payload documents
live in a separate store (MongoDB or Redis) that has no notion of the
job's TTL. The watcher closes that gap: every document with a TTL gets
a marker key in Redis carrying the deadline, and when Redis announces
the marker's expiration the watcher deletes the document it covered.

	┌─────────┐  __keyevent@N__:expired   ┌─────────────┐
	│  Redis   │ ────────────────────────▶ │   Watcher    │
	│ (marker  │                           │  buffer keys │
	│  keys)   │                           │  group/flush │
	└─────────┘                           └──────┬──────┘
	                                              │ BulkDelete per collection
	                                              ▼
	                                      ┌─────────────┐
	                                      │ Payload St.  │
	                                      │ (Mongo/Redis)│
	                                      └─────────────┘

Expired key names are buffered and flushed as one bulk delete per
collection, either when 1000 keys have accumulated or one second after
the previous flush, whichever comes first. During expiry storms the
buffer is capped at 10000 keys and the oldest entries are dropped; a
dropped key means an orphaned document, not a correctness problem.

# Key Shapes

Two shapes arrive on the expiration channel. Marker keys are already
collection-shaped ({prefix}_{queue}:{doc_id}). Job metadata keys use
the colon form ({prefix}:{queue}:{job_id}) and are normalized before
grouping. Keys that match neither shape belong to other tenants of the
Redis instance and are ignored.

# Usage

	w := watcher.New(bus, payloadStore, cfg.QueuePrefix, cfg.Redis.DB)
	if err := w.Start(); err != nil {
	    log.Fatal(fmt.Sprintf("Failed to start watcher: %v", err))
	}
	defer w.Stop()

Redis only emits expiration events when notify-keyspace-events
includes "Ex". The index store's EnableExpiryEvents sets this at
startup; on managed Redis that refuses CONFIG SET it must be set
through the provider's console instead.

# Delivery Caveats

Keyspace notifications are fire-and-forget. Events emitted while the
watcher is down are lost, and Redis only announces an expiration when
it actually removes the key, which for rarely-touched keys can lag the
logical deadline. Documents orphaned either way are bounded by their
queue's TTL policy and can be swept by dropping the queue.

# Integration Points

  - pkg/bus: PSubscribe on the keyevent channel
  - pkg/payload: BulkDelete for each affected collection
  - pkg/types: SplitExpiredKey maps key names back to collections
  - pkg/metrics: keys seen/dropped, batches flushed, documents deleted
  - cmd/zaku: started alongside the broker, or standalone via zaku-gc

# See Also

  - pkg/pubsub for where topic message markers are planted
  - pkg/index for marker key writes and EnableExpiryEvents
*/
package watcher
