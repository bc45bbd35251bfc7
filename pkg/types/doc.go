/*
Package types defines the core domain types and the key naming contract
shared by every Zaku component.

The package is intentionally dependency-free: it holds the job metadata
shape, the lease result, the error taxonomy roots, and the pure functions
that derive index names, metadata keys, payload collections, pub/sub
channels and expiry markers from a (prefix, queue) pair. The broker, the
expiration watcher and the client SDK all agree on names because they all
call through here.

# Key Naming

One global prefix partitions everything a deployment owns:

	┌─────────────────────── KEY NAMESPACE ─────────────────────────┐
	│                                                                │
	│  Queue index        {prefix}:{queue}                           │
	│  Job metadata       {prefix}:{queue}:{job_id}                  │
	│  Co-located payload {prefix}:{queue}:{job_id}.payload          │
	│  Payload docs       collection {prefix}_{queue}   _id=job_id   │
	│  Topic payloads     collection {prefix}_{queue}_topics         │
	│  Topic channel      {prefix}:{queue}.topics:{topic_id}         │
	│  Expiry marker      {collection}:{doc_id}                      │
	│                                                                │
	└────────────────────────────────────────────────────────────────┘

Metadata keys use the colon form so a single search index can cover a
queue by key prefix. Payload collections use the underscore form because
collection names double as the grouping key inside the expiration
watcher: an expired key is split on its last colon, and whatever is left
of the split names the collection to clean. SplitExpiredKey performs
that split and normalizes colon-form job keys into their collection.

# Job Lifecycle

A job's metadata walks a two-state machine:

	created ──take──▶ in_progress ──done/remove──▶ (deleted)
	   ▲                   │
	   └──reset/unstale────┘

JobMeta mirrors exactly what the index stores: created_ts always,
grab_ts only while a lease is held. Deleting grab_ts (not zeroing it) is
what makes a reset job claimable again.

# Errors

ErrNoIndex marks operations against a queue whose index does not exist
yet; callers translate it to "nothing available" rather than a failure.
ErrNotFound marks missing payload documents. InputError marks caller
mistakes and maps to HTTP 400 at the API boundary. Everything else is a
store error and keeps its transport wrapping.

# Usage

	key := types.JobKey(cfg.Prefix, "render", jobID)
	coll := types.PayloadCollection(cfg.Prefix, "render")

	meta := types.JobMeta{
		CreatedTS: types.NowTS(),
		Status:    types.JobStatusCreated,
	}

# Integration Points

This package is imported by:

  - pkg/index: stores and queries JobMeta documents
  - pkg/payload: persists PayloadDoc under the derived collections
  - pkg/bus: derives topic channel names
  - pkg/engine, pkg/pubsub: lifecycle orchestration
  - pkg/watcher: SplitExpiredKey drives payload garbage collection
  - pkg/api, pkg/client: wire-level request validation
*/
package types
