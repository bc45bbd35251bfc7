/*
Package metrics provides Prometheus metrics collection and exposition for Zaku.

The metrics package defines and registers all Zaku metrics using the Prometheus
client library, providing observability into queue throughput, claim latency,
pub/sub fan-out, API traffic and garbage collection. Metrics are exposed via
HTTP endpoint for scraping by Prometheus servers.

# Architecture

	┌──────────────────── METRICS SYSTEM ───────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐           │
	│  │          Prometheus Registry               │           │
	│  │  - Global DefaultRegistry                  │           │
	│  │  - MustRegister at package init            │           │
	│  │  - Automatic Go runtime metrics            │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │           Metric Categories                │           │
	│  │                                             │           │
	│  │  Queue: added, taken, removed, reset,      │           │
	│  │         unstaled, depth, take latency      │           │
	│  │  Pub/sub: messages published               │           │
	│  │  API: request count, duration              │           │
	│  │  GC: keys seen, dropped, batches, docs     │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │          Depth Collector                   │           │
	│  │  - Samples every 15s via FT._LIST          │           │
	│  │  - One CountCreated per queue              │           │
	│  │  - Start/Stop lifecycle                    │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │          HTTP Metrics Endpoint             │           │
	│  │  - Path: /metrics                          │           │
	│  │  - Format: Prometheus text exposition      │           │
	│  │  - Handler: promhttp.Handler()             │           │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────────┘

# Core Components

Metric Registry:
  - Global Prometheus DefaultRegistry
  - All metrics registered at package init
  - Automatic collection of Go runtime metrics
  - Thread-safe for concurrent updates

Queue Counters (labeled by queue):
  - zaku_jobs_added_total: jobs accepted from producers
  - zaku_jobs_taken_total: jobs claimed by workers
  - zaku_take_empty_total: claims that found nothing
  - zaku_jobs_removed_total: jobs deleted (done or cleared)
  - zaku_jobs_reset_total: jobs returned to created
  - zaku_jobs_unstaled_total: stale leases reclaimed

Gauges and Histograms:
  - zaku_queue_depth: claimable jobs, sampled by the Collector
  - zaku_take_duration_seconds: claim + payload fetch latency

Pub/Sub Counters:
  - zaku_messages_published_total: topic messages by queue

API Metrics:
  - zaku_api_requests_total: by method, route and status
  - zaku_api_request_duration_seconds: by method and route

GC Counters (expiration watcher):
  - zaku_gc_keys_total: expired keys observed
  - zaku_gc_keys_dropped_total: keys dropped on buffer overflow
  - zaku_gc_batches_total: delete batches flushed
  - zaku_gc_docs_deleted_total: payload documents deleted

Timer:
  - Wraps a start time for histogram observation
  - ObserveDuration for plain histograms
  - ObserveDurationVec for labeled histograms

Collector:
  - Samples queue depth from the metadata index
  - 15 second interval, collects immediately on Start
  - Removes the depth series when a queue disappears

# Usage

Incrementing counters at the point of work:

	metrics.JobsAdded.WithLabelValues(queue).Inc()

Timing an operation:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.TakeDuration)

Running the depth collector:

	collector := metrics.NewCollector(store)
	collector.Start()
	defer collector.Stop()

Exposing the endpoint:

	mux.Handle("/metrics", metrics.Handler())

# Label Cardinality

Queue names are operator-chosen and bounded, so the queue label stays
low-cardinality. Job IDs and topic IDs never appear as labels. API
metrics use the chi route pattern, not the raw URL, so path parameters
cannot explode the series count.

# Integration Points

This package integrates with:

  - pkg/engine: queue counters and take latency
  - pkg/pubsub: publish counters
  - pkg/watcher: GC counters
  - pkg/api: request counters, duration, /metrics endpoint
  - pkg/index: depth collector samples CountCreated per queue
  - cmd/zaku: starts and stops the Collector

# See Also

  - pkg/api for the /metrics route
  - pkg/index for the queue listing the collector samples
*/
package metrics
