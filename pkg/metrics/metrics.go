package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Queue metrics
	JobsAdded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zaku_jobs_added_total",
			Help: "Total number of jobs added by queue",
		},
		[]string{"queue"},
	)

	JobsTaken = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zaku_jobs_taken_total",
			Help: "Total number of jobs claimed by queue",
		},
		[]string{"queue"},
	)

	TakeEmpty = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zaku_take_empty_total",
			Help: "Total number of take calls that found nothing claimable",
		},
		[]string{"queue"},
	)

	JobsRemoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zaku_jobs_removed_total",
			Help: "Total number of jobs removed by queue",
		},
		[]string{"queue"},
	)

	JobsReset = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zaku_jobs_reset_total",
			Help: "Total number of jobs returned to created by queue",
		},
		[]string{"queue"},
	)

	JobsUnstaled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zaku_jobs_unstaled_total",
			Help: "Total number of stale leases reclaimed by queue",
		},
		[]string{"queue"},
	)

	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zaku_queue_depth",
			Help: "Number of claimable jobs by queue",
		},
		[]string{"queue"},
	)

	TakeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "zaku_take_duration_seconds",
			Help:    "Time taken to claim a job and fetch its payload in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Pub/sub metrics
	MessagesPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zaku_messages_published_total",
			Help: "Total number of topic messages published by queue",
		},
		[]string{"queue"},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zaku_api_requests_total",
			Help: "Total number of API requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zaku_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Expiration watcher metrics
	GCKeysSeen = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zaku_gc_keys_total",
			Help: "Total number of expired keys observed by the watcher",
		},
	)

	GCKeysDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zaku_gc_keys_dropped_total",
			Help: "Total number of expired keys dropped because the buffer was full",
		},
	)

	GCBatchesFlushed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zaku_gc_batches_total",
			Help: "Total number of delete batches flushed by the watcher",
		},
	)

	GCDocsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zaku_gc_docs_deleted_total",
			Help: "Total number of payload documents deleted by the watcher",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(JobsAdded)
	prometheus.MustRegister(JobsTaken)
	prometheus.MustRegister(TakeEmpty)
	prometheus.MustRegister(JobsRemoved)
	prometheus.MustRegister(JobsReset)
	prometheus.MustRegister(JobsUnstaled)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(TakeDuration)
	prometheus.MustRegister(MessagesPublished)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(GCKeysSeen)
	prometheus.MustRegister(GCKeysDropped)
	prometheus.MustRegister(GCBatchesFlushed)
	prometheus.MustRegister(GCDocsDeleted)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
