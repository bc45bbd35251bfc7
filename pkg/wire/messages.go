package wire

// Request and response shapes for the broker's HTTP API. Mutating job
// traffic (add, publish) travels as msgpack because it carries payload
// bytes; control traffic (take, counts, reset, remove, subscribe) uses
// small JSON bodies. The ugorji codec honors json tags for msgpack too,
// so each shape is declared once.

// CreateQueue is the body of PUT /queues (JSON)
type CreateQueue struct {
	Name string `json:"name"`
}

// DropQueue is the body of DELETE /queues (JSON)
type DropQueue struct {
	Name string `json:"name"`
}

// AddJob is the body of PUT /tasks (msgpack). JobID is optional; the
// broker mints a UUID when it is empty. TTL is in seconds, zero means
// the job never expires.
type AddJob struct {
	Queue   string  `codec:"queue" json:"queue"`
	JobID   string  `codec:"job_id" json:"job_id"`
	Payload []byte  `codec:"payload" json:"payload,omitempty"`
	TTL     float64 `codec:"ttl" json:"ttl"`
}

// AddJobReply is the msgpack response to PUT /tasks
type AddJobReply struct {
	JobID string `codec:"job_id" json:"job_id"`
}

// QueueRequest addresses a whole queue (take, counts)
type QueueRequest struct {
	Queue string `json:"queue"`
}

// JobRef addresses one job in a queue (reset, remove). JobID "*" on
// remove clears the whole queue.
type JobRef struct {
	Queue string `json:"queue"`
	JobID string `json:"job_id"`
}

// TakeReply is the msgpack response to POST /tasks when a job was
// claimed. An empty 200 body means nothing was available.
type TakeReply struct {
	JobID   string `codec:"job_id" json:"job_id"`
	Payload []byte `codec:"payload" json:"payload,omitempty"`
}

// CountReply is the msgpack response to GET /tasks/counts
type CountReply struct {
	Counts int64 `codec:"counts" json:"counts"`
}

// UnstaleRequest is the body of PUT /tasks/unstale. TTL is the lease
// age in seconds beyond which an in_progress job is considered stale;
// zero sweeps every outstanding lease.
type UnstaleRequest struct {
	Queue string  `json:"queue"`
	TTL   float64 `json:"ttl"`
}

// Publish is the body of PUT /publish (msgpack)
type Publish struct {
	Queue   string `codec:"queue" json:"queue"`
	TopicID string `codec:"topic_id" json:"topic_id"`
	Payload []byte `codec:"payload" json:"payload,omitempty"`
}

// Subscribe is the body of POST /subscribe_one and
// POST /subscribe_stream. Timeout is the deadline in seconds.
type Subscribe struct {
	Queue   string  `json:"queue"`
	TopicID string  `json:"topic_id"`
	Timeout float64 `json:"timeout"`
}
