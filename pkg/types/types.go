package types

import (
	"strings"
	"time"
)

// JobStatus represents the lifecycle state of a job
type JobStatus string

const (
	JobStatusCreated    JobStatus = "created"
	JobStatusInProgress JobStatus = "in_progress"
)

// JobMeta is the metadata document indexed for each job. It lives in the
// Metadata Index as a JSON document under JobKey(prefix, queue, jobID).
// Payload bytes are stored separately in the Payload Store.
type JobMeta struct {
	CreatedTS float64   `json:"created_ts"`
	Status    JobStatus `json:"status"`
	GrabTS    *float64  `json:"grab_ts,omitempty"`
}

// TakenJob is a claimed lease: the job ID plus its payload bytes.
// Payload is nil when the job was enqueued without one.
type TakenJob struct {
	JobID   string
	Payload []byte
}

// AddRequest describes a job to enqueue
type AddRequest struct {
	Queue   string
	JobID   string
	Payload []byte
	// TTL bounds the job's lifetime. Zero means the job never expires.
	TTL time.Duration
}

// PayloadDoc is the document shape persisted by the Payload Store
type PayloadDoc struct {
	ID        string         `bson:"_id"`
	Payload   []byte         `bson:"payload"`
	CreatedAt float64        `bson:"created_at"`
	Metadata  map[string]any `bson:"metadata,omitempty"`
}

// NowTS returns the current time as float seconds since the Unix epoch,
// the timestamp representation used throughout the metadata index.
func NowTS() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// Key naming contract. Every component derives names through these
// functions so the index, the payload collections, the pub/sub channels
// and the expiration watcher all agree.

// QueueIndex returns the search index name for a queue: {prefix}:{queue}
func QueueIndex(prefix, queue string) string {
	return prefix + ":" + queue
}

// QueueKeyPrefix returns the key prefix the queue index covers:
// {prefix}:{queue}:
func QueueKeyPrefix(prefix, queue string) string {
	return prefix + ":" + queue + ":"
}

// JobKey returns the metadata key for a job: {prefix}:{queue}:{job_id}
func JobKey(prefix, queue, jobID string) string {
	return prefix + ":" + queue + ":" + jobID
}

// PayloadKey returns the co-located payload key used when payloads are
// stored next to their metadata instead of in a separate store.
func PayloadKey(prefix, queue, jobID string) string {
	return JobKey(prefix, queue, jobID) + ".payload"
}

// PayloadCollection returns the payload collection for a queue:
// {prefix}_{queue}
func PayloadCollection(prefix, queue string) string {
	return prefix + "_" + queue
}

// TopicCollection returns the payload collection for a queue's topic
// messages: {prefix}_{queue}_topics
func TopicCollection(prefix, queue string) string {
	return prefix + "_" + queue + "_topics"
}

// TopicChannel returns the pub/sub channel for a topic:
// {prefix}:{queue}.topics:{topic_id}
func TopicChannel(prefix, queue, topicID string) string {
	return prefix + ":" + queue + ".topics:" + topicID
}

// MarkerKey returns the expiry marker key for a payload document. The
// marker carries the TTL; when it expires the watcher deletes the
// document from the named collection.
func MarkerKey(collection, docID string) string {
	return collection + ":" + docID
}

// SplitExpiredKey maps an expired key back to the payload collection and
// document ID it covers. Marker keys are already collection-shaped
// ({prefix}_{queue}:{id}); job metadata keys use the colon form
// ({prefix}:{queue}:{id}) and are normalized when they carry the given
// global prefix. Keys with no separator are not ours.
func SplitExpiredKey(prefix, key string) (collection, docID string, ok bool) {
	i := strings.LastIndex(key, ":")
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	collection, docID = key[:i], key[i+1:]
	if rest, found := strings.CutPrefix(collection, prefix+":"); found {
		collection = prefix + "_" + rest
	}
	return collection, docID, true
}
