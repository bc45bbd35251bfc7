package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/vuer-ai/zaku-go/pkg/log"
	"github.com/vuer-ai/zaku-go/pkg/types"
	"github.com/vuer-ai/zaku-go/pkg/wire"
)

const contentTypeMsgpack = "application/msgpack"

// handleCreateQueue implements PUT /queues
func (s *Server) handleCreateQueue(w http.ResponseWriter, r *http.Request) {
	var req wire.CreateQueue
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.jobs.CreateQueue(r.Context(), req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// handleDropQueue implements DELETE /queues
func (s *Server) handleDropQueue(w http.ResponseWriter, r *http.Request) {
	var req wire.DropQueue
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.jobs.DropQueue(r.Context(), req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// handleAdd implements PUT /tasks
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req wire.AddJob
	if err := decodeMsgpack(r, &req); err != nil {
		writeError(w, err)
		return
	}
	jobID, err := s.jobs.Add(r.Context(), types.AddRequest{
		Queue:   req.Queue,
		JobID:   req.JobID,
		Payload: req.Payload,
		TTL:     secondsToDuration(req.TTL),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeMsgpack(w, wire.AddJobReply{JobID: jobID})
}

// handleTake implements POST /tasks. An empty 200 means no job is
// available.
func (s *Server) handleTake(w http.ResponseWriter, r *http.Request) {
	var req wire.QueueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	job, err := s.jobs.Take(r.Context(), req.Queue)
	if err != nil {
		writeError(w, err)
		return
	}
	if job == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeMsgpack(w, wire.TakeReply{JobID: job.JobID, Payload: job.Payload})
}

// handleCount implements GET /tasks/counts. An empty 200 means the
// queue does not exist, which is distinct from a zero count.
func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	var req wire.QueueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	n, err := s.jobs.Count(r.Context(), req.Queue)
	if err != nil {
		writeError(w, err)
		return
	}
	writeMsgpack(w, wire.CountReply{Counts: n})
}

// handleReset implements POST /tasks/reset. Resetting a job that no
// longer exists is a no-op.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req wire.JobRef
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	err := s.jobs.Reset(r.Context(), req.Queue, req.JobID)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// handleRemove implements DELETE /tasks. job_id "*" clears the queue.
func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req wire.JobRef
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	err := s.jobs.Remove(r.Context(), req.Queue, req.JobID)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// handleUnstale implements PUT /tasks/unstale
func (s *Server) handleUnstale(w http.ResponseWriter, r *http.Request) {
	var req wire.UnstaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.jobs.Unstale(r.Context(), req.Queue, secondsToDuration(req.TTL)); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w)
}

// handlePublish implements PUT /publish. The response body is the
// subscriber count as text.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req wire.Publish
	if err := decodeMsgpack(r, &req); err != nil {
		writeError(w, err)
		return
	}
	n, err := s.topics.Publish(r.Context(), req.Queue, req.TopicID, req.Payload)
	if err != nil {
		writeError(w, err)
		return
	}
	_, _ = w.Write([]byte(strconv.FormatInt(n, 10)))
}

// handleSubscribeOne implements POST /subscribe_one. The first message
// within the deadline is returned raw; an empty 200 means the window
// passed quietly.
func (s *Server) handleSubscribeOne(w http.ResponseWriter, r *http.Request) {
	var req wire.Subscribe
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Timeout <= 0 {
		writeError(w, types.BadInput("timeout must be positive"))
		return
	}
	msg, err := s.topics.SubscribeOne(r.Context(), req.Queue, req.TopicID, secondsToDuration(req.Timeout))
	if err != nil {
		writeError(w, err)
		return
	}
	if msg == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(msg)
}

// handleSubscribeStream implements POST /subscribe_stream. Messages
// are written back-to-back as msgpack frames and flushed individually
// so the client's incremental decoder can split them. Headers go out
// with the first message; a quiet window ends as an empty 200.
func (s *Server) handleSubscribeStream(w http.ResponseWriter, r *http.Request) {
	var req wire.Subscribe
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Timeout <= 0 {
		writeError(w, types.BadInput("timeout must be positive"))
		return
	}

	flusher, _ := w.(http.Flusher)
	streaming := false

	err := s.topics.SubscribeStream(r.Context(), req.Queue, req.TopicID, secondsToDuration(req.Timeout), func(body []byte) error {
		if !streaming {
			w.Header().Set("Content-Type", contentTypeMsgpack)
			w.WriteHeader(http.StatusOK)
			streaming = true
		}
		frame, err := wire.Marshal(body)
		if err != nil {
			return err
		}
		if _, err := w.Write(frame); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		if streaming {
			// Status is already on the wire; the aborted stream is all
			// the client sees.
			log.Warn(fmt.Sprintf("Subscribe stream aborted: %v", err))
			return
		}
		writeError(w, err)
	}
}

// writeError maps engine and store errors onto the status contract:
// bad input 400, oversized body 413, missing targets and controlled
// emptiness 200, everything else 503.
func writeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
	case types.IsInputError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, types.ErrNotFound), errors.Is(err, types.ErrNoIndex):
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, context.Canceled):
		// Client is gone; nothing left to answer.
	default:
		log.Errorf("Request failed", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
	}
}

func writeOK(w http.ResponseWriter) {
	_, _ = w.Write([]byte("OK"))
}

func writeMsgpack(w http.ResponseWriter, v interface{}) {
	b, err := wire.Marshal(v)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypeMsgpack)
	_, _ = w.Write(b)
}

func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return types.BadInput("request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return types.BadInput("malformed JSON body: %v", err)
	}
	return nil
}

func decodeMsgpack(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return types.BadInput("request body is required")
	}
	if err := wire.Unmarshal(body, v); err != nil {
		return types.BadInput("malformed msgpack body: %v", err)
	}
	return nil
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}
