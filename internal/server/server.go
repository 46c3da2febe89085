// Package server exposes the task queue over a plaintext loopback HTTP API:
// task submission with replace-by-id semantics and a full status snapshot.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/drmercer/prompt-pad/internal/observability"
	"github.com/drmercer/prompt-pad/internal/queue"
	"github.com/drmercer/prompt-pad/internal/storage"
	"github.com/drmercer/prompt-pad/pkg/models"
)

// StatusResponse is the body of a successful status query.
type StatusResponse struct {
	ServerName string        `json:"serverName"`
	Tasks      []models.Task `json:"tasks"`
}

// Server handles the two API operations. Status reads are fully concurrent
// with a running task; submissions append to the store, wake the processor,
// and return without waiting for execution.
type Server struct {
	name      string
	store     *storage.TaskStore
	processor *queue.Processor
	auth      *Authenticator
	eventLog  observability.EventLog // nil when observability is disabled
	logger    *log.Logger
}

// New creates a Server. eventLog may be nil; logger may be nil for the
// default logger.
func New(name string, store *storage.TaskStore, processor *queue.Processor, auth *Authenticator, eventLog observability.EventLog, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		name:      name,
		store:     store,
		processor: processor,
		auth:      auth,
		eventLog:  eventLog,
		logger:    logger,
	}
}

// Handler returns the http.Handler for the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// ListenAndServe runs the API on the given address until the server fails.
func (s *Server) ListenAndServe(addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	s.logger.Info("listening", "addr", addr, "server", s.name)
	return httpServer.ListenAndServe()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if status, msg := s.auth.Check(r); status != 0 {
		s.logger.Debug("rejected request", "status", status, "reason", msg)
		http.Error(w, msg, status)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleStatus(w, r)
	case http.MethodPost:
		s.handleSubmit(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleStatus returns the server name and the full task sequence in the
// store's insertion order.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		ServerName: s.name,
		Tasks:      s.store.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("encoding status response", "err", err)
	}
}

// handleSubmit accepts a task descriptor, applies the store's
// replace-then-append, wakes the processor, and responds 202 immediately.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub models.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if sub.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if sub.Prompt == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}

	task, replaced := s.store.Submit(sub)
	s.logger.Info("task submitted", "task", task.ID, "replaced", replaced)

	if s.eventLog != nil {
		eventType := observability.EventTaskSubmitted
		if replaced {
			eventType = observability.EventTaskReplaced
		}
		event := observability.TaskEvent(eventType, task.ID, "task submitted",
			map[string]any{"dependencies": len(task.Dependencies)})
		if err := s.eventLog.Write(event); err != nil {
			s.logger.Warn("writing event", "type", eventType, "err", err)
		}
	}

	s.processor.Kick()

	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintf(w, "accepted task %s\n", task.ID)
}
