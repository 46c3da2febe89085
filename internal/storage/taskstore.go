// Package storage holds the authoritative in-memory task sequence and keeps
// a durable on-disk JSON mirror, one document per configured repository path.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/drmercer/prompt-pad/pkg/models"
)

// TaskStore manages the ordered task sequence shared by the HTTP API and the
// queue processor. Every mutation is followed by a best-effort write of the
// full sequence to disk; a failed write is logged and never rolled back, so
// the in-memory state is always authoritative.
type TaskStore struct {
	mu     sync.RWMutex
	tasks  []*models.Task
	path   string
	logger *log.Logger
	now    func() time.Time
}

// NewTaskStore creates a TaskStore persisted at the given document path.
// logger may be nil, in which case the default logger is used.
func NewTaskStore(path string, logger *log.Logger) *TaskStore {
	if logger == nil {
		logger = log.Default()
	}
	return &TaskStore{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
}

// Path returns the on-disk location of the persisted document.
func (s *TaskStore) Path() string {
	return s.path
}

// Load reads the persisted document. A missing file starts an empty store.
// Any task found in-progress is reset to queued: an interrupted task is
// always treated as not-yet-started on restart, never as failed.
func (s *TaskStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.tasks = nil
			return nil
		}
		return fmt.Errorf("reading task document %s: %w", s.path, err)
	}

	var tasks []*models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return fmt.Errorf("parsing task document %s: %w", s.path, err)
	}

	recovered := 0
	for _, t := range tasks {
		if t.Status == models.StatusInProgress {
			t.Status = models.StatusQueued
			recovered++
		}
	}
	if recovered > 0 {
		s.logger.Info("recovered interrupted tasks", "count", recovered)
	}

	s.tasks = tasks
	if recovered > 0 {
		s.persistLocked()
	}
	return nil
}

// Submit applies replace-by-id semantics: any existing task with the same id
// is removed before the new task is appended as queued with a fresh
// submission time. It returns the stored record and whether a prior record
// was replaced.
func (s *TaskStore) Submit(sub models.Submission) (*models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i, t := range s.tasks {
		if t.ID == sub.ID {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			replaced = true
			break
		}
	}

	task := &models.Task{
		ID:           sub.ID,
		Prompt:       sub.Prompt,
		Dependencies: sub.Dependencies,
		Status:       models.StatusQueued,
		SubmittedAt:  s.now(),
	}
	s.tasks = append(s.tasks, task)
	s.persistLocked()
	return task, replaced
}

// NextQueued returns the earliest-submitted task that is still queued, or
// nil when the queue is empty. The sequence is insertion-ordered, so the
// first queued entry is the oldest.
func (s *TaskStore) NextQueued() *models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.Status == models.StatusQueued {
			return t
		}
	}
	return nil
}

// Start marks the given record in-progress and persists.
func (s *TaskStore) Start(rec *models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Status = models.StatusInProgress
	s.persistLocked()
}

// Complete records the commit id on the given record and marks it completed.
// The record is the one captured by the processor at start time: if it was
// replaced by a resubmission while running, the mutation lands on the
// orphaned record and the persisted snapshot is unaffected.
func (s *TaskStore) Complete(rec *models.Task, commit string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Status = models.StatusCompleted
	rec.Commit = commit
	s.persistLocked()
}

// Fail records the error text on the given record and marks it errored. Like
// Complete, a record replaced mid-run absorbs the update invisibly.
func (s *TaskStore) Fail(rec *models.Task, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Status = models.StatusError
	rec.Error = msg
	s.persistLocked()
}

// Snapshot returns a copy of the full task sequence in insertion order.
func (s *TaskStore) Snapshot() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = *t
	}
	return out
}

// Get returns a copy of the task with the given id.
func (s *TaskStore) Get(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return *t, true
		}
	}
	return models.Task{}, false
}

// Len returns the number of tasks currently held.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Save serializes the full sequence to the document path.
func (s *TaskStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveLocked()
}

// persistLocked writes the document and logs (rather than returns) failures.
// Durability is best-effort: the in-memory mutation stands even when the
// write fails, and the disk copy catches up on the next successful write.
func (s *TaskStore) persistLocked() {
	if err := s.saveLocked(); err != nil {
		s.logger.Error("persisting task document", "path", s.path, "err", err)
	}
}

func (s *TaskStore) saveLocked() error {
	tasks := s.tasks
	if tasks == nil {
		tasks = []*models.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling tasks: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing task document: %w", err)
	}
	return nil
}
