package models

import "time"

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

const (
	StatusQueued     TaskStatus = "queued"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
	StatusError      TaskStatus = "error"
)

// Task is one queued unit of work: a prompt plus metadata and lifecycle
// status. A task is created by an accepted submission, advanced by the queue
// processor, and stays in the store after reaching a terminal state until it
// is superseded by a resubmission with the same id.
type Task struct {
	ID           string     `json:"id"`
	Prompt       string     `json:"prompt"`
	Dependencies []string   `json:"dependencies,omitempty"`
	Status       TaskStatus `json:"status"`
	SubmittedAt  time.Time  `json:"submittedAt"`
	Commit       string     `json:"commit,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Submission is the wire payload accepted by the HTTP API. Dependencies are
// recorded on the task but not evaluated by the processor.
type Submission struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Terminal reports whether the status is one of the two end states.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Valid reports whether s is one of the four known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusInProgress, StatusCompleted, StatusError:
		return true
	}
	return false
}
