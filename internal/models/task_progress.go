package models

import (
	"math"
	"time"
)

// TaskStatus is the lifecycle state of a batch task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// MaxExposedTaskErrors caps the errors returned to clients
const MaxExposedTaskErrors = 10

// IsTerminal reports whether no further transition is possible
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Rank orders statuses so transitions can only move forward
func (s TaskStatus) Rank() int {
	switch s {
	case TaskStatusPending:
		return 0
	case TaskStatusRunning:
		return 1
	case TaskStatusCompleted, TaskStatusFailed:
		return 2
	default:
		return -1
	}
}

// TaskProgress tracks one batch enrichment run.
// Errors holds every recorded failure; use View for the client representation.
type TaskProgress struct {
	TaskID      string     `json:"task_id"`
	Operation   string     `json:"operation"`
	Total       int        `json:"total"`
	Processed   int        `json:"processed"`
	Failed      int        `json:"failed"`
	Status      TaskStatus `json:"status"`
	Errors      []string   `json:"errors"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// ProgressPercent returns processed/total*100 rounded to one decimal, 0 when total is 0
func (t TaskProgress) ProgressPercent() float64 {
	if t.Total <= 0 {
		return 0
	}
	return math.Round(float64(t.Processed)/float64(t.Total)*1000) / 10
}

// TaskProgressView is the client representation of a TaskProgress
type TaskProgressView struct {
	TaskID          string     `json:"task_id"`
	Operation       string     `json:"operation"`
	Total           int        `json:"total"`
	Processed       int        `json:"processed"`
	Failed          int        `json:"failed"`
	Status          TaskStatus `json:"status"`
	ProgressPercent float64    `json:"progress_percent"`
	Errors          []string   `json:"errors"`
	ErrorCount      int        `json:"error_count"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
}

// View returns the client representation with errors capped to MaxExposedTaskErrors
func (t TaskProgress) View() TaskProgressView {
	errs := t.Errors
	if len(errs) > MaxExposedTaskErrors {
		errs = errs[:MaxExposedTaskErrors]
	}
	exposed := make([]string, len(errs))
	copy(exposed, errs)

	return TaskProgressView{
		TaskID:          t.TaskID,
		Operation:       t.Operation,
		Total:           t.Total,
		Processed:       t.Processed,
		Failed:          t.Failed,
		Status:          t.Status,
		ProgressPercent: t.ProgressPercent(),
		Errors:          exposed,
		ErrorCount:      len(t.Errors),
		CreatedAt:       t.CreatedAt,
		StartedAt:       t.StartedAt,
		CompletedAt:     t.CompletedAt,
	}
}
