package tasks

import (
	"sync"

	"github.com/ternarybob/litemark/internal/models"
)

// Task is the mutable handle of one registry record.
// Every mutation happens under the task's own lock and publishes a snapshot afterwards.
type Task struct {
	mu       sync.Mutex
	progress models.TaskProgress
	registry *Registry
}

// ID returns the task id
func (t *Task) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress.TaskID
}

// Snapshot returns a copy of the current record
func (t *Task) Snapshot() models.TaskProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Task) snapshotLocked() models.TaskProgress {
	snapshot := t.progress
	snapshot.Errors = append([]string(nil), t.progress.Errors...)
	if snapshot.Errors == nil {
		snapshot.Errors = []string{}
	}
	if t.progress.StartedAt != nil {
		v := *t.progress.StartedAt
		snapshot.StartedAt = &v
	}
	if t.progress.CompletedAt != nil {
		v := *t.progress.CompletedAt
		snapshot.CompletedAt = &v
	}
	return snapshot
}

// mutate applies fn under the lock and publishes the result when fn reports a change
func (t *Task) mutate(fn func(p *models.TaskProgress) bool) {
	t.mu.Lock()
	changed := fn(&t.progress)
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	if changed && t.registry != nil {
		t.registry.publish(snapshot)
	}
}

// Start moves a pending task to running and stamps started_at. Later calls are no-ops.
func (t *Task) Start() {
	t.mutate(func(p *models.TaskProgress) bool {
		if p.Status != models.TaskStatusPending {
			return false
		}
		now := t.registry.now()
		p.Status = models.TaskStatusRunning
		p.StartedAt = &now
		return true
	})
}

// AddTotal grows total by n
func (t *Task) AddTotal(n int) {
	if n <= 0 {
		return
	}
	t.mutate(func(p *models.TaskProgress) bool {
		if p.Status.IsTerminal() {
			return false
		}
		p.Total += n
		return true
	})
}

// RecordSuccess counts one processed item
func (t *Task) RecordSuccess() {
	t.mutate(func(p *models.TaskProgress) bool {
		if p.Status.IsTerminal() {
			return false
		}
		p.Processed++
		if p.Processed+p.Failed > p.Total {
			p.Total = p.Processed + p.Failed
		}
		return true
	})
}

// RecordFailure counts one failed item and keeps its message
func (t *Task) RecordFailure(message string) {
	t.mutate(func(p *models.TaskProgress) bool {
		if p.Status.IsTerminal() {
			return false
		}
		p.Failed++
		if p.Processed+p.Failed > p.Total {
			p.Total = p.Processed + p.Failed
		}
		p.Errors = append(p.Errors, message)
		return true
	})
}

// Complete marks the task completed. Terminal tasks are left unchanged.
func (t *Task) Complete() {
	t.finish(models.TaskStatusCompleted, "")
}

// Fail marks the task failed and appends err. Terminal tasks are left unchanged.
func (t *Task) Fail(err error) {
	message := ""
	if err != nil {
		message = err.Error()
	}
	t.finish(models.TaskStatusFailed, message)
}

func (t *Task) finish(status models.TaskStatus, message string) {
	finished := false
	t.mutate(func(p *models.TaskProgress) bool {
		if p.Status.IsTerminal() {
			return false
		}
		finished = true
		now := t.registry.now()
		if p.StartedAt == nil {
			p.StartedAt = &now
		}
		p.Status = status
		p.CompletedAt = &now
		if message != "" {
			p.Errors = append(p.Errors, message)
		}
		return true
	})

	if !finished {
		return
	}

	snapshot := t.Snapshot()
	t.registry.logger.Info().
		Str("task_id", snapshot.TaskID).
		Str("operation", snapshot.Operation).
		Str("status", string(snapshot.Status)).
		Int("total", snapshot.Total).
		Int("processed", snapshot.Processed).
		Int("failed", snapshot.Failed).
		Msg("Task finished")
}
