// Package tasks is the in-memory registry of batch enrichment tasks.
// Records live only for the lifetime of the process.
package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
)

// ErrRegistryClosed is returned by Create after Shutdown
var ErrRegistryClosed = errors.New("task registry is closed")

// DefaultRetention is how long completed tasks are kept before lazy eviction
const DefaultRetention = time.Hour

// Registry maps task ids to their progress records.
// Eviction runs lazily on Create; there is no background sweep.
type Registry struct {
	mu        sync.RWMutex
	records   map[string]*Task
	order     []string
	retention time.Duration
	closed    bool

	events interfaces.EventService
	logger arbor.ILogger
	now    func() time.Time
}

// NewRegistry creates a task registry. A non-positive retention uses DefaultRetention.
// events may be nil.
func NewRegistry(events interfaces.EventService, logger arbor.ILogger, retention time.Duration) *Registry {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Registry{
		records:   make(map[string]*Task),
		retention: retention,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// Init opens the registry for new tasks
func (r *Registry) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = false
	r.logger.Debug().Dur("retention", r.retention).Msg("Task registry initialized")
	return nil
}

// Shutdown stops accepting new tasks. Running tasks keep their records until the process exits.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	r.closed = true
	tasks := make([]*Task, 0, len(r.records))
	for _, task := range r.records {
		tasks = append(tasks, task)
	}
	r.mu.Unlock()

	active := 0
	for _, task := range tasks {
		if !task.Snapshot().Status.IsTerminal() {
			active++
		}
	}
	r.logger.Info().Int("tasks", len(tasks)).Int("active", active).Msg("Task registry shut down")
}

// Create evicts expired records and registers a new pending task
func (r *Registry) Create(operation string) (*Task, error) {
	r.EvictOlderThan(r.retention)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}

	id := common.NewTaskID()
	for _, exists := r.records[id]; exists; _, exists = r.records[id] {
		id = common.NewTaskID()
	}

	task := &Task{
		registry: r,
		progress: models.TaskProgress{
			TaskID:    id,
			Operation: operation,
			Status:    models.TaskStatusPending,
			Errors:    []string{},
			CreatedAt: r.now(),
		},
	}
	r.records[id] = task
	r.order = append(r.order, id)

	r.logger.Info().Str("task_id", id).Str("operation", operation).Msg("Task created")
	r.publish(task.Snapshot())

	return task, nil
}

// Get returns a snapshot of the task
func (r *Registry) Get(id string) (models.TaskProgress, bool) {
	r.mu.RLock()
	task, ok := r.records[id]
	r.mu.RUnlock()

	if !ok {
		return models.TaskProgress{}, false
	}
	return task.Snapshot(), true
}

// Task returns the live handle for id
func (r *Registry) Task(id string) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.records[id]
	return task, ok
}

// ListAll returns snapshots of every task in creation order
func (r *Registry) ListAll() []models.TaskProgress {
	r.mu.RLock()
	tasks := make([]*Task, 0, len(r.order))
	for _, id := range r.order {
		tasks = append(tasks, r.records[id])
	}
	r.mu.RUnlock()

	result := make([]models.TaskProgress, 0, len(tasks))
	for _, task := range tasks {
		result = append(result, task.Snapshot())
	}
	return result
}

// EvictOlderThan removes tasks completed more than d ago. Tasks without completed_at are kept.
func (r *Registry) EvictOlderThan(d time.Duration) int {
	cutoff := r.now().Add(-d)

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.order[:0]
	evicted := 0
	for _, id := range r.order {
		snapshot := r.records[id].Snapshot()
		if snapshot.CompletedAt != nil && snapshot.CompletedAt.Before(cutoff) {
			delete(r.records, id)
			evicted++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept

	if evicted > 0 {
		r.logger.Debug().Int("evicted", evicted).Int("remaining", len(r.order)).Msg("Evicted expired tasks")
	}
	return evicted
}

func (r *Registry) publish(snapshot models.TaskProgress) {
	if r.events == nil {
		return
	}
	if err := r.events.Publish(context.Background(), interfaces.Event{
		Type:    interfaces.EventTaskProgress,
		Payload: snapshot,
	}); err != nil {
		r.logger.Warn().Err(err).Str("task_id", snapshot.TaskID).Msg("Failed to publish task progress")
	}
}
