package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
	"github.com/ternarybob/litemark/internal/services/events"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRegistry(t *testing.T, eventService interfaces.EventService) (*Registry, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := NewRegistry(eventService, arbor.NewLogger(), time.Hour)
	r.now = clock.Now
	require.NoError(t, r.Init())
	return r, clock
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	task, err := r.Create("summarize+classify")
	require.NoError(t, err)
	assert.Len(t, task.ID(), 8)

	got, ok := r.Get(task.ID())
	require.True(t, ok)
	assert.Equal(t, models.TaskStatusPending, got.Status)
	assert.Equal(t, "summarize+classify", got.Operation)
	assert.Nil(t, got.StartedAt)
	assert.Empty(t, got.Errors)

	_, ok = r.Get("nope")
	assert.False(t, ok)
}

func TestTask_Lifecycle(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	task, err := r.Create("classify")
	require.NoError(t, err)

	task.Start()
	task.AddTotal(3)
	task.RecordSuccess()
	task.RecordFailure("Example: boom")
	task.RecordSuccess()

	snap := task.Snapshot()
	assert.Equal(t, models.TaskStatusRunning, snap.Status)
	require.NotNil(t, snap.StartedAt)
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 2, snap.Processed)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, []string{"Example: boom"}, snap.Errors)
	assert.Equal(t, 66.7, snap.ProgressPercent())

	task.Complete()
	task.Fail(errors.New("late"))
	task.RecordSuccess()

	snap = task.Snapshot()
	assert.Equal(t, models.TaskStatusCompleted, snap.Status)
	assert.NotNil(t, snap.CompletedAt)
	assert.Equal(t, 2, snap.Processed)
	assert.Len(t, snap.Errors, 1)
}

func TestTask_StatusNeverMovesBackward(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	task, err := r.Create("summarize")
	require.NoError(t, err)

	task.Fail(errors.New("query failed"))
	task.Start()
	task.Complete()

	snap := task.Snapshot()
	assert.Equal(t, models.TaskStatusFailed, snap.Status)
	assert.NotNil(t, snap.StartedAt)
	assert.Equal(t, []string{"query failed"}, snap.Errors)
}

func TestTask_CountsNeverExceedTotal(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	task, err := r.Create("summarize")
	require.NoError(t, err)

	task.Start()
	task.AddTotal(1)
	task.RecordSuccess()
	task.RecordSuccess()

	snap := task.Snapshot()
	assert.LessOrEqual(t, snap.Processed+snap.Failed, snap.Total)
}

func TestTask_SnapshotIsolation(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	task, err := r.Create("summarize")
	require.NoError(t, err)
	task.Start()
	task.AddTotal(1)
	task.RecordFailure("a")

	snap := task.Snapshot()
	snap.Errors[0] = "changed"
	*snap.StartedAt = time.Time{}

	fresh := task.Snapshot()
	assert.Equal(t, "a", fresh.Errors[0])
	assert.False(t, fresh.StartedAt.IsZero())
}

func TestRegistry_EvictionOnCreate(t *testing.T) {
	r, clock := newTestRegistry(t, nil)

	done, err := r.Create("summarize")
	require.NoError(t, err)
	done.Start()
	done.Complete()

	running, err := r.Create("classify")
	require.NoError(t, err)
	running.Start()

	clock.Advance(2 * time.Hour)

	_, err = r.Create("summarize")
	require.NoError(t, err)

	_, ok := r.Get(done.ID())
	assert.False(t, ok, "completed task older than retention must be evicted")
	_, ok = r.Get(running.ID())
	assert.True(t, ok, "running task must never be evicted")
	assert.Len(t, r.ListAll(), 2)
}

func TestRegistry_EvictOlderThan(t *testing.T) {
	r, clock := newTestRegistry(t, nil)

	old, _ := r.Create("a")
	old.Complete()
	clock.Advance(30 * time.Minute)
	recent, _ := r.Create("b")
	recent.Complete()
	clock.Advance(10 * time.Minute)
	pending, _ := r.Create("c")

	assert.Equal(t, 1, r.EvictOlderThan(20*time.Minute))
	_, ok := r.Get(old.ID())
	assert.False(t, ok)
	_, ok = r.Get(recent.ID())
	assert.True(t, ok)
	_, ok = r.Get(pending.ID())
	assert.True(t, ok)

	assert.Equal(t, 0, r.EvictOlderThan(time.Hour))
}

func TestRegistry_ListAllInsertionOrder(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	var ids []string
	for i := 0; i < 5; i++ {
		task, err := r.Create(fmt.Sprintf("op%d", i))
		require.NoError(t, err)
		ids = append(ids, task.ID())
	}

	all := r.ListAll()
	require.Len(t, all, 5)
	for i, snap := range all {
		assert.Equal(t, ids[i], snap.TaskID)
	}
}

func TestRegistry_ShutdownRejectsCreate(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	r.Shutdown()

	_, err := r.Create("summarize")
	assert.ErrorIs(t, err, ErrRegistryClosed)
}

func TestRegistry_PublishesProgress(t *testing.T) {
	eventService := events.NewService(arbor.NewLogger())
	r, _ := newTestRegistry(t, eventService)

	var mu sync.Mutex
	var received []models.TaskProgress
	require.NoError(t, eventService.Subscribe(interfaces.EventTaskProgress, func(ctx context.Context, event interfaces.Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event.Payload.(models.TaskProgress))
		return nil
	}))

	task, err := r.Create("summarize")
	require.NoError(t, err)
	task.Start()
	task.AddTotal(1)
	task.RecordSuccess()
	task.Complete()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 5
	}, time.Second, 10*time.Millisecond)
}

func TestRegistry_ConcurrentReadersSeeWholeRecords(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	task, err := r.Create("summarize")
	require.NoError(t, err)
	task.Start()
	task.AddTotal(1000)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if i%3 == 0 {
				task.RecordFailure("x")
			} else {
				task.RecordSuccess()
			}
		}
	}()

	for i := 0; i < 200; i++ {
		snap, ok := r.Get(task.ID())
		require.True(t, ok)
		assert.LessOrEqual(t, snap.Processed+snap.Failed, snap.Total)
		assert.Equal(t, snap.Failed, len(snap.Errors))
	}
	wg.Wait()
}
