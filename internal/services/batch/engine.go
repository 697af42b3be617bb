// Package batch runs enrichment operations over sets of bookmarks and
// records progress on a task.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
	"github.com/ternarybob/litemark/internal/services/tasks"
)

const (
	errorTitleChars   = 20
	errorMessageChars = 50
)

// ErrEngineStopped fails tasks launched after Shutdown
var ErrEngineStopped = errors.New("batch engine is shut down")

// CategoryPlacer saves a pass, appending items that changed category to their new category
type CategoryPlacer interface {
	SavePlaced(ctx context.Context, bookmarks, moved []*models.Bookmark) error
}

// Engine runs enrichment passes and commits each pass in one transaction
type Engine struct {
	bookmarks  interfaces.BookmarkStorage
	placer     CategoryPlacer
	runTimeout time.Duration
	logger     arbor.ILogger

	// base is cancelled by Shutdown; every launched run derives from it
	base    context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	stopped bool
	running sync.WaitGroup
}

// NewEngine creates a batch engine. placer may be nil.
func NewEngine(bookmarks interfaces.BookmarkStorage, placer CategoryPlacer, runTimeout time.Duration, logger arbor.ILogger) *Engine {
	if runTimeout <= 0 {
		runTimeout = 2 * time.Hour
	}
	base, cancel := context.WithCancel(context.Background())
	return &Engine{
		bookmarks:  bookmarks,
		placer:     placer,
		runTimeout: runTimeout,
		logger:     logger,
		base:       base,
		cancel:     cancel,
	}
}

// Launch runs the batch in its own goroutine bounded by the run timeout. It returns immediately.
// After Shutdown the task fails with ErrEngineStopped instead.
func (e *Engine) Launch(task *tasks.Task, ops []interfaces.EnrichmentOperation, targetIDs []string) {
	ids := append([]string(nil), targetIDs...)

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		task.Fail(ErrEngineStopped)
		return
	}
	e.running.Add(1)
	e.mu.Unlock()

	common.SafeGo(e.logger, "batch:"+task.ID(), func() {
		defer e.running.Done()

		ctx, cancel := context.WithTimeout(e.base, e.runTimeout)
		defer cancel()

		if err := e.Run(ctx, task, ops, ids); err != nil {
			e.logger.Warn().Err(err).Str("task_id", task.ID()).Msg("Batch run failed")
		}
	})
}

// Shutdown cancels launched runs and waits for them to commit what they finished
func (e *Engine) Shutdown() {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()

	e.cancel()
	e.running.Wait()
}

// Run executes each operation as a full pass. Item failures are recorded and never abort the run;
// any other error fails the task. Passes already committed stay committed.
func (e *Engine) Run(ctx context.Context, task *tasks.Task, ops []interfaces.EnrichmentOperation, targetIDs []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("batch panic: %v", r)
			task.Fail(err)
		}
	}()

	e.logger.Info().
		Str("task_id", task.ID()).
		Int("operations", len(ops)).
		Int("target_ids", len(targetIDs)).
		Msg("Batch run started")

	task.Start()

	for _, op := range ops {
		if err := e.runPass(ctx, task, op, targetIDs); err != nil {
			task.Fail(err)
			return err
		}
	}

	task.Complete()
	return nil
}

func (e *Engine) runPass(ctx context.Context, task *tasks.Task, op interfaces.EnrichmentOperation, targetIDs []string) error {
	items, err := e.workingSet(ctx, op, targetIDs)
	if err != nil {
		return fmt.Errorf("failed to select bookmarks for %s: %w", op.Name(), err)
	}
	task.AddTotal(len(items))

	existing, err := e.bookmarks.DistinctCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}

	mutated := make([]*models.Bookmark, 0, len(items))
	var moved []*models.Bookmark

	var interrupted error
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			interrupted = fmt.Errorf("%s interrupted: %w", op.Name(), err)
			break
		}

		work := item.Clone()
		if err := op.Enrich(ctx, work, existing); err != nil {
			task.RecordFailure(FormatItemError(item.Title, err))
			e.logger.Debug().
				Err(err).
				Str("task_id", task.ID()).
				Str("bookmark_id", item.ID).
				Str("operation", op.Name()).
				Msg("Bookmark enrichment failed")
			continue
		}

		if work.CategoryName() != item.CategoryName() {
			moved = append(moved, work)
		}
		mutated = append(mutated, work)
		task.RecordSuccess()
	}

	// Finished items are saved even when the run was cut short
	if err := e.commit(context.WithoutCancel(ctx), mutated, moved); err != nil {
		return fmt.Errorf("failed to save %s results: %w", op.Name(), err)
	}
	if interrupted != nil {
		return interrupted
	}

	e.logger.Info().
		Str("task_id", task.ID()).
		Str("operation", op.Name()).
		Int("selected", len(items)).
		Int("saved", len(mutated)).
		Msg("Batch pass committed")

	return nil
}

// workingSet returns the explicitly targeted bookmarks that exist, or the operation's unprocessed set
func (e *Engine) workingSet(ctx context.Context, op interfaces.EnrichmentOperation, targetIDs []string) ([]*models.Bookmark, error) {
	if len(targetIDs) > 0 {
		return e.bookmarks.ListBookmarks(ctx, models.BookmarkFilter{IDs: targetIDs})
	}
	return e.bookmarks.ListBookmarks(ctx, op.Unprocessed())
}

func (e *Engine) commit(ctx context.Context, mutated, moved []*models.Bookmark) error {
	if len(mutated) == 0 {
		return nil
	}
	if e.placer == nil {
		return e.bookmarks.SaveBookmarks(ctx, mutated)
	}
	return e.placer.SavePlaced(ctx, mutated, moved)
}

// FormatItemError renders a per-item failure as "<title>: <error>" with both parts truncated
func FormatItemError(title string, err error) string {
	return fmt.Sprintf("%s: %s", common.Truncate(title, errorTitleChars), common.Truncate(err.Error(), errorMessageChars))
}
