package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
	"github.com/ternarybob/litemark/internal/services/bookmarks"
	"github.com/ternarybob/litemark/internal/services/enrichment"
	"github.com/ternarybob/litemark/internal/services/inbox"
	"github.com/ternarybob/litemark/internal/services/llm"
	"github.com/ternarybob/litemark/internal/services/ordering"
	"github.com/ternarybob/litemark/internal/services/tasks"
	"github.com/ternarybob/litemark/internal/storage/badger"
)

func newBookmarkHandler(t *testing.T) *BookmarkHandler {
	t.Helper()
	logger := arbor.NewLogger()

	manager, err := badger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	order := ordering.NewService(manager.BookmarkStorage(), manager.CategoryOrderStorage(), logger)
	return NewBookmarkHandler(bookmarks.NewService(manager.BookmarkStorage(), order, logger), order, logger)
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestBookmarkHandler_CRUD(t *testing.T) {
	h := newBookmarkHandler(t)

	rec := doJSON(t, h.CreateHandler, "POST", "/api/bookmarks", map[string]interface{}{
		"title": "Go", "url": "https://go.dev", "category": "dev",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Bookmark
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 0, created.Order)

	rec = doJSON(t, h.GetHandler, "GET", "/api/bookmarks/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h.UpdateHandler, "PUT", "/api/bookmarks/"+created.ID, map[string]interface{}{"title": "Go!"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Go!"`)

	rec = doJSON(t, h.DeleteHandler, "DELETE", "/api/bookmarks/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h.DeleteHandler, "DELETE", "/api/bookmarks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h.GetHandler, "GET", "/api/bookmarks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookmarkHandler_CreateValidation(t *testing.T) {
	h := newBookmarkHandler(t)

	rec := doJSON(t, h.CreateHandler, "POST", "/api/bookmarks", map[string]interface{}{"title": "no url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h.CreateHandler, "GET", "/api/bookmarks", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestBookmarkHandler_ReorderLegacyField(t *testing.T) {
	h := newBookmarkHandler(t)

	ids := make([]string, 0, 3)
	for _, title := range []string{"A", "B", "C"} {
		rec := doJSON(t, h.CreateHandler, "POST", "/api/bookmarks", map[string]interface{}{
			"title": title, "url": "https://example.com/" + title, "category": "dev",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		var b models.Bookmark
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
		ids = append(ids, b.ID)
	}

	rec := doJSON(t, h.ReorderHandler, "POST", "/api/bookmarks/reorder", map[string]interface{}{
		"category": "dev",
		"order":    []string{ids[2], ids[0], ids[1]},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h.ListHandler, "GET", "/api/bookmarks", nil)
	var list []models.Bookmark
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{list[0].Title, list[1].Title, list[2].Title})
}

func TestBookmarkHandler_Categories(t *testing.T) {
	h := newBookmarkHandler(t)

	rec := doJSON(t, h.CategoriesHandler, "POST", "/api/bookmarks/categories", map[string]string{"category": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h.CategoriesHandler, "POST", "/api/bookmarks/categories", map[string]string{"category": "a/b"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, h.CategoriesHandler, "POST", "/api/bookmarks/categories", map[string]string{"category": "news"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h.ReorderCategoriesHandler, "POST", "/api/bookmarks/reorder-categories", map[string][]string{"categories": {"news", "a/b"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h.CategoriesHandler, "GET", "/api/bookmarks/categories", nil)
	assert.JSONEq(t, `{"categories":["news","a/b"]}`, rec.Body.String())

	rec = doJSON(t, h.DeleteCategoryHandler, "DELETE", "/api/bookmarks/categories/a%2Fb", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, h.DeleteCategoryHandler, "DELETE", "/api/bookmarks/categories/a%2Fb", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeLLM struct {
	configured bool
}

func (f *fakeLLM) CompleteJSON(ctx context.Context, prompt string, systemPrompt string) (map[string]interface{}, error) {
	return map[string]interface{}{"ok": true}, nil
}

func (f *fakeLLM) IsConfigured() bool { return f.configured }

func (f *fakeLLM) Status() llm.Status { return llm.Status{Configured: f.configured} }

type fakeOperation struct {
	name string
}

func (o fakeOperation) Name() string                       { return o.name }
func (o fakeOperation) Unprocessed() models.BookmarkFilter { return models.BookmarkFilter{} }
func (o fakeOperation) Enrich(ctx context.Context, item *models.Bookmark, existing []string) error {
	return nil
}

type recordingLauncher struct {
	mu    sync.Mutex
	ops   []string
	ids   []string
	tasks []*tasks.Task
}

func (l *recordingLauncher) Launch(task *tasks.Task, ops []interfaces.EnrichmentOperation, targetIDs []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, op := range ops {
		l.ops = append(l.ops, op.Name())
	}
	l.ids = targetIDs
	l.tasks = append(l.tasks, task)
	task.Start()
	task.AddTotal(1)
	task.RecordSuccess()
	task.Complete()
}

func newAIHandler(t *testing.T, configured bool) (*AIHandler, *recordingLauncher) {
	t.Helper()
	logger := arbor.NewLogger()
	registry := tasks.NewRegistry(nil, logger, 0)
	require.NoError(t, registry.Init())

	launcher := &recordingLauncher{}
	ops := enrichment.NewOperations(fakeOperation{"summarize"}, fakeOperation{"classify"})
	return NewAIHandler(&fakeLLM{configured: configured}, nil, ops, registry, launcher, nil, logger), launcher
}

func TestAIHandler_BatchLaunchesAndTaskIsQueryable(t *testing.T) {
	h, launcher := newAIHandler(t, true)

	rec := doJSON(t, h.BatchHandler, "POST", "/api/ai/batch", map[string]interface{}{
		"operations":   []string{"summarize", "classify"},
		"bookmark_ids": []string{"x"},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	taskID := resp["task_id"].(string)
	assert.Len(t, taskID, 8)
	assert.Equal(t, []string{"summarize", "classify"}, launcher.ops)
	assert.Equal(t, []string{"x"}, launcher.ids)

	rec = doJSON(t, h.TaskHandler, "GET", "/api/ai/task/"+taskID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view models.TaskProgressView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "summarize+classify", view.Operation)
	assert.Equal(t, models.TaskStatusCompleted, view.Status)
	assert.Equal(t, 100.0, view.ProgressPercent)

	rec = doJSON(t, h.TasksHandler, "GET", "/api/ai/tasks", nil)
	assert.Contains(t, rec.Body.String(), taskID)

	rec = doJSON(t, h.TaskHandler, "GET", "/api/ai/task/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAIHandler_BatchRejectsUnknownOperation(t *testing.T) {
	h, launcher := newAIHandler(t, true)

	rec := doJSON(t, h.BatchHandler, "POST", "/api/ai/batch", map[string]interface{}{"operations": []string{"translate"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h.BatchHandler, "POST", "/api/ai/batch", map[string]interface{}{"operations": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, launcher.tasks)
}

func TestAIHandler_NotConfigured(t *testing.T) {
	h, launcher := newAIHandler(t, false)

	rec := doJSON(t, h.BatchHandler, "POST", "/api/ai/batch", map[string]interface{}{"operations": []string{"summarize"}})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, launcher.tasks)

	rec = doJSON(t, h.StatusHandler, "GET", "/api/ai/status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"openai_configured":false`)
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusForError(interfaces.ErrNotFound))
	assert.Equal(t, http.StatusServiceUnavailable, StatusForError(llm.ErrNotConfigured))
	assert.Equal(t, http.StatusBadRequest, StatusForError(common.ErrInvalidBackupTime))
	assert.Equal(t, http.StatusBadRequest, StatusForError(ordering.ErrInvalidCategory))
	assert.Equal(t, http.StatusBadRequest, StatusForError(inbox.ErrNotConfigured))
	assert.Equal(t, http.StatusConflict, StatusForError(inbox.ErrCheckInProgress))
	assert.Equal(t, http.StatusInternalServerError, StatusForError(assert.AnError))
}
