package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
	"github.com/ternarybob/litemark/internal/services/batch"
	"github.com/ternarybob/litemark/internal/services/bookmarks"
	"github.com/ternarybob/litemark/internal/services/enrichment"
	"github.com/ternarybob/litemark/internal/services/kv"
	"github.com/ternarybob/litemark/internal/services/llm"
	"github.com/ternarybob/litemark/internal/services/tasks"
)

// LLMStatusProvider is the LLM service plus its configuration summary
type LLMStatusProvider interface {
	interfaces.LLMService
	Status() llm.Status
}

// BatchLauncher starts a detached batch run
type BatchLauncher interface {
	Launch(task *tasks.Task, ops []interfaces.EnrichmentOperation, targetIDs []string)
}

var _ BatchLauncher = (*batch.Engine)(nil)

// AIHandler serves classification, summarization, batch and quick-add endpoints
type AIHandler struct {
	llm        LLMStatusProvider
	assistant  *bookmarks.Assistant
	operations *enrichment.Operations
	registry   *tasks.Registry
	engine     BatchLauncher
	settings   *kv.Service
	logger     arbor.ILogger
}

// NewAIHandler creates the AI handler
func NewAIHandler(
	llmStatus LLMStatusProvider,
	assistant *bookmarks.Assistant,
	operations *enrichment.Operations,
	registry *tasks.Registry,
	engine BatchLauncher,
	settings *kv.Service,
	logger arbor.ILogger,
) *AIHandler {
	return &AIHandler{
		llm:        llmStatus,
		assistant:  assistant,
		operations: operations,
		registry:   registry,
		engine:     engine,
		settings:   settings,
		logger:     logger,
	}
}

// ClassifyRequest names a stored bookmark or describes an unsaved page
type ClassifyRequest struct {
	BookmarkID  string `json:"bookmark_id"`
	URL         string `json:"url" validate:"omitempty,url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SummarizeRequest names a stored bookmark or an unsaved page
type SummarizeRequest struct {
	BookmarkID string `json:"bookmark_id"`
	URL        string `json:"url" validate:"omitempty,url"`
}

// BatchRequest starts a batch run; no ids means every unprocessed bookmark
type BatchRequest struct {
	BookmarkIDs []string `json:"bookmark_ids"`
	Operations  []string `json:"operations" validate:"required,min=1"`
}

// QuickAddRequest carries the url plus whichever fields the caller already knows
type QuickAddRequest struct {
	URL      string `json:"url" validate:"required,url"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// requireConfigured writes 503 and returns false when no AI provider is usable
func (h *AIHandler) requireConfigured(w http.ResponseWriter) bool {
	if !h.llm.IsConfigured() {
		WriteError(w, http.StatusServiceUnavailable, "AI is not configured. Set an API key in the AI settings.")
		return false
	}
	return true
}

// StatusHandler handles GET /api/ai/status
func (h *AIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, h.llm.Status())
}

// ClassifyHandler handles POST /api/ai/classify
func (h *AIHandler) ClassifyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	if !h.requireConfigured(w) {
		return
	}

	var req ClassifyRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err, "Invalid request")
		return
	}

	var (
		outcome *bookmarks.ClassifyOutcome
		err     error
	)
	switch {
	case req.BookmarkID != "":
		outcome, err = h.assistant.ClassifyBookmark(r.Context(), req.BookmarkID)
	case req.URL != "":
		outcome, err = h.assistant.ClassifyURL(r.Context(), req.URL, req.Title, req.Description)
	default:
		WriteError(w, http.StatusBadRequest, "Provide bookmark_id or url")
		return
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("bookmark_id", req.BookmarkID).Str("url", req.URL).Msg("Classification failed")
		WriteServiceError(w, err, "Classification failed")
		return
	}

	WriteJSON(w, http.StatusOK, outcome)
}

// SummarizeHandler handles POST /api/ai/summarize. A bookmark id stores the result on the bookmark.
func (h *AIHandler) SummarizeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	if !h.requireConfigured(w) {
		return
	}

	var req SummarizeRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err, "Invalid request")
		return
	}

	var (
		result *models.SummarizeResult
		err    error
	)
	switch {
	case req.BookmarkID != "":
		result, err = h.assistant.SummarizeBookmark(r.Context(), req.BookmarkID)
	case req.URL != "":
		result, err = h.assistant.SummarizeURL(r.Context(), req.URL)
	default:
		WriteError(w, http.StatusBadRequest, "Provide bookmark_id or url")
		return
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("bookmark_id", req.BookmarkID).Str("url", req.URL).Msg("Summarization failed")
		WriteServiceError(w, err, "Summarization failed")
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// BatchHandler handles POST /api/ai/batch. The run is detached; the response carries the task id.
func (h *AIHandler) BatchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	if !h.requireConfigured(w) {
		return
	}

	var req BatchRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err, "Invalid request")
		return
	}

	ops, label, err := h.operations.Resolve(req.Operations)
	if err != nil {
		WriteServiceError(w, err, "Invalid operations")
		return
	}

	task, err := h.registry.Create(label)
	if err != nil {
		WriteServiceError(w, err, "Failed to create task")
		return
	}

	h.engine.Launch(task, ops, req.BookmarkIDs)

	snapshot := task.Snapshot()
	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"task_id": snapshot.TaskID,
		"message": "Task created and running in the background",
		"status":  snapshot.Status,
	})
}

// TaskHandler handles GET /api/ai/task/{id}
func (h *AIHandler) TaskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := PathParam(r, "/api/ai/task/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing task id")
		return
	}

	progress, ok := h.registry.Get(id)
	if !ok {
		WriteError(w, http.StatusNotFound, "Task not found")
		return
	}

	WriteJSON(w, http.StatusOK, progress.View())
}

// TasksHandler handles GET /api/ai/tasks
func (h *AIHandler) TasksHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	all := h.registry.ListAll()
	views := make([]models.TaskProgressView, 0, len(all))
	for _, progress := range all {
		views = append(views, progress.View())
	}

	WriteJSON(w, http.StatusOK, views)
}

// FetchPageInfoHandler handles POST /api/ai/fetch-page-info. No AI is involved.
func (h *AIHandler) FetchPageInfoHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req SummarizeRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err, "Invalid request")
		return
	}
	if req.URL == "" {
		WriteError(w, http.StatusBadRequest, "Provide url")
		return
	}

	page, err := h.assistant.FetchPageInfo(r.Context(), req.URL)
	if err != nil {
		WriteServiceError(w, err, "Failed to fetch page")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"title":       page.Title,
		"description": page.Description,
		"favicon":     page.Favicon,
	})
}

// QuickAddHandler handles the three quick-add variants:
// /api/ai/quick-add (url), /api/ai/quick-add-with-title (url, title)
// and /api/ai/quick-add-with-category (url, title, category).
func (h *AIHandler) QuickAddHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	if !h.requireConfigured(w) {
		return
	}

	var req QuickAddRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err, "Invalid request")
		return
	}

	var (
		result *bookmarks.QuickAddResult
		err    error
	)
	switch {
	case strings.HasSuffix(r.URL.Path, "/quick-add-with-category"):
		if req.Title == "" || strings.TrimSpace(req.Category) == "" {
			WriteError(w, http.StatusBadRequest, "Provide url, title and category")
			return
		}
		result, err = h.assistant.QuickAddWithCategory(r.Context(), req.URL, req.Title, req.Category)
	case strings.HasSuffix(r.URL.Path, "/quick-add-with-title"):
		if req.Title == "" {
			WriteError(w, http.StatusBadRequest, "Provide url and title")
			return
		}
		result, err = h.assistant.QuickAddWithTitle(r.Context(), req.URL, req.Title)
	default:
		result, err = h.assistant.QuickAdd(r.Context(), req.URL)
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("url", req.URL).Msg("Quick-add failed")
		WriteServiceError(w, err, "Quick-add failed")
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// AISettingsHandler handles GET and PUT /api/settings/ai. The API key is always returned masked.
func (h *AIHandler) AISettingsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		settings, err := h.settings.AISettings(r.Context())
		if err != nil {
			WriteServiceError(w, err, "Failed to load AI settings")
			return
		}
		WriteJSON(w, http.StatusOK, settings.Masked())

	case "PUT":
		var req kv.AISettingsUpdate
		if err := DecodeJSON(r, &req); err != nil {
			WriteServiceError(w, err, "Invalid request")
			return
		}
		settings, err := h.settings.SaveAISettings(r.Context(), req)
		if err != nil {
			WriteServiceError(w, err, "Failed to save AI settings")
			return
		}
		WriteJSON(w, http.StatusOK, settings.Masked())

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// TestAISettingsHandler handles POST /api/settings/ai/test with one small completion
func (h *AIHandler) TestAISettingsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	if !h.requireConfigured(w) {
		return
	}

	reply, err := h.llm.CompleteJSON(r.Context(), `Reply with {"ok": true}`, "")
	if err != nil {
		h.logger.Warn().Err(err).Msg("AI connection test failed")
		WriteJSON(w, http.StatusOK, map[string]interface{}{"success": false, "message": err.Error()})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "reply": reply})
}
