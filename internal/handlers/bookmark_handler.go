package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/services/bookmarks"
	"github.com/ternarybob/litemark/internal/services/ordering"
)

// BookmarkHandler serves bookmark CRUD, import and ordering endpoints
type BookmarkHandler struct {
	bookmarks *bookmarks.Service
	ordering  *ordering.Service
	logger    arbor.ILogger
}

// NewBookmarkHandler creates a bookmark handler
func NewBookmarkHandler(bookmarkService *bookmarks.Service, orderingService *ordering.Service, logger arbor.ILogger) *BookmarkHandler {
	return &BookmarkHandler{
		bookmarks: bookmarkService,
		ordering:  orderingService,
		logger:    logger,
	}
}

// ImportRequest is the body of POST /api/bookmarks/import
type ImportRequest struct {
	Bookmarks []bookmarks.ImportItem `json:"bookmarks" validate:"required,dive"`
}

// ReorderRequest accepts bookmark_ids, or order from older clients
type ReorderRequest struct {
	Category    string   `json:"category"`
	BookmarkIDs []string `json:"bookmark_ids"`
	Order       []string `json:"order"`
}

// IDs returns the requested id order
func (r ReorderRequest) IDs() []string {
	if len(r.BookmarkIDs) > 0 {
		return r.BookmarkIDs
	}
	return r.Order
}

// CategoryReorderRequest accepts categories, or order from older clients
type CategoryReorderRequest struct {
	Categories []string `json:"categories"`
	Order      []string `json:"order"`
}

// List returns the requested category order
func (r CategoryReorderRequest) List() []string {
	if len(r.Categories) > 0 {
		return r.Categories
	}
	return r.Order
}

// CreateCategoryRequest is the body of POST /api/bookmarks/categories
type CreateCategoryRequest struct {
	Category string `json:"category"`
}

// ListHandler handles GET /api/bookmarks
func (h *BookmarkHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	list, err := h.bookmarks.List(r.Context(), QueryBool(r, "include_hidden"))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list bookmarks")
		WriteServiceError(w, err, "Failed to list bookmarks")
		return
	}

	WriteJSON(w, http.StatusOK, list)
}

// CreateHandler handles POST /api/bookmarks
func (h *BookmarkHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req bookmarks.CreateRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err, "Invalid request")
		return
	}

	bookmark, err := h.bookmarks.Create(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Str("url", req.URL).Msg("Failed to create bookmark")
		WriteServiceError(w, err, "Failed to create bookmark")
		return
	}

	WriteJSON(w, http.StatusCreated, bookmark)
}

// GetHandler handles GET /api/bookmarks/{id}
func (h *BookmarkHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id := PathParam(r, "/api/bookmarks/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing bookmark id")
		return
	}

	bookmark, err := h.bookmarks.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err, "Failed to get bookmark")
		return
	}

	WriteJSON(w, http.StatusOK, bookmark)
}

// UpdateHandler handles PUT /api/bookmarks/{id}
func (h *BookmarkHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id := PathParam(r, "/api/bookmarks/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing bookmark id")
		return
	}

	var req bookmarks.UpdateRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err, "Invalid request")
		return
	}

	bookmark, err := h.bookmarks.Update(r.Context(), id, req)
	if err != nil {
		WriteServiceError(w, err, "Failed to update bookmark")
		return
	}

	WriteJSON(w, http.StatusOK, bookmark)
}

// DeleteHandler handles DELETE /api/bookmarks/{id}
func (h *BookmarkHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id := PathParam(r, "/api/bookmarks/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing bookmark id")
		return
	}

	deleted, err := h.bookmarks.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to delete bookmark")
		WriteServiceError(w, err, "Failed to delete bookmark")
		return
	}
	if !deleted {
		WriteError(w, http.StatusNotFound, "Bookmark not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ImportHandler handles POST /api/bookmarks/import
func (h *BookmarkHandler) ImportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req ImportRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err, "Invalid request")
		return
	}

	count, err := h.bookmarks.Import(r.Context(), req.Bookmarks)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to import bookmarks")
		WriteServiceError(w, err, "Failed to import bookmarks")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]int{"imported": count})
}

// ReorderHandler handles POST /api/bookmarks/reorder
func (h *BookmarkHandler) ReorderHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req ReorderRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err, "Invalid request")
		return
	}

	updated, err := h.ordering.ReorderItems(r.Context(), req.Category, req.IDs())
	if err != nil {
		h.logger.Error().Err(err).Str("category", req.Category).Msg("Failed to reorder bookmarks")
		WriteServiceError(w, err, "Failed to reorder bookmarks")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "updated": updated})
}

// ReorderCategoriesHandler handles POST /api/bookmarks/reorder-categories
func (h *BookmarkHandler) ReorderCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req CategoryReorderRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err, "Invalid request")
		return
	}

	if err := h.ordering.ReorderCategories(r.Context(), req.List()); err != nil {
		h.logger.Error().Err(err).Msg("Failed to reorder categories")
		WriteServiceError(w, err, "Failed to reorder categories")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// CategoriesHandler handles GET and POST /api/bookmarks/categories
func (h *BookmarkHandler) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		categories, err := h.bookmarks.Categories(r.Context())
		if err != nil {
			WriteServiceError(w, err, "Failed to list categories")
			return
		}
		WriteJSON(w, http.StatusOK, map[string][]string{"categories": categories})

	case "POST":
		var req CreateCategoryRequest
		if err := DecodeJSON(r, &req); err != nil {
			WriteServiceError(w, err, "Invalid request")
			return
		}
		row, err := h.ordering.CreateCategory(r.Context(), req.Category)
		if err != nil {
			WriteServiceError(w, err, "Failed to create category")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"category": row.Category,
			"order":    row.Order,
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// DeleteCategoryHandler handles DELETE /api/bookmarks/categories/{name}
func (h *BookmarkHandler) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	name := PathParam(r, "/api/bookmarks/categories/")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "Missing category name")
		return
	}

	deleted, err := h.ordering.DeleteCategory(r.Context(), name)
	if err != nil {
		WriteServiceError(w, err, "Failed to delete category")
		return
	}
	if !deleted {
		WriteError(w, http.StatusNotFound, "Category not found")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
