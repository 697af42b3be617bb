// Package bookmarks implements bookmark CRUD, bulk import and the AI-assisted quick-add flows.
package bookmarks

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
	"github.com/ternarybob/litemark/internal/services/ordering"
)

// Service manages bookmarks and keeps their order and category rows consistent
type Service struct {
	storage  interfaces.BookmarkStorage
	ordering *ordering.Service
	logger   arbor.ILogger
}

// NewService creates a new bookmark service
func NewService(storage interfaces.BookmarkStorage, ordering *ordering.Service, logger arbor.ILogger) *Service {
	return &Service{
		storage:  storage,
		ordering: ordering,
		logger:   logger,
	}
}

// List returns bookmarks sorted by effective category order, then item order
func (s *Service) List(ctx context.Context, includeHidden bool) ([]*models.Bookmark, error) {
	bookmarks, err := s.storage.ListBookmarks(ctx, models.BookmarkFilter{VisibleOnly: !includeHidden})
	if err != nil {
		return nil, err
	}

	index, err := s.ordering.CategoryOrder(ctx)
	if err != nil {
		return nil, err
	}

	ordering.SortBookmarks(bookmarks, index)
	return bookmarks, nil
}

// Get returns one bookmark or an error wrapping interfaces.ErrNotFound
func (s *Service) Get(ctx context.Context, id string) (*models.Bookmark, error) {
	return s.storage.GetBookmark(ctx, id)
}

// Create stores a new bookmark at the end of its category
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Bookmark, error) {
	bookmark := &models.Bookmark{
		ID:          common.NewBookmarkID(),
		Title:       strings.TrimSpace(req.Title),
		URL:         strings.TrimSpace(req.URL),
		Category:    nonEmpty(req.Category),
		Description: req.Description,
		Tags:        req.Tags,
		Visible:     req.Visible == nil || *req.Visible,
	}
	if err := s.ordering.InsertBookmark(ctx, bookmark); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("id", bookmark.ID).
		Str("category", bookmark.CategoryName()).
		Int("order", bookmark.Order).
		Msg("Bookmark created")

	return bookmark, nil
}

// Update applies the non-nil fields of req. A bookmark moved to another category without an
// explicit order goes to the end of its new category.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*models.Bookmark, error) {
	bookmark, err := s.storage.GetBookmark(ctx, id)
	if err != nil {
		return nil, err
	}
	previousCategory := bookmark.CategoryName()

	if req.Title != nil {
		bookmark.Title = strings.TrimSpace(*req.Title)
	}
	if req.URL != nil {
		bookmark.URL = strings.TrimSpace(*req.URL)
	}
	if req.Category != nil {
		bookmark.Category = nonEmpty(req.Category)
	}
	if req.Description != nil {
		bookmark.Description = req.Description
	}
	if req.Tags != nil {
		bookmark.Tags = *req.Tags
	}
	if req.Visible != nil {
		bookmark.Visible = *req.Visible
	}
	if req.Order != nil {
		bookmark.Order = *req.Order
	}

	var moved []*models.Bookmark
	if bookmark.CategoryName() != previousCategory && req.Order == nil {
		moved = []*models.Bookmark{bookmark}
	}
	if err := s.ordering.SavePlaced(ctx, []*models.Bookmark{bookmark}, moved); err != nil {
		return nil, err
	}

	if moved == nil && req.Category != nil && bookmark.Category != nil {
		if _, err := s.ordering.EnsureCategory(ctx, *bookmark.Category); err != nil {
			return nil, err
		}
	}

	return bookmark, nil
}

// Delete removes a bookmark. Siblings keep their order values.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	return s.storage.DeleteBookmark(ctx, id)
}

// Import stores every item as given and ensures each distinct category once
func (s *Service) Import(ctx context.Context, items []ImportItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	bookmarks := make([]*models.Bookmark, 0, len(items))
	categories := make([]string, 0)
	for i, item := range items {
		if strings.TrimSpace(item.Title) == "" || strings.TrimSpace(item.URL) == "" {
			return 0, fmt.Errorf("bookmark %d needs title and url", i)
		}

		b := &models.Bookmark{
			ID:          item.ID,
			Title:       item.Title,
			URL:         item.URL,
			Category:    nonEmpty(item.Category),
			Description: item.Description,
			Tags:        item.Tags,
			Visible:     item.Visible == nil || *item.Visible,
			Order:       item.Order,
		}
		if b.ID == "" {
			b.ID = common.NewBookmarkID()
		}
		if b.Category != nil {
			categories = append(categories, *b.Category)
		}
		bookmarks = append(bookmarks, b)
	}

	if err := s.storage.SaveBookmarks(ctx, bookmarks); err != nil {
		return 0, err
	}
	if err := s.ordering.EnsureCategories(ctx, categories); err != nil {
		return 0, err
	}

	s.logger.Info().Int("count", len(bookmarks)).Msg("Bookmarks imported")
	return len(bookmarks), nil
}

// Search returns visible bookmarks whose title, url, description or tags contain query
// (case-insensitive), in display order. limit <= 0 returns every match.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*models.Bookmark, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, fmt.Errorf("search query is empty")
	}

	all, err := s.List(ctx, false)
	if err != nil {
		return nil, err
	}

	matches := make([]*models.Bookmark, 0)
	for _, b := range all {
		if !matchesQuery(b, needle) {
			continue
		}
		matches = append(matches, b)
		if limit > 0 && len(matches) == limit {
			break
		}
	}
	return matches, nil
}

func matchesQuery(b *models.Bookmark, needle string) bool {
	fields := []string{b.Title, b.URL, b.DescriptionText()}
	fields = append(fields, b.Tags...)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// Categories returns every category in effective display order
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.ordering.Categories(ctx)
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
