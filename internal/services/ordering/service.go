// Package ordering keeps bookmark order dense within each category and
// maintains the global display order of categories.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
)

// ErrInvalidCategory is returned for empty or whitespace-only category names
var ErrInvalidCategory = errors.New("category name is required")

// untrackedOrder places categories without a row after every tracked one
const untrackedOrder = int(^uint(0) >> 1)

// Service serializes ordering operations so each one's writes are atomic
// with respect to the others. Writers outside this service are not coordinated.
type Service struct {
	bookmarks  interfaces.BookmarkStorage
	categories interfaces.CategoryOrderStorage
	logger     arbor.ILogger
	mu         sync.Mutex
}

// NewService creates a new ordering service
func NewService(bookmarks interfaces.BookmarkStorage, categories interfaces.CategoryOrderStorage, logger arbor.ILogger) *Service {
	return &Service{
		bookmarks:  bookmarks,
		categories: categories,
		logger:     logger,
	}
}

// NextOrder returns one more than the highest order in category, or 0 when the category is empty.
// An empty category addresses bookmarks without a category.
func (s *Service) NextOrder(ctx context.Context, category string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.nextOrderLocked(ctx, category)
}

func (s *Service) nextOrderLocked(ctx context.Context, category string) (int, error) {
	max, ok, err := s.bookmarks.MaxOrder(ctx, category)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next order: %w", err)
	}
	if !ok {
		return 0, nil
	}
	return max + 1, nil
}

// EnsureCategory creates a row for category at the end of the category order if none exists
func (s *Service) EnsureCategory(ctx context.Context, category string) (*models.CategoryOrder, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, ErrInvalidCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ensureCategoryLocked(ctx, category)
}

func (s *Service) ensureCategoryLocked(ctx context.Context, category string) (*models.CategoryOrder, error) {
	existing, err := s.categories.GetCategoryOrder(ctx, category)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	rows, err := s.categories.ListCategoryOrder(ctx)
	if err != nil {
		return nil, err
	}

	next := 0
	for _, row := range rows {
		if row.Order+1 > next {
			next = row.Order + 1
		}
	}

	row := models.CategoryOrder{Category: category, Order: next}
	if err := s.categories.SaveCategoryOrder(ctx, row); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("category", category).Int("order", next).Msg("Category created")
	return &row, nil
}

// EnsureCategories ensures each distinct non-empty category once
func (s *Service) EnsureCategories(ctx context.Context, categories []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}
		if _, err := s.ensureCategoryLocked(ctx, category); err != nil {
			return err
		}
	}
	return nil
}

// InsertBookmark gives b the next order in its category, saves it and ensures its category row.
// The three steps run under the ordering lock, so concurrent inserts never share an order.
func (s *Service) InsertBookmark(ctx context.Context, b *models.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.nextOrderLocked(ctx, b.CategoryName())
	if err != nil {
		return err
	}
	b.Order = order

	if err := s.bookmarks.SaveBookmark(ctx, b); err != nil {
		return err
	}

	if category := b.CategoryName(); category != "" {
		if _, err := s.ensureCategoryLocked(ctx, category); err != nil {
			return err
		}
	}
	return nil
}

// SavePlaced saves bookmarks in one transaction. Every entry of moved, which must also appear in
// bookmarks, first gets the next free order in its current category (numbered in slice order)
// and has its category row ensured. Placement and save share one critical section.
func (s *Service) SavePlaced(ctx context.Context, bookmarks, moved []*models.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.placeLocked(ctx, moved); err != nil {
		return err
	}

	if err := s.bookmarks.SaveBookmarks(ctx, bookmarks); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(moved))
	for _, b := range moved {
		category := b.CategoryName()
		if category == "" {
			continue
		}
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}
		if _, err := s.ensureCategoryLocked(ctx, category); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) placeLocked(ctx context.Context, moved []*models.Bookmark) error {
	next := make(map[string]int)
	for _, b := range moved {
		category := b.CategoryName()
		order, ok := next[category]
		if !ok {
			var err error
			order, err = s.nextOrderLocked(ctx, category)
			if err != nil {
				return err
			}
		}
		b.Order = order
		next[category] = order + 1
	}
	return nil
}

// CreateCategory validates name and ensures it exists
func (s *Service) CreateCategory(ctx context.Context, name string) (*models.CategoryOrder, error) {
	return s.EnsureCategory(ctx, name)
}

// ReorderItems sets each listed bookmark's order to its index in orderedIDs.
// Unknown ids are skipped. Bookmarks from other categories are reordered as listed.
// Returns the number of bookmarks updated.
func (s *Service) ReorderItems(ctx context.Context, category string, orderedIDs []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(orderedIDs) == 0 {
		return 0, nil
	}

	found, err := s.bookmarks.ListBookmarks(ctx, models.BookmarkFilter{IDs: orderedIDs})
	if err != nil {
		return 0, fmt.Errorf("failed to load bookmarks for reorder: %w", err)
	}

	byID := make(map[string]*models.Bookmark, len(found))
	for _, b := range found {
		byID[b.ID] = b
	}

	updated := make([]*models.Bookmark, 0, len(found))
	crossCategory := 0
	for index, id := range orderedIDs {
		b, ok := byID[id]
		if !ok {
			continue
		}
		if category != "" && b.CategoryName() != category {
			crossCategory++
		}
		if b.Order == index {
			continue
		}
		b.Order = index
		updated = append(updated, b)
	}

	if err := s.bookmarks.SaveBookmarks(ctx, updated); err != nil {
		return 0, err
	}

	s.logger.Debug().
		Str("category", category).
		Int("requested", len(orderedIDs)).
		Int("updated", len(updated)).
		Int("cross_category", crossCategory).
		Msg("Bookmarks reordered")

	return len(updated), nil
}

// ReorderCategories sets each category's order to its index; unknown categories are created
func (s *Service) ReorderCategories(ctx context.Context, orderedCategories []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for index, category := range orderedCategories {
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}
		if err := s.categories.SaveCategoryOrder(ctx, models.CategoryOrder{Category: category, Order: index}); err != nil {
			return fmt.Errorf("failed to reorder category %q: %w", category, err)
		}
	}

	s.logger.Debug().Int("count", len(orderedCategories)).Msg("Categories reordered")
	return nil
}

// DeleteCategory removes the category row only. Bookmarks keep their category value.
func (s *Service) DeleteCategory(ctx context.Context, category string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.categories.DeleteCategoryOrder(ctx, category)
}

// CategoryOrder returns the tracked order of every category
func (s *Service) CategoryOrder(ctx context.Context) (map[string]int, error) {
	rows, err := s.categories.ListCategoryOrder(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(rows))
	for _, row := range rows {
		index[row.Category] = row.Order
	}
	return index, nil
}

// Categories returns every tracked or in-use category in effective display order
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	index, err := s.CategoryOrder(ctx)
	if err != nil {
		return nil, err
	}

	inUse, err := s.bookmarks.DistinctCategories(ctx)
	if err != nil {
		return nil, err
	}

	all := make([]string, 0, len(index)+len(inUse))
	seen := make(map[string]struct{}, cap(all))
	for category := range index {
		seen[category] = struct{}{}
		all = append(all, category)
	}
	for _, category := range inUse {
		if _, ok := seen[category]; !ok {
			all = append(all, category)
		}
	}
	sort.Strings(all)

	return ListEffectiveCategoryOrder(all, index), nil
}

// ListEffectiveCategoryOrder stable-sorts categories by orderIndex; untracked categories go last
// in their input order.
func ListEffectiveCategoryOrder(categories []string, orderIndex map[string]int) []string {
	result := make([]string, len(categories))
	copy(result, categories)

	sort.SliceStable(result, func(i, j int) bool {
		return EffectiveOrder(orderIndex, result[i]) < EffectiveOrder(orderIndex, result[j])
	})
	return result
}

// EffectiveOrder returns the tracked order of category, or a value past every tracked one
func EffectiveOrder(orderIndex map[string]int, category string) int {
	if order, ok := orderIndex[category]; ok {
		return order
	}
	return untrackedOrder
}

// SortBookmarks orders bookmarks by (effective category order, item order), stable
func SortBookmarks(bookmarks []*models.Bookmark, orderIndex map[string]int) {
	sort.SliceStable(bookmarks, func(i, j int) bool {
		ci := EffectiveOrder(orderIndex, bookmarks[i].CategoryName())
		cj := EffectiveOrder(orderIndex, bookmarks[j].CategoryName())
		if ci != cj {
			return ci < cj
		}
		if ni, nj := bookmarks[i].CategoryName(), bookmarks[j].CategoryName(); ni != nj {
			return ni < nj
		}
		return bookmarks[i].Order < bookmarks[j].Order
	})
}
