package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// BookmarkStorage implements interfaces.BookmarkStorage for Badger
type BookmarkStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewBookmarkStorage creates a new BookmarkStorage instance
func NewBookmarkStorage(db *BadgerDB, logger arbor.ILogger) interfaces.BookmarkStorage {
	return &BookmarkStorage{
		db:     db,
		logger: logger,
	}
}

// buildQuery translates the indexable parts of filter into a badgerhold query.
// Nullable fields are filtered in memory: IsNil() on pointer fields panics inside reflect.
func buildQuery(filter models.BookmarkFilter) *badgerhold.Query {
	var query *badgerhold.Query

	and := func(field string) *badgerhold.Criterion {
		if query == nil {
			return badgerhold.Where(field)
		}
		return query.And(field)
	}

	if len(filter.IDs) > 0 {
		ids := make([]interface{}, len(filter.IDs))
		for i, id := range filter.IDs {
			ids[i] = id
		}
		query = and("ID").In(ids...)
	}
	if filter.VisibleOnly {
		query = and("Visible").Eq(true)
	}

	return query
}

func matchesNullable(b *models.Bookmark, filter models.BookmarkFilter) bool {
	if filter.MissingCategory && b.Category != nil {
		return false
	}
	if filter.MissingDescription && b.Description != nil {
		return false
	}
	if filter.Category != nil && (b.Category == nil || *b.Category != *filter.Category) {
		return false
	}
	return true
}

// ListBookmarks returns bookmarks matching filter ordered by (category, order, created_at)
func (s *BookmarkStorage) ListBookmarks(ctx context.Context, filter models.BookmarkFilter) ([]*models.Bookmark, error) {
	var all []models.Bookmark
	if err := s.db.Store().Find(&all, buildQuery(filter)); err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}

	result := make([]*models.Bookmark, 0, len(all))
	for i := range all {
		if matchesNullable(&all[i], filter) {
			result = append(result, &all[i])
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.CategoryName() != b.CategoryName() {
			return a.CategoryName() < b.CategoryName()
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	return result, nil
}

// GetBookmark retrieves a bookmark by id
func (s *BookmarkStorage) GetBookmark(ctx context.Context, id string) (*models.Bookmark, error) {
	var bookmark models.Bookmark
	err := s.db.Store().Get(id, &bookmark)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, fmt.Errorf("bookmark %s: %w", id, interfaces.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}
	return &bookmark, nil
}

// SaveBookmark inserts or updates a bookmark
func (s *BookmarkStorage) SaveBookmark(ctx context.Context, bookmark *models.Bookmark) error {
	if bookmark.ID == "" {
		return fmt.Errorf("bookmark id is required")
	}
	touch(bookmark)
	if err := s.db.Store().Upsert(bookmark.ID, bookmark); err != nil {
		return fmt.Errorf("failed to save bookmark: %w", err)
	}
	return nil
}

// SaveBookmarks upserts every bookmark inside one Badger transaction
func (s *BookmarkStorage) SaveBookmarks(ctx context.Context, bookmarks []*models.Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}

	err := s.db.Store().Badger().Update(func(tx *badgerdb.Txn) error {
		return upsertBookmarksTx(s.db.Store(), tx, bookmarks)
	})
	if err != nil {
		return fmt.Errorf("failed to save %d bookmarks: %w", len(bookmarks), err)
	}

	s.logger.Debug().Int("count", len(bookmarks)).Msg("Saved bookmarks")
	return nil
}

func upsertBookmarksTx(store *badgerhold.Store, tx *badgerdb.Txn, bookmarks []*models.Bookmark) error {
	for _, bookmark := range bookmarks {
		if bookmark.ID == "" {
			return fmt.Errorf("bookmark id is required")
		}
		touch(bookmark)
		if err := store.TxUpsert(tx, bookmark.ID, bookmark); err != nil {
			return fmt.Errorf("bookmark %s: %w", bookmark.ID, err)
		}
	}
	return nil
}

func touch(bookmark *models.Bookmark) {
	now := time.Now()
	if bookmark.CreatedAt.IsZero() {
		bookmark.CreatedAt = now
	}
	bookmark.UpdatedAt = now
}

// DeleteBookmark removes a bookmark; siblings are not renumbered
func (s *BookmarkStorage) DeleteBookmark(ctx context.Context, id string) (bool, error) {
	err := s.db.Store().Delete(id, &models.Bookmark{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return true, nil
}

// DeleteAllBookmarks removes every bookmark
func (s *BookmarkStorage) DeleteAllBookmarks(ctx context.Context) error {
	if err := s.db.Store().DeleteMatching(&models.Bookmark{}, nil); err != nil {
		return fmt.Errorf("failed to delete bookmarks: %w", err)
	}
	return nil
}

// MaxOrder returns the highest order among bookmarks in category
func (s *BookmarkStorage) MaxOrder(ctx context.Context, category string) (int, bool, error) {
	filter := models.BookmarkFilter{}
	if category == "" {
		filter.MissingCategory = true
	} else {
		filter.Category = &category
	}

	bookmarks, err := s.ListBookmarks(ctx, filter)
	if err != nil {
		return 0, false, err
	}
	if len(bookmarks) == 0 {
		return 0, false, nil
	}

	max := bookmarks[0].Order
	for _, b := range bookmarks[1:] {
		if b.Order > max {
			max = b.Order
		}
	}
	return max, true, nil
}

// DistinctCategories returns every non-null category in use, sorted by name
func (s *BookmarkStorage) DistinctCategories(ctx context.Context) ([]string, error) {
	var all []models.Bookmark
	if err := s.db.Store().Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	seen := make(map[string]struct{})
	categories := []string{}
	for _, b := range all {
		if b.Category == nil {
			continue
		}
		if _, ok := seen[*b.Category]; ok {
			continue
		}
		seen[*b.Category] = struct{}{}
		categories = append(categories, *b.Category)
	}
	sort.Strings(categories)
	return categories, nil
}
