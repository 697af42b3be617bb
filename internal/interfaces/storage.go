package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/litemark/internal/models"
)

// ErrNotFound is returned when a bookmark or category row does not exist
var ErrNotFound = errors.New("not found")

// BookmarkStorage - interface for bookmark persistence
type BookmarkStorage interface {
	ListBookmarks(ctx context.Context, filter models.BookmarkFilter) ([]*models.Bookmark, error)
	GetBookmark(ctx context.Context, id string) (*models.Bookmark, error)
	SaveBookmark(ctx context.Context, bookmark *models.Bookmark) error

	// SaveBookmarks upserts all bookmarks in a single transaction
	SaveBookmarks(ctx context.Context, bookmarks []*models.Bookmark) error

	// DeleteBookmark returns false when the bookmark did not exist
	DeleteBookmark(ctx context.Context, id string) (bool, error)
	DeleteAllBookmarks(ctx context.Context) error

	// MaxOrder returns the highest order in category; ok is false when the category has no bookmarks.
	// An empty category name selects bookmarks without a category.
	MaxOrder(ctx context.Context, category string) (max int, ok bool, err error)

	// DistinctCategories returns every non-null category in use, sorted by name
	DistinctCategories(ctx context.Context) ([]string, error)
}

// CategoryOrderStorage - interface for category display order persistence
type CategoryOrderStorage interface {
	ListCategoryOrder(ctx context.Context) ([]models.CategoryOrder, error)
	GetCategoryOrder(ctx context.Context, category string) (*models.CategoryOrder, error)
	SaveCategoryOrder(ctx context.Context, row models.CategoryOrder) error
	DeleteCategoryOrder(ctx context.Context, category string) (bool, error)
	DeleteAllCategoryOrder(ctx context.Context) error
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	BookmarkStorage() BookmarkStorage
	CategoryOrderStorage() CategoryOrderStorage
	KeyValueStorage() KeyValueStorage

	// ReplaceAll atomically swaps every bookmark and category row for the given ones
	ReplaceAll(ctx context.Context, bookmarks []*models.Bookmark, rows []models.CategoryOrder) error

	DB() interface{}
	Close() error
}
