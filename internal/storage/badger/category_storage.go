package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// CategoryOrderStorage implements interfaces.CategoryOrderStorage for Badger
type CategoryOrderStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCategoryOrderStorage creates a new CategoryOrderStorage instance
func NewCategoryOrderStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CategoryOrderStorage {
	return &CategoryOrderStorage{
		db:     db,
		logger: logger,
	}
}

// ListCategoryOrder returns every row sorted by order
func (s *CategoryOrderStorage) ListCategoryOrder(ctx context.Context) ([]models.CategoryOrder, error) {
	var rows []models.CategoryOrder
	if err := s.db.Store().Find(&rows, badgerhold.Where("Category").Ne("").SortBy("Order", "Category")); err != nil {
		return nil, fmt.Errorf("failed to list category order: %w", err)
	}
	return rows, nil
}

// GetCategoryOrder returns the row for category or interfaces.ErrNotFound
func (s *CategoryOrderStorage) GetCategoryOrder(ctx context.Context, category string) (*models.CategoryOrder, error) {
	var row models.CategoryOrder
	err := s.db.Store().Get(category, &row)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, fmt.Errorf("category %q: %w", category, interfaces.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category order: %w", err)
	}
	return &row, nil
}

// SaveCategoryOrder inserts or updates a row
func (s *CategoryOrderStorage) SaveCategoryOrder(ctx context.Context, row models.CategoryOrder) error {
	if row.Category == "" {
		return fmt.Errorf("category name is required")
	}
	if err := s.db.Store().Upsert(row.Category, &row); err != nil {
		return fmt.Errorf("failed to save category order: %w", err)
	}
	return nil
}

// DeleteCategoryOrder removes the row only; bookmarks keep their category value
func (s *CategoryOrderStorage) DeleteCategoryOrder(ctx context.Context, category string) (bool, error) {
	err := s.db.Store().Delete(category, &models.CategoryOrder{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete category order: %w", err)
	}
	return true, nil
}

// DeleteAllCategoryOrder removes every row
func (s *CategoryOrderStorage) DeleteAllCategoryOrder(ctx context.Context) error {
	if err := s.db.Store().DeleteMatching(&models.CategoryOrder{}, nil); err != nil {
		return fmt.Errorf("failed to delete category order: %w", err)
	}
	return nil
}
