package badger

import (
	"context"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db            *BadgerDB
	bookmark      interfaces.BookmarkStorage
	categoryOrder interfaces.CategoryOrderStorage
	kv            interfaces.KeyValueStorage
	logger        arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := newManager(db, logger)
	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

func newManager(db *BadgerDB, logger arbor.ILogger) *Manager {
	return &Manager{
		db:            db,
		bookmark:      NewBookmarkStorage(db, logger),
		categoryOrder: NewCategoryOrderStorage(db, logger),
		kv:            NewKVStorage(db, logger),
		logger:        logger,
	}
}

// BookmarkStorage returns the bookmark storage interface
func (m *Manager) BookmarkStorage() interfaces.BookmarkStorage {
	return m.bookmark
}

// CategoryOrderStorage returns the category order storage interface
func (m *Manager) CategoryOrderStorage() interfaces.CategoryOrderStorage {
	return m.categoryOrder
}

// KeyValueStorage returns the KeyValue storage interface
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// ReplaceAll deletes every bookmark and category row and writes the given ones in one transaction
func (m *Manager) ReplaceAll(ctx context.Context, bookmarks []*models.Bookmark, rows []models.CategoryOrder) error {
	store := m.db.Store()

	err := store.Badger().Update(func(tx *badgerdb.Txn) error {
		if err := store.TxDeleteMatching(tx, &models.Bookmark{}, nil); err != nil {
			return fmt.Errorf("clear bookmarks: %w", err)
		}
		if err := store.TxDeleteMatching(tx, &models.CategoryOrder{}, nil); err != nil {
			return fmt.Errorf("clear category order: %w", err)
		}
		if err := upsertBookmarksTx(store, tx, bookmarks); err != nil {
			return err
		}
		for i := range rows {
			if rows[i].Category == "" {
				continue
			}
			if err := store.TxUpsert(tx, rows[i].Category, &rows[i]); err != nil {
				return fmt.Errorf("category %q: %w", rows[i].Category, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace data: %w", err)
	}

	m.logger.Info().
		Int("bookmarks", len(bookmarks)).
		Int("categories", len(rows)).
		Msg("Replaced all bookmarks and category order")
	return nil
}

// DB returns the underlying database connection
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
