// Package backup exports and restores bookmark data and runs WebDAV backups.
package backup

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
)

const (
	filePrefix     = "litemark-backup-"
	fileSuffix     = ".json"
	fileTimeLayout = "2006-01-02-15-04-05"
)

var (
	// ErrInvalidDocument is returned when an import cannot be parsed
	ErrInvalidDocument = errors.New("invalid backup document")
	// ErrIncompleteConfig is returned when url, username or password is missing
	ErrIncompleteConfig = errors.New("WebDAV configuration is incomplete")
	// ErrBackupInProgress is returned when a backup run is already in flight
	ErrBackupInProgress = errors.New("a backup is already running")
)

// SettingsSource provides the WebDAV configuration and records completed backups
type SettingsSource interface {
	WebDAVConfig(ctx context.Context) (models.WebDAVConfig, error)
	RecordLastBackup(ctx context.Context, at string) error
}

// StoreFactory builds a BackupStore for a configuration
type StoreFactory func(cfg models.WebDAVConfig) interfaces.BackupStore

// ImportResult counts what an import wrote
type ImportResult struct {
	Bookmarks  int `json:"imported_bookmarks"`
	Categories int `json:"imported_categories"`
}

// Service builds backup documents and writes them to a BackupStore
type Service struct {
	storage  interfaces.StorageManager
	settings SettingsSource
	events   interfaces.EventService
	newStore StoreFactory
	logger   arbor.ILogger
	now      func() time.Time

	runMu sync.Mutex
}

// NewService creates a backup service. events may be nil.
func NewService(storage interfaces.StorageManager, settings SettingsSource, events interfaces.EventService, newStore StoreFactory, logger arbor.ILogger) *Service {
	return &Service{
		storage:  storage,
		settings: settings,
		events:   events,
		newStore: newStore,
		logger:   logger,
		now:      time.Now,
	}
}

// NewWebDAVStoreFactory returns a factory creating WebDAV stores with the given request timeout
func NewWebDAVStoreFactory(timeout time.Duration, logger arbor.ILogger) StoreFactory {
	return func(cfg models.WebDAVConfig) interfaces.BackupStore {
		return NewWebDAVStore(cfg, timeout, logger)
	}
}

// Export builds a document with every bookmark and the category order
func (s *Service) Export(ctx context.Context) (*models.BackupDocument, error) {
	bookmarks, err := s.storage.BookmarkStorage().ListBookmarks(ctx, models.BookmarkFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	rows, err := s.storage.CategoryOrderStorage().ListCategoryOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list category order: %w", err)
	}

	doc := &models.BackupDocument{
		Version:       common.BackupFormatVersion,
		ExportedAt:    s.now(),
		Bookmarks:     make([]models.Bookmark, 0, len(bookmarks)),
		CategoryOrder: rows,
	}
	for _, b := range bookmarks {
		doc.Bookmarks = append(doc.Bookmarks, *b)
	}
	return doc, nil
}

// Import replaces all bookmarks and category order with the document's contents in one transaction
func (s *Service) Import(ctx context.Context, data []byte, format Format) (*ImportResult, error) {
	bookmarks, rows, err := Decode(data, format)
	if err != nil {
		return nil, err
	}

	if err := s.storage.ReplaceAll(ctx, bookmarks, rows); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("bookmarks", len(bookmarks)).
		Int("categories", len(rows)).
		Str("format", string(format)).
		Msg("Backup imported")

	return &ImportResult{Bookmarks: len(bookmarks), Categories: len(rows)}, nil
}

// TestConnection checks the WebDAV configuration by creating the backup directory
func (s *Service) TestConnection(ctx context.Context) error {
	cfg, err := s.settings.WebDAVConfig(ctx)
	if err != nil {
		return err
	}
	if !cfg.IsComplete() {
		return ErrIncompleteConfig
	}
	return s.newStore(cfg).EnsureDir(ctx, cfg.NormalizedPath())
}

// RunScheduled is the daily job: it skips quietly when backups are disabled or unconfigured
func (s *Service) RunScheduled(ctx context.Context) error {
	_, err := s.run(ctx, true)
	return err
}

// RunNow performs a backup regardless of the enabled switch
func (s *Service) RunNow(ctx context.Context) (*models.BackupResult, error) {
	return s.run(ctx, false)
}

func (s *Service) run(ctx context.Context, scheduled bool) (*models.BackupResult, error) {
	if !s.runMu.TryLock() {
		return nil, ErrBackupInProgress
	}
	defer s.runMu.Unlock()

	result, err := s.backup(ctx, scheduled)
	s.publish(ctx, result, err)
	return result, err
}

func (s *Service) backup(ctx context.Context, scheduled bool) (*models.BackupResult, error) {
	cfg, err := s.settings.WebDAVConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load WebDAV config: %w", err)
	}

	if scheduled && !cfg.Enabled {
		s.logger.Info().Msg("Automatic backup disabled, skipping")
		return &models.BackupResult{Skipped: true, SkipReason: "disabled", CompletedAt: s.now()}, nil
	}
	if !cfg.IsComplete() {
		if scheduled {
			s.logger.Warn().Msg("WebDAV configuration incomplete, skipping backup")
			return &models.BackupResult{Skipped: true, SkipReason: "incomplete configuration", CompletedAt: s.now()}, nil
		}
		return nil, ErrIncompleteConfig
	}

	store := s.newStore(cfg)
	dir := cfg.NormalizedPath()
	if err := store.EnsureDir(ctx, dir); err != nil {
		return nil, err
	}

	doc, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	content, err := Encode(doc, FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	filename := filePrefix + s.now().Format(fileTimeLayout) + fileSuffix
	if err := store.Put(ctx, path.Join("/", dir, filename), content); err != nil {
		return nil, err
	}

	deleted := s.cleanup(ctx, store, dir, cfg.KeepBackups)

	completed := s.now()
	if err := s.settings.RecordLastBackup(ctx, completed.Format(time.RFC3339)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record last backup time")
	}

	s.logger.Info().
		Str("filename", filename).
		Int("bookmarks", len(doc.Bookmarks)).
		Int("deleted", len(deleted)).
		Bool("scheduled", scheduled).
		Msg("WebDAV backup completed")

	return &models.BackupResult{
		Filename:       filename,
		BookmarksCount: len(doc.Bookmarks),
		Deleted:        deleted,
		CompletedAt:    completed,
	}, nil
}

// cleanup deletes the oldest backup files beyond keep. Failures are logged, not returned.
func (s *Service) cleanup(ctx context.Context, store interfaces.BackupStore, dir string, keep int) []string {
	deleted := []string{}
	if keep <= 0 {
		return deleted
	}

	entries, err := store.List(ctx, dir)
	if err != nil {
		s.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to list backups for cleanup")
		return deleted
	}

	names := BackupFileNames(entries)
	if len(names) <= keep {
		return deleted
	}

	for _, name := range names[keep:] {
		if err := store.Delete(ctx, path.Join("/", dir, name)); err != nil {
			s.logger.Warn().Err(err).Str("file", name).Msg("Failed to delete old backup")
			continue
		}
		deleted = append(deleted, name)
	}
	return deleted
}

// BackupFileNames returns backup file names from entries, newest first
func BackupFileNames(entries []models.BackupFileInfo) []string {
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir || !strings.HasPrefix(entry.Name, filePrefix) || !strings.HasSuffix(entry.Name, fileSuffix) {
			continue
		}
		names = append(names, entry.Name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names
}

func (s *Service) publish(ctx context.Context, result *models.BackupResult, runErr error) {
	if s.events == nil {
		return
	}

	payload := map[string]interface{}{"success": runErr == nil}
	if runErr != nil {
		payload["error"] = runErr.Error()
	} else if result != nil {
		payload["result"] = result
	}

	if err := s.events.Publish(ctx, interfaces.Event{Type: interfaces.EventBackupStatus, Payload: payload}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish backup status")
	}
}
