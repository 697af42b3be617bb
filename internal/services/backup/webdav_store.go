package backup

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
)

// WebDAVStore implements interfaces.BackupStore on a WebDAV server
type WebDAVStore struct {
	client *gowebdav.Client
	logger arbor.ILogger
}

var _ interfaces.BackupStore = (*WebDAVStore)(nil)

// NewWebDAVStore creates a store for the configured server
func NewWebDAVStore(cfg models.WebDAVConfig, timeout time.Duration, logger arbor.ILogger) *WebDAVStore {
	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &WebDAVStore{client: client, logger: logger}
}

// EnsureDir creates dir one level at a time. A level that already exists is not an error.
func (s *WebDAVStore) EnsureDir(ctx context.Context, dir string) error {
	current := ""
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		if part == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		current = current + "/" + part
		if info, err := s.client.Stat(current); err == nil && info.IsDir() {
			continue
		}

		if err := s.client.Mkdir(current, 0755); err != nil {
			if info, statErr := s.client.Stat(current); statErr == nil && info.IsDir() {
				continue
			}
			return fmt.Errorf("failed to create %s: %w", current, err)
		}
		s.logger.Debug().Str("dir", current).Msg("WebDAV directory created")
	}
	return nil
}

// Put uploads content to p, replacing any existing file
func (s *WebDAVStore) Put(ctx context.Context, p string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.Write(absolute(p), content, 0644); err != nil {
		return fmt.Errorf("failed to upload %s: %w", p, err)
	}
	return nil
}

// List returns the entries of dir
func (s *WebDAVStore) List(ctx context.Context, dir string) ([]models.BackupFileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := s.client.ReadDir(absolute(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	return toFileInfos(entries), nil
}

// Delete removes p
func (s *WebDAVStore) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.Remove(absolute(p)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", p, err)
	}
	return nil
}

func toFileInfos(entries []os.FileInfo) []models.BackupFileInfo {
	files := make([]models.BackupFileInfo, 0, len(entries))
	for _, entry := range entries {
		files = append(files, models.BackupFileInfo{
			Name:    entry.Name(),
			Size:    entry.Size(),
			ModTime: entry.ModTime(),
			IsDir:   entry.IsDir(),
		})
	}
	return files
}

func absolute(p string) string {
	return path.Clean("/" + p)
}
