package interfaces

import (
	"context"

	"github.com/ternarybob/litemark/internal/models"
)

// BackupStore is a remote directory of backup files
type BackupStore interface {
	// EnsureDir creates dir and every missing parent
	EnsureDir(ctx context.Context, dir string) error
	Put(ctx context.Context, path string, content []byte) error
	List(ctx context.Context, dir string) ([]models.BackupFileInfo, error)
	Delete(ctx context.Context, path string) error
}
