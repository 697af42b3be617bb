package interfaces

import (
	"context"

	"github.com/ternarybob/litemark/internal/models"
)

// PageFetcher downloads a page and extracts title, description, favicon and main content.
// Any error means the page is treated as absent.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*models.PageInfo, error)
}
