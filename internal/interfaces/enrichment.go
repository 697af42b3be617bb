package interfaces

import (
	"context"

	"github.com/ternarybob/litemark/internal/models"
)

// EnrichmentOperation fills AI-derived fields on a bookmark.
// Enrich mutates item in place and never persists it.
type EnrichmentOperation interface {
	// Name is the operation label used in task records
	Name() string

	// Unprocessed selects the bookmarks whose target field is still empty
	Unprocessed() models.BookmarkFilter

	Enrich(ctx context.Context, item *models.Bookmark, existingCategories []string) error
}
