package bookmarks

import (
	"errors"

	"github.com/ternarybob/litemark/internal/models"
)

// ErrPageUnavailable is returned when quick-add cannot fetch the page it needs a title from
var ErrPageUnavailable = errors.New("unable to fetch page information")

// CreateRequest holds the fields of a new bookmark
type CreateRequest struct {
	Title       string   `json:"title" validate:"required"`
	URL         string   `json:"url" validate:"required"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
	Visible     *bool    `json:"visible"`
}

// UpdateRequest carries a partial update; nil fields are left unchanged
type UpdateRequest struct {
	Title       *string   `json:"title" validate:"omitempty,min=1"`
	URL         *string   `json:"url" validate:"omitempty,min=1"`
	Category    *string   `json:"category"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Visible     *bool     `json:"visible"`
	Order       *int      `json:"order"`
}

// ImportItem is one bookmark of a bulk import. Missing ids are generated.
type ImportItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title" validate:"required"`
	URL         string   `json:"url" validate:"required"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
	Visible     *bool    `json:"visible"`
	Order       int      `json:"order"`
}

// QuickAddResult is the bookmark created by a quick-add together with the AI output behind it
type QuickAddResult struct {
	Bookmark   *models.Bookmark        `json:"bookmark"`
	Summary    *models.SummarizeResult `json:"summary"`
	Classified *models.ClassifyResult  `json:"classification,omitempty"`
}

// ClassifyOutcome is a classification plus the categories offered to the model
type ClassifyOutcome struct {
	models.ClassifyResult
	ExistingCategories []string `json:"existing_categories"`
}
