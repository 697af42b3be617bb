package bookmarks

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
	"github.com/ternarybob/litemark/internal/services/enrichment"
)

// Assistant runs the single-item AI flows: classify, summarize and quick-add
type Assistant struct {
	bookmarks  *Service
	storage    interfaces.BookmarkStorage
	fetcher    interfaces.PageFetcher
	summarizer *enrichment.Summarizer
	classifier *enrichment.Classifier
	logger     arbor.ILogger
}

// NewAssistant creates the single-item AI flows on top of the bookmark service
func NewAssistant(bookmarks *Service, storage interfaces.BookmarkStorage, fetcher interfaces.PageFetcher, summarizer *enrichment.Summarizer, classifier *enrichment.Classifier, logger arbor.ILogger) *Assistant {
	return &Assistant{
		bookmarks:  bookmarks,
		storage:    storage,
		fetcher:    fetcher,
		summarizer: summarizer,
		classifier: classifier,
		logger:     logger,
	}
}

// FetchPageInfo fetches title, description and favicon without involving the model
func (a *Assistant) FetchPageInfo(ctx context.Context, url string) (*models.PageInfo, error) {
	page, err := a.fetcher.Fetch(ctx, url)
	if err != nil || page == nil {
		a.logger.Debug().Err(err).Str("url", url).Msg("Page info unavailable")
		return nil, ErrPageUnavailable
	}
	return page, nil
}

// ClassifyBookmark suggests a category for a stored bookmark without changing it
func (a *Assistant) ClassifyBookmark(ctx context.Context, id string) (*ClassifyOutcome, error) {
	bookmark, err := a.storage.GetBookmark(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.classify(ctx, bookmark.Title, bookmark.URL, bookmark.DescriptionText())
}

// ClassifyURL suggests a category for a page that is not stored
func (a *Assistant) ClassifyURL(ctx context.Context, url, title, description string) (*ClassifyOutcome, error) {
	return a.classify(ctx, title, url, description)
}

func (a *Assistant) classify(ctx context.Context, title, url, description string) (*ClassifyOutcome, error) {
	existing, err := a.storage.DistinctCategories(ctx)
	if err != nil {
		return nil, err
	}

	result, err := a.classifier.Classify(ctx, enrichment.ClassifyInput{
		Title:              title,
		URL:                url,
		Description:        description,
		ExistingCategories: existing,
	})
	if err != nil {
		return nil, err
	}

	return &ClassifyOutcome{ClassifyResult: *result, ExistingCategories: existing}, nil
}

// SummarizeBookmark summarizes a stored bookmark and saves the summary and tags on it
func (a *Assistant) SummarizeBookmark(ctx context.Context, id string) (*models.SummarizeResult, error) {
	bookmark, err := a.storage.GetBookmark(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := a.summarizer.SummarizeURL(ctx, bookmark.URL, bookmark.Title)
	if err != nil {
		return nil, err
	}

	summary := result.Summary
	bookmark.Description = &summary
	bookmark.Tags = result.Tags
	if err := a.storage.SaveBookmark(ctx, bookmark); err != nil {
		return nil, err
	}

	a.logger.Debug().Str("id", id).Int("tags", len(result.Tags)).Msg("Bookmark summarized")
	return result, nil
}

// SummarizeURL summarizes a page that is not stored
func (a *Assistant) SummarizeURL(ctx context.Context, url string) (*models.SummarizeResult, error) {
	return a.summarizer.SummarizeURL(ctx, url, "")
}

// QuickAdd creates a bookmark from a url alone. The page must be reachable for its title.
func (a *Assistant) QuickAdd(ctx context.Context, url string) (*QuickAddResult, error) {
	page, err := a.FetchPageInfo(ctx, url)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(page.Title)
	if title == "" {
		title = url
	}

	summary, err := a.summarizer.SummarizePage(ctx, page, url, title)
	if err != nil {
		return nil, err
	}

	return a.classifyAndCreate(ctx, url, title, summary, page.Description)
}

// QuickAddWithTitle creates a bookmark with the given title; summary, tags and category come from the model
func (a *Assistant) QuickAddWithTitle(ctx context.Context, url, title string) (*QuickAddResult, error) {
	summary, err := a.summarizer.SummarizeURL(ctx, url, title)
	if err != nil {
		return nil, err
	}
	return a.classifyAndCreate(ctx, url, title, summary, "")
}

// QuickAddWithCategory creates a bookmark in category; only summary and tags come from the model
func (a *Assistant) QuickAddWithCategory(ctx context.Context, url, title, category string) (*QuickAddResult, error) {
	summary, err := a.summarizer.SummarizeURL(ctx, url, title)
	if err != nil {
		return nil, err
	}

	bookmark, err := a.create(ctx, url, title, category, summary.Summary, summary.Tags)
	if err != nil {
		return nil, err
	}
	return &QuickAddResult{Bookmark: bookmark, Summary: summary}, nil
}

func (a *Assistant) classifyAndCreate(ctx context.Context, url, title string, summary *models.SummarizeResult, fallbackDescription string) (*QuickAddResult, error) {
	description := summary.Summary
	if description == "" {
		description = fallbackDescription
	}

	outcome, err := a.classify(ctx, title, url, description)
	if err != nil {
		return nil, err
	}

	bookmark, err := a.create(ctx, url, title, outcome.SuggestedCategory, description, summary.Tags)
	if err != nil {
		return nil, err
	}

	classified := outcome.ClassifyResult
	return &QuickAddResult{Bookmark: bookmark, Summary: summary, Classified: &classified}, nil
}

func (a *Assistant) create(ctx context.Context, url, title, category, description string, tags []string) (*models.Bookmark, error) {
	visible := true
	bookmark, err := a.bookmarks.Create(ctx, CreateRequest{
		Title:       title,
		URL:         url,
		Category:    &category,
		Description: &description,
		Tags:        tags,
		Visible:     &visible,
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info().
		Str("id", bookmark.ID).
		Str("url", url).
		Str("category", bookmark.CategoryName()).
		Msg("Bookmark quick-added")

	return bookmark, nil
}
