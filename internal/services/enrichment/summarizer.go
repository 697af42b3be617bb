package enrichment

import (
	"context"
	"math"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
	"github.com/ternarybob/litemark/internal/services/markdown"
)

// Summarizer produces a summary, tags and reading time for a page
type Summarizer struct {
	llm     interfaces.LLMService
	fetcher interfaces.PageFetcher
	logger  arbor.ILogger
}

// NewSummarizer creates a summarizer
func NewSummarizer(llm interfaces.LLMService, fetcher interfaces.PageFetcher, logger arbor.ILogger) *Summarizer {
	return &Summarizer{llm: llm, fetcher: fetcher, logger: logger}
}

// SummarizeURL fetches url and summarizes it. An unreachable page gives the
// "unable to fetch" result rather than an error.
func (s *Summarizer) SummarizeURL(ctx context.Context, url, title string) (*models.SummarizeResult, error) {
	page, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.logger.Debug().Err(err).Str("url", url).Msg("Summarize could not fetch page")
		page = nil
	}
	return s.SummarizePage(ctx, page, url, title)
}

// SummarizePage summarizes an already fetched page; page may be nil
func (s *Summarizer) SummarizePage(ctx context.Context, page *models.PageInfo, url, title string) (*models.SummarizeResult, error) {
	if page == nil {
		return &models.SummarizeResult{Summary: unableToFetch, Tags: []string{}}, nil
	}

	if page.Content == "" {
		return &models.SummarizeResult{
			Summary: orDefault(page.Description, noContentFallback),
			Tags:    []string{},
		}, nil
	}

	if title == "" {
		title = orDefault(page.Title, unknownTitle)
	}

	vars := map[string]string{
		"title":       title,
		"url":         url,
		"description": orDefault(page.Description, noDescription),
		"content":     common.Truncate(page.Content, summarizeContentChars),
	}

	reply, err := s.llm.CompleteJSON(ctx, common.RenderTemplate(summarizePromptTemplate, vars, s.logger), SummarizeSystemPrompt)
	if err != nil {
		return nil, err
	}

	result := &models.SummarizeResult{
		Summary: markdown.PlainText(stringField(reply, "summary")),
		Tags:    stringSliceField(reply, "tags"),
	}
	if minutes, ok := numberField(reply, "reading_time"); ok && minutes >= 0 {
		rounded := int(math.Round(minutes))
		result.ReadingTime = &rounded
	}

	return result, nil
}
