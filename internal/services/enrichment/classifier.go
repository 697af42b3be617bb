package enrichment

import (
	"context"
	"math"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
)

// ClassifyInput describes the bookmark to classify
type ClassifyInput struct {
	Title              string
	URL                string
	Description        string
	ExistingCategories []string
}

// Classifier suggests a category for a bookmark
type Classifier struct {
	llm     interfaces.LLMService
	fetcher interfaces.PageFetcher
	logger  arbor.ILogger
}

// NewClassifier creates a classifier
func NewClassifier(llm interfaces.LLMService, fetcher interfaces.PageFetcher, logger arbor.ILogger) *Classifier {
	return &Classifier{llm: llm, fetcher: fetcher, logger: logger}
}

// Classify fetches the page (failure tolerated) and asks the model for a category.
// Missing fields in the reply fall back to the uncategorized category and confidence 0.5.
func (c *Classifier) Classify(ctx context.Context, input ClassifyInput) (*models.ClassifyResult, error) {
	pageContent := ""
	if page, err := c.fetcher.Fetch(ctx, input.URL); err == nil && page != nil {
		pageContent = common.Truncate(page.Content, classifyContentChars)
	} else if err != nil {
		c.logger.Debug().Err(err).Str("url", input.URL).Msg("Classify continuing without page content")
	}

	vars := map[string]string{
		"title":        input.Title,
		"url":          input.URL,
		"description":  orDefault(input.Description, noDescription),
		"page_content": orDefault(pageContent, pageUnavailable),
		"categories":   noCategoriesYet,
	}
	if len(input.ExistingCategories) > 0 {
		vars["categories"] = strings.Join(input.ExistingCategories, ", ")
	}

	reply, err := c.llm.CompleteJSON(ctx, common.RenderTemplate(classifyPromptTemplate, vars, c.logger), ClassifySystemPrompt)
	if err != nil {
		return nil, err
	}

	result := &models.ClassifyResult{
		SuggestedCategory: stringField(reply, "suggested_category"),
		Confidence:        defaultConfidence,
		Reasoning:         stringField(reply, "reasoning"),
	}
	if result.SuggestedCategory == "" {
		result.SuggestedCategory = models.UncategorizedCategory
	}
	if confidence, ok := numberField(reply, "confidence"); ok {
		result.Confidence = clampConfidence(confidence)
	}

	return result, nil
}

// clampConfidence keeps a model-reported confidence within [0, 1]
func clampConfidence(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func stringField(m map[string]interface{}, key string) string {
	value, ok := m[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func numberField(m map[string]interface{}, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func stringSliceField(m map[string]interface{}, key string) []string {
	tags := []string{}
	values, ok := m[key].([]interface{})
	if !ok {
		return tags
	}
	for _, value := range values {
		if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
			tags = append(tags, strings.TrimSpace(s))
		}
	}
	return tags
}
