package enrichment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/models"
)

const testURL = "https://example.com/post"

func TestClassify_UsesPageAndCategories(t *testing.T) {
	llm := &mockLLM{}
	fetcher := &mockFetcher{}

	fetcher.On("Fetch", mock.Anything, testURL).
		Return(&models.PageInfo{Content: strings.Repeat("x", 2500)}, nil)
	llm.On("CompleteJSON", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Existing categories: Dev, News") &&
			strings.Contains(prompt, "Description: none") &&
			strings.Contains(prompt, strings.Repeat("x", 2000)) &&
			!strings.Contains(prompt, strings.Repeat("x", 2001))
	}), ClassifySystemPrompt).
		Return(map[string]interface{}{"suggested_category": "Dev", "confidence": 0.9, "reasoning": "code"}, nil)

	classifier := NewClassifier(llm, fetcher, arbor.NewLogger())
	result, err := classifier.Classify(context.Background(), ClassifyInput{
		Title:              "Go tips",
		URL:                testURL,
		ExistingCategories: []string{"Dev", "News"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dev", result.SuggestedCategory)
	assert.Equal(t, 0.9, result.Confidence)
	assert.Equal(t, "code", result.Reasoning)
	llm.AssertExpectations(t)
}

func TestClassify_ClampsConfidence(t *testing.T) {
	llm := &mockLLM{}
	fetcher := &mockFetcher{}

	fetcher.On("Fetch", mock.Anything, testURL).Return(&models.PageInfo{}, nil)
	llm.On("CompleteJSON", mock.Anything, mock.Anything, ClassifySystemPrompt).
		Return(map[string]interface{}{"suggested_category": "Dev", "confidence": 1.7}, nil).Once()
	llm.On("CompleteJSON", mock.Anything, mock.Anything, ClassifySystemPrompt).
		Return(map[string]interface{}{"suggested_category": "Dev", "confidence": -0.2}, nil).Once()

	classifier := NewClassifier(llm, fetcher, arbor.NewLogger())
	input := ClassifyInput{Title: "t", URL: testURL}

	high, err := classifier.Classify(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 1.0, high.Confidence)

	low, err := classifier.Classify(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 0.0, low.Confidence)
}

func TestClassify_DefaultsWhenReplyEmpty(t *testing.T) {
	llm := &mockLLM{}
	fetcher := &mockFetcher{}

	fetcher.On("Fetch", mock.Anything, testURL).Return(nil, errors.New("timeout"))
	llm.On("CompleteJSON", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Page excerpt: unavailable") &&
			strings.Contains(prompt, "Existing categories: none yet")
	}), ClassifySystemPrompt).Return(map[string]interface{}{}, nil)

	result, err := NewClassifier(llm, fetcher, arbor.NewLogger()).
		Classify(context.Background(), ClassifyInput{Title: "t", URL: testURL})
	require.NoError(t, err)
	assert.Equal(t, models.UncategorizedCategory, result.SuggestedCategory)
	assert.Equal(t, 0.5, result.Confidence)
}

func TestSummarize_UnreachablePageIsSoftFailure(t *testing.T) {
	llm := &mockLLM{}
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything, testURL).Return(nil, errors.New("dns"))

	result, err := NewSummarizer(llm, fetcher, arbor.NewLogger()).SummarizeURL(context.Background(), testURL, "t")
	require.NoError(t, err)
	assert.Equal(t, "unable to fetch", result.Summary)
	assert.Empty(t, result.Tags)
	assert.Nil(t, result.ReadingTime)
	llm.AssertNotCalled(t, "CompleteJSON", mock.Anything, mock.Anything, mock.Anything)
}

func TestSummarize_EmptyContentUsesDescription(t *testing.T) {
	llm := &mockLLM{}
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything, testURL).Return(&models.PageInfo{Description: "page desc"}, nil)

	result, err := NewSummarizer(llm, fetcher, arbor.NewLogger()).SummarizeURL(context.Background(), testURL, "")
	require.NoError(t, err)
	assert.Equal(t, "page desc", result.Summary)
	llm.AssertNotCalled(t, "CompleteJSON", mock.Anything, mock.Anything, mock.Anything)
}

func TestSummarize_ParsesReply(t *testing.T) {
	llm := &mockLLM{}
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything, testURL).
		Return(&models.PageInfo{Title: "Page Title", Content: "body {not a placeholder}"}, nil)
	llm.On("CompleteJSON", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Title: Page Title") &&
			strings.Contains(prompt, "body {not a placeholder}")
	}), SummarizeSystemPrompt).
		Return(map[string]interface{}{
			"summary":      "A short summary",
			"tags":         []interface{}{"go", " ", "web", 3},
			"reading_time": 4.0,
		}, nil)

	result, err := NewSummarizer(llm, fetcher, arbor.NewLogger()).SummarizeURL(context.Background(), testURL, "")
	require.NoError(t, err)
	assert.Equal(t, "A short summary", result.Summary)
	assert.Equal(t, []string{"go", "web"}, result.Tags)
	require.NotNil(t, result.ReadingTime)
	assert.Equal(t, 4, *result.ReadingTime)
}

func TestSummarize_StripsMarkdownFromSummary(t *testing.T) {
	llm := &mockLLM{}
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything, testURL).Return(&models.PageInfo{Title: "T", Content: "body"}, nil)
	llm.On("CompleteJSON", mock.Anything, mock.Anything, SummarizeSystemPrompt).
		Return(map[string]interface{}{
			"summary": "**Go** is a [language](https://go.dev)\nfor `servers`.",
		}, nil)

	result, err := NewSummarizer(llm, fetcher, arbor.NewLogger()).SummarizeURL(context.Background(), testURL, "")
	require.NoError(t, err)
	assert.Equal(t, "Go is a language for servers.", result.Summary)
}

func TestOperations_EnrichTouchesOnlyTargetFields(t *testing.T) {
	llm := &mockLLM{}
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything, testURL).Return(&models.PageInfo{Content: "content"}, nil)
	llm.On("CompleteJSON", mock.Anything, mock.Anything, SummarizeSystemPrompt).
		Return(map[string]interface{}{"summary": "S", "tags": []interface{}{"a"}}, nil)
	llm.On("CompleteJSON", mock.Anything, mock.Anything, ClassifySystemPrompt).
		Return(map[string]interface{}{"suggested_category": "Reading"}, nil)

	logger := arbor.NewLogger()
	summarize := NewSummarizeOperation(NewSummarizer(llm, fetcher, logger))
	classify := NewClassifyOperation(NewClassifier(llm, fetcher, logger))

	item := &models.Bookmark{ID: "1", Title: "t", URL: testURL, Order: 3}
	require.NoError(t, summarize.Enrich(context.Background(), item, nil))
	assert.Equal(t, "S", item.DescriptionText())
	assert.Equal(t, []string{"a"}, item.Tags)
	assert.Nil(t, item.Category)

	require.NoError(t, classify.Enrich(context.Background(), item, []string{"Reading"}))
	assert.Equal(t, "Reading", item.CategoryName())
	assert.Equal(t, 3, item.Order)

	assert.True(t, summarize.Unprocessed().MissingDescription)
	assert.True(t, classify.Unprocessed().MissingCategory)
}

func TestOperations_Resolve(t *testing.T) {
	logger := arbor.NewLogger()
	ops := NewOperations(
		NewSummarizeOperation(NewSummarizer(&mockLLM{}, &mockFetcher{}, logger)),
		NewClassifyOperation(NewClassifier(&mockLLM{}, &mockFetcher{}, logger)),
	)

	resolved, label, err := ops.Resolve([]string{"Summarize", "classify", "summarize"})
	require.NoError(t, err)
	assert.Len(t, resolved, 2)
	assert.Equal(t, "summarize+classify", label)

	_, _, err = ops.Resolve([]string{"translate"})
	assert.ErrorIs(t, err, ErrUnknownOperation)

	_, _, err = ops.Resolve(nil)
	assert.ErrorIs(t, err, ErrUnknownOperation)
}
