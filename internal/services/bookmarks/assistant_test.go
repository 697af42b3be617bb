package bookmarks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/models"
	"github.com/ternarybob/litemark/internal/services/enrichment"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) CompleteJSON(ctx context.Context, prompt string, systemPrompt string) (map[string]interface{}, error) {
	args := m.Called(ctx, prompt, systemPrompt)
	result, _ := args.Get(0).(map[string]interface{})
	return result, args.Error(1)
}

func (m *mockLLM) IsConfigured() bool {
	return true
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*models.PageInfo, error) {
	args := m.Called(ctx, url)
	page, _ := args.Get(0).(*models.PageInfo)
	return page, args.Error(1)
}

const pageURL = "https://example.com/go"

func newTestAssistant(t *testing.T) (*Assistant, *Service, *mockLLM, *mockFetcher) {
	t.Helper()
	svc, manager := newTestService(t)
	logger := arbor.NewLogger()

	llm := &mockLLM{}
	fetcher := &mockFetcher{}
	assistant := NewAssistant(
		svc,
		manager.BookmarkStorage(),
		fetcher,
		enrichment.NewSummarizer(llm, fetcher, logger),
		enrichment.NewClassifier(llm, fetcher, logger),
		logger,
	)
	return assistant, svc, llm, fetcher
}

func summaryReply() map[string]interface{} {
	return map[string]interface{}{
		"summary":      "A tour of Go",
		"tags":         []interface{}{"go", "tutorial"},
		"reading_time": 4.0,
	}
}

func TestQuickAdd_UsesPageTitleAndClassification(t *testing.T) {
	assistant, _, llm, fetcher := newTestAssistant(t)
	ctx := context.Background()

	fetcher.On("Fetch", mock.Anything, pageURL).
		Return(&models.PageInfo{Title: "Go Tour", Description: "meta", Content: "content"}, nil)
	llm.On("CompleteJSON", mock.Anything, mock.Anything, enrichment.SummarizeSystemPrompt).Return(summaryReply(), nil)
	llm.On("CompleteJSON", mock.Anything, mock.Anything, enrichment.ClassifySystemPrompt).
		Return(map[string]interface{}{"suggested_category": "Programming", "confidence": 0.8}, nil)

	result, err := assistant.QuickAdd(ctx, pageURL)
	require.NoError(t, err)

	assert.Equal(t, "Go Tour", result.Bookmark.Title)
	assert.Equal(t, "Programming", result.Bookmark.CategoryName())
	assert.Equal(t, "A tour of Go", result.Bookmark.DescriptionText())
	assert.Equal(t, []string{"go", "tutorial"}, result.Bookmark.Tags)
	require.NotNil(t, result.Classified)
	assert.Equal(t, 0.8, result.Classified.Confidence)
	require.NotNil(t, result.Summary.ReadingTime)
	assert.Equal(t, 4, *result.Summary.ReadingTime)
}

func TestQuickAdd_UnreachablePage(t *testing.T) {
	assistant, _, llm, fetcher := newTestAssistant(t)

	fetcher.On("Fetch", mock.Anything, pageURL).Return(nil, errors.New("dial tcp: refused"))

	_, err := assistant.QuickAdd(context.Background(), pageURL)
	assert.ErrorIs(t, err, ErrPageUnavailable)
	llm.AssertNotCalled(t, "CompleteJSON", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuickAddWithCategory_SkipsClassification(t *testing.T) {
	assistant, _, llm, fetcher := newTestAssistant(t)

	fetcher.On("Fetch", mock.Anything, pageURL).Return(&models.PageInfo{Content: "content"}, nil)
	llm.On("CompleteJSON", mock.Anything, mock.Anything, enrichment.SummarizeSystemPrompt).Return(summaryReply(), nil)

	result, err := assistant.QuickAddWithCategory(context.Background(), pageURL, "My title", "Reading")
	require.NoError(t, err)
	assert.Equal(t, "My title", result.Bookmark.Title)
	assert.Equal(t, "Reading", result.Bookmark.CategoryName())
	assert.Nil(t, result.Classified)
	llm.AssertNumberOfCalls(t, "CompleteJSON", 1)
}

func TestQuickAddWithTitle_FallsBackToUncategorized(t *testing.T) {
	assistant, _, llm, fetcher := newTestAssistant(t)

	fetcher.On("Fetch", mock.Anything, pageURL).Return(nil, errors.New("timeout"))
	llm.On("CompleteJSON", mock.Anything, mock.Anything, enrichment.ClassifySystemPrompt).
		Return(map[string]interface{}{}, nil)

	result, err := assistant.QuickAddWithTitle(context.Background(), pageURL, "Offline page")
	require.NoError(t, err)
	assert.Equal(t, models.UncategorizedCategory, result.Bookmark.CategoryName())
	assert.Equal(t, "unable to fetch", result.Bookmark.DescriptionText())
}

func TestSummarizeBookmark_PersistsResult(t *testing.T) {
	assistant, svc, llm, fetcher := newTestAssistant(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, CreateRequest{Title: "Go", URL: pageURL})
	require.NoError(t, err)

	fetcher.On("Fetch", mock.Anything, pageURL).Return(&models.PageInfo{Content: "content"}, nil)
	llm.On("CompleteJSON", mock.Anything, mock.Anything, enrichment.SummarizeSystemPrompt).Return(summaryReply(), nil)

	_, err = assistant.SummarizeBookmark(ctx, b.ID)
	require.NoError(t, err)

	stored, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "A tour of Go", stored.DescriptionText())
	assert.Equal(t, []string{"go", "tutorial"}, stored.Tags)
}

func TestClassifyBookmark_ReportsExistingCategories(t *testing.T) {
	assistant, svc, llm, fetcher := newTestAssistant(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{Title: "Other", URL: "https://other", Category: models.StringPtr("News")})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateRequest{Title: "Go", URL: pageURL})
	require.NoError(t, err)

	fetcher.On("Fetch", mock.Anything, pageURL).Return(&models.PageInfo{Content: "content"}, nil)
	llm.On("CompleteJSON", mock.Anything, mock.Anything, enrichment.ClassifySystemPrompt).
		Return(map[string]interface{}{"suggested_category": "News"}, nil)

	outcome, err := assistant.ClassifyBookmark(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "News", outcome.SuggestedCategory)
	assert.Equal(t, []string{"News"}, outcome.ExistingCategories)

	stored, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Category)
}
