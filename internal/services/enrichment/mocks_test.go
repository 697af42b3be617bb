package enrichment

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/ternarybob/litemark/internal/models"
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
