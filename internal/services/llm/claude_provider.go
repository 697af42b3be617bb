package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
)

// ClaudeProvider uses the Anthropic Messages API
type ClaudeProvider struct {
	client anthropic.Client
	config *common.ClaudeConfig
	logger arbor.ILogger
}

// NewClaudeProvider creates a Claude provider for apiKey
func NewClaudeProvider(apiKey string, config *common.ClaudeConfig, timeout time.Duration, logger arbor.ILogger) *ClaudeProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	)
	return &ClaudeProvider{
		client: client,
		config: config,
		logger: logger,
	}
}

// Name returns the provider type
func (p *ClaudeProvider) Name() common.LLMProvider {
	return common.LLMProviderClaude
}

// Complete sends one user message. Claude has no JSON response mode, so JSONMode only
// relies on the system prompt.
func (p *ClaudeProvider) Complete(ctx context.Context, request *CompletionRequest) (string, error) {
	model := NormalizeModel(request.Model)
	if model == "" || DetectProvider(model, common.LLMProviderClaude) != common.LLMProviderClaude {
		model = p.config.Model
	}

	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(request.Prompt)),
		},
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = p.config.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}

	if request.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: request.SystemPrompt},
		}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("no text in Claude response")
	}
	return text.String(), nil
}
