package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"google.golang.org/genai"
)

// GeminiProvider uses the Google Gemini API
type GeminiProvider struct {
	client  *genai.Client
	config  *common.GeminiConfig
	timeout time.Duration
	logger  arbor.ILogger
}

// NewGeminiProvider creates a Gemini provider for apiKey
func NewGeminiProvider(ctx context.Context, apiKey string, config *common.GeminiConfig, timeout time.Duration, logger arbor.ILogger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:  client,
		config:  config,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Name returns the provider type
func (p *GeminiProvider) Name() common.LLMProvider {
	return common.LLMProviderGemini
}

// Complete sends one user turn. JSONMode sets the application/json response MIME type.
func (p *GeminiProvider) Complete(ctx context.Context, request *CompletionRequest) (string, error) {
	model := NormalizeModel(request.Model)
	if model == "" || DetectProvider(model, common.LLMProviderGemini) != common.LLMProviderGemini {
		model = p.config.Model
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = p.config.Temperature
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temp),
	}
	if request.MaxTokens > 0 {
		config.MaxOutputTokens = int32(request.MaxTokens)
	}
	if request.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(request.SystemPrompt, genai.RoleUser)
	}
	if request.JSONMode {
		config.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{
		genai.NewContentFromText(request.Prompt, genai.RoleUser),
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Models.GenerateContent(callCtx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}
	return text, nil
}
