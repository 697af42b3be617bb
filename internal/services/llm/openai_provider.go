package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	config  *common.OpenAIConfig
	client  *http.Client
	logger  arbor.ILogger
}

// NewOpenAIProvider creates a provider for baseURL (default https://api.openai.com/v1)
func NewOpenAIProvider(apiKey, baseURL string, config *common.OpenAIConfig, timeout time.Duration, logger arbor.ILogger) *OpenAIProvider {
	if baseURL == "" {
		baseURL = config.BaseURL
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		config:  config,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// OpenAIRequestPayload defines the structure for the chat completions request
type OpenAIRequestPayload struct {
	Model          string                `json:"model"`
	Messages       []OpenAIMessage       `json:"messages"`
	Temperature    float32               `json:"temperature"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *OpenAIResponseFormat `json:"response_format,omitempty"`
}

// OpenAIResponseFormat specifies the output format (e.g. "json_object")
type OpenAIResponseFormat struct {
	Type string `json:"type"`
}

// OpenAIMessage defines a message in the conversation
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIResponsePayload defines the parts of the response we read
type OpenAIResponsePayload struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      OpenAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Name returns the provider type
func (p *OpenAIProvider) Name() common.LLMProvider {
	return common.LLMProviderOpenAI
}

// Complete sends the request. In JSON mode it first asks for response_format=json_object and,
// if the endpoint rejects that, retries once in plain mode.
func (p *OpenAIProvider) Complete(ctx context.Context, request *CompletionRequest) (string, error) {
	payload := OpenAIRequestPayload{
		Model:       NormalizeModel(request.Model),
		Temperature: request.Temperature,
		MaxTokens:   request.MaxTokens,
	}
	if payload.Model == "" {
		payload.Model = p.config.Model
	}
	if payload.MaxTokens <= 0 {
		payload.MaxTokens = p.config.MaxTokens
	}
	if request.SystemPrompt != "" {
		payload.Messages = append(payload.Messages, OpenAIMessage{Role: "system", Content: request.SystemPrompt})
	}
	payload.Messages = append(payload.Messages, OpenAIMessage{Role: "user", Content: request.Prompt})

	if request.JSONMode {
		payload.ResponseFormat = &OpenAIResponseFormat{Type: "json_object"}
		text, err := p.send(ctx, &payload)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil || IsRateLimitError(err) {
			return "", err
		}
		p.logger.Debug().Err(err).Str("model", payload.Model).Msg("JSON mode rejected, retrying in plain mode")
		payload.ResponseFormat = nil
	}

	return p.send(ctx, &payload)
}

func (p *OpenAIProvider) send(ctx context.Context, payload *OpenAIRequestPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAI API returned status %d: %s", resp.StatusCode, common.Truncate(strings.TrimSpace(string(respBody)), 300))
	}

	var parsed OpenAIResponsePayload
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	return parsed.Choices[0].Message.Content, nil
}
