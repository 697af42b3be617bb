package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
)

// ErrNotConfigured is returned when no API key is available for the active provider
var ErrNotConfigured = errors.New("AI is not configured")

// CompletionRequest is a provider-agnostic single-turn completion
type CompletionRequest struct {
	SystemPrompt string
	Prompt       string
	Model        string
	Temperature  float32
	MaxTokens    int
	JSONMode     bool // ask the provider for a JSON object response when it supports it
}

// Provider generates text for one completion request
type Provider interface {
	Complete(ctx context.Context, request *CompletionRequest) (string, error)
	Name() common.LLMProvider
}

// ProviderFactory builds providers for a RuntimeConfig and caches one per config version
type ProviderFactory struct {
	config *common.Config
	logger arbor.ILogger

	mu      sync.Mutex
	version uint64
	cached  Provider
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(config *common.Config, logger arbor.ILogger) *ProviderFactory {
	return &ProviderFactory{
		config: config,
		logger: logger,
	}
}

// DetectProvider determines the provider from a model string.
// "claude-..." and "anthropic/..." select Claude, "gemini-..." and "google/..." select Gemini,
// anything else uses fallback.
func DetectProvider(model string, fallback common.LLMProvider) common.LLMProvider {
	model = strings.ToLower(strings.TrimSpace(model))

	switch {
	case strings.HasPrefix(model, "claude/"), strings.HasPrefix(model, "anthropic/"), strings.HasPrefix(model, "claude-"):
		return common.LLMProviderClaude
	case strings.HasPrefix(model, "gemini/"), strings.HasPrefix(model, "google/"), strings.HasPrefix(model, "gemini-"):
		return common.LLMProviderGemini
	case strings.HasPrefix(model, "openai/"):
		return common.LLMProviderOpenAI
	}
	return fallback
}

// NormalizeModel removes a provider prefix from model name if present
func NormalizeModel(model string) string {
	for _, prefix := range []string{"claude/", "anthropic/", "gemini/", "google/", "openai/"} {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// Get returns the provider for cfg, reusing the cached one while cfg.Version is unchanged
func (f *ProviderFactory) Get(ctx context.Context, cfg RuntimeConfig) (Provider, error) {
	if !cfg.IsConfigured() {
		return nil, ErrNotConfigured
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached != nil && f.version == cfg.Version {
		return f.cached, nil
	}

	provider, err := f.build(ctx, cfg)
	if err != nil {
		return nil, err
	}

	f.cached = provider
	f.version = cfg.Version

	f.logger.Info().
		Str("provider", string(provider.Name())).
		Str("model", cfg.Model).
		Int("config_version", int(cfg.Version)).
		Msg("LLM provider initialized")

	return provider, nil
}

func (f *ProviderFactory) build(ctx context.Context, cfg RuntimeConfig) (Provider, error) {
	timeout := common.ParseDurationOr(f.config.LLM.Timeout, 60*time.Second)

	switch cfg.Provider {
	case common.LLMProviderClaude:
		return NewClaudeProvider(cfg.APIKey, &f.config.Claude, timeout, f.logger), nil
	case common.LLMProviderGemini:
		return NewGeminiProvider(ctx, cfg.APIKey, &f.config.Gemini, timeout, f.logger)
	case common.LLMProviderOpenAI, "":
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, &f.config.OpenAI, timeout, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
