package llm

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
)

const (
	jsonInstruction     = "Always return the result as JSON with no extra text"
	defaultSystemPrompt = "You are an assistant, always return JSON"
	defaultTemperature  = 0.3
	defaultMaxTokens    = 1000
)

// Status describes the active AI configuration without exposing secrets
type Status struct {
	Configured bool               `json:"openai_configured"`
	Provider   common.LLMProvider `json:"provider"`
	Model      string             `json:"openai_model"`
	BaseURL    string             `json:"openai_base_url"`
	Version    uint64             `json:"config_version"`
	Audit      AuditStats         `json:"audit"`
}

// Service implements interfaces.LLMService on top of the configured provider
type Service struct {
	config  *common.Config
	cell    *RuntimeConfigCell
	factory *ProviderFactory
	audit   *AuditLog
	retry   *RetryConfig
	timeout time.Duration
	logger  arbor.ILogger
}

var _ interfaces.LLMService = (*Service)(nil)

// NewService creates an LLM service using the file/env configuration until settings are applied
func NewService(config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		config:  config,
		cell:    NewRuntimeConfigCell(config),
		factory: NewProviderFactory(config, logger),
		audit:   NewAuditLog(DefaultAuditSize),
		retry:   NewRetryConfig(config.LLM.MaxRetries),
		timeout: common.ParseDurationOr(config.LLM.Timeout, 60*time.Second),
		logger:  logger,
	}
}

// ApplySettings publishes a new runtime configuration. Calls already in flight keep the old one.
func (s *Service) ApplySettings(settings models.AISettings) {
	cfg := s.cell.Apply(settings)
	s.logger.Info().
		Str("provider", string(cfg.Provider)).
		Str("model", cfg.Model).
		Bool("configured", cfg.IsConfigured()).
		Int("config_version", int(cfg.Version)).
		Msg("AI settings applied")
}

// IsConfigured reports whether the current configuration has a usable API key
func (s *Service) IsConfigured() bool {
	return s.cell.Load().IsConfigured()
}

// Status returns the current configuration summary
func (s *Service) Status() Status {
	cfg := s.cell.Load()
	return Status{
		Configured: cfg.IsConfigured(),
		Provider:   cfg.Provider,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		Version:    cfg.Version,
		Audit:      s.audit.Stats(10),
	}
}

// CompleteJSON sends prompt with a JSON-enforcing system prompt and extracts the first JSON object.
// ErrNotConfigured is returned when no key is available.
func (s *Service) CompleteJSON(ctx context.Context, prompt string, systemPrompt string) (map[string]interface{}, error) {
	cfg := s.cell.Load()

	provider, err := s.factory.Get(ctx, cfg)
	if err != nil {
		return nil, err
	}

	request := &CompletionRequest{
		SystemPrompt: enhanceSystemPrompt(systemPrompt),
		Prompt:       prompt,
		Model:        cfg.Model,
		Temperature:  defaultTemperature,
		MaxTokens:    defaultMaxTokens,
		JSONMode:     true,
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := withRetry(callCtx, s.retry, s.logger, string(provider.Name()), func() (string, error) {
		return provider.Complete(callCtx, request)
	})
	s.audit.Record(provider.Name(), cfg.Model, time.Since(start), err)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("provider", string(provider.Name())).
			Str("model", cfg.Model).
			Msg("AI completion failed")
		return nil, err
	}

	result := ExtractJSON(text)
	if len(result) == 0 {
		s.logger.Debug().
			Str("provider", string(provider.Name())).
			Str("response", common.Truncate(text, 200)).
			Msg("No JSON object found in AI response")
	}
	return result, nil
}

func enhanceSystemPrompt(systemPrompt string) string {
	systemPrompt = strings.TrimSpace(systemPrompt)
	if systemPrompt == "" {
		return defaultSystemPrompt
	}
	return systemPrompt + "\n" + jsonInstruction
}
