package llm

import (
	"strings"
	"sync/atomic"

	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/models"
)

// PlaceholderAPIKey is accepted by some OpenAI-compatible servers but never counts as configured
const PlaceholderAPIKey = "sk-no-key-required"

// RuntimeConfig is the effective provider configuration for one call.
// Values are immutable once published; Version changes on every update.
type RuntimeConfig struct {
	Version  uint64
	Provider common.LLMProvider
	APIKey   string
	BaseURL  string
	Model    string
}

// IsConfigured reports whether the config carries a usable API key
func (c RuntimeConfig) IsConfigured() bool {
	key := strings.TrimSpace(c.APIKey)
	return key != "" && key != PlaceholderAPIKey
}

// RuntimeConfigCell holds the current RuntimeConfig.
// Readers call Load once per operation and never observe a partial update.
type RuntimeConfigCell struct {
	base    *common.Config
	current atomic.Pointer[RuntimeConfig]
}

// NewRuntimeConfigCell creates a cell holding the file/env configuration
func NewRuntimeConfigCell(base *common.Config) *RuntimeConfigCell {
	cell := &RuntimeConfigCell{base: base}
	initial := Resolve(base, models.AISettings{})
	initial.Version = 1
	cell.current.Store(&initial)
	return cell
}

// Load returns the current configuration
func (c *RuntimeConfigCell) Load() RuntimeConfig {
	return *c.current.Load()
}

// Apply overlays non-empty settings on the base configuration and publishes the result
func (c *RuntimeConfigCell) Apply(settings models.AISettings) RuntimeConfig {
	next := Resolve(c.base, settings)
	for {
		prev := c.current.Load()
		next.Version = prev.Version + 1
		if c.current.CompareAndSwap(prev, &next) {
			return next
		}
	}
}

// Resolve computes the effective configuration: non-empty settings win over the base config
func Resolve(base *common.Config, settings models.AISettings) RuntimeConfig {
	provider := base.LLM.DefaultProvider
	if p := strings.ToLower(strings.TrimSpace(settings.Provider)); p != "" {
		provider = common.LLMProvider(p)
	}

	cfg := RuntimeConfig{Provider: provider}

	switch provider {
	case common.LLMProviderClaude:
		cfg.APIKey = base.Claude.APIKey
		cfg.Model = base.Claude.Model
	case common.LLMProviderGemini:
		cfg.APIKey = base.Gemini.APIKey
		cfg.Model = base.Gemini.Model
	default:
		cfg.Provider = common.LLMProviderOpenAI
		cfg.APIKey = base.OpenAI.APIKey
		cfg.BaseURL = base.OpenAI.BaseURL
		cfg.Model = base.OpenAI.Model
	}

	if v := strings.TrimSpace(settings.APIKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(settings.BaseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(settings.Model); v != "" {
		cfg.Model = v
	}

	return cfg
}
