package interfaces

import "context"

// LLMService completes prompts that are expected to return a JSON object.
// Extraction is tolerant: a response with no recoverable object yields an empty map, not an error.
type LLMService interface {
	CompleteJSON(ctx context.Context, prompt string, systemPrompt string) (map[string]interface{}, error)

	// IsConfigured reports whether a provider with credentials is available
	IsConfigured() bool
}
