package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]interface{}
	}{
		{
			name: "plain object",
			text: `{"summary":"ok"}`,
			want: map[string]interface{}{"summary": "ok"},
		},
		{
			name: "fenced block",
			text: "Here you go:\n```json\n{\"suggested_category\":\"Dev\"}\n```\nthanks",
			want: map[string]interface{}{"suggested_category": "Dev"},
		},
		{
			name: "brace span in prose",
			text: `Result: {"confidence": 0.9} done`,
			want: map[string]interface{}{"confidence": 0.9},
		},
		{
			name: "no json",
			text: "I cannot help with that",
			want: map[string]interface{}{},
		},
		{
			name: "array is not an object",
			text: `["a","b"]`,
			want: map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.text))
		})
	}
}

func TestEnhanceSystemPrompt(t *testing.T) {
	assert.Equal(t, defaultSystemPrompt, enhanceSystemPrompt("  "))
	assert.Equal(t, "Be brief\n"+jsonInstruction, enhanceSystemPrompt("Be brief"))
}
