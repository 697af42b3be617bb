package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/models"
)

func newOpenAIServer(t *testing.T, handler func(payload OpenAIRequestPayload) (int, string)) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload OpenAIRequestPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		status, content := handler(payload)
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(content))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestService(t *testing.T, baseURL string) *Service {
	t.Helper()
	config := common.NewDefaultConfig()
	config.LLM.MaxRetries = 0
	service := NewService(config, arbor.NewLogger())
	service.ApplySettings(models.AISettings{APIKey: "test-key", BaseURL: baseURL, Model: "test-model"})
	return service
}

func TestCompleteJSON_NotConfigured(t *testing.T) {
	service := NewService(common.NewDefaultConfig(), arbor.NewLogger())
	assert.False(t, service.IsConfigured())

	_, err := service.CompleteJSON(context.Background(), "hi", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCompleteJSON_SendsJSONModeAndParses(t *testing.T) {
	server, calls := newOpenAIServer(t, func(payload OpenAIRequestPayload) (int, string) {
		assert.Equal(t, "test-model", payload.Model)
		assert.Equal(t, defaultMaxTokens, payload.MaxTokens)
		assert.InDelta(t, defaultTemperature, payload.Temperature, 0.001)
		require.NotNil(t, payload.ResponseFormat)
		assert.Equal(t, "json_object", payload.ResponseFormat.Type)
		require.Len(t, payload.Messages, 2)
		assert.Equal(t, "system", payload.Messages[0].Role)
		assert.Contains(t, payload.Messages[0].Content, jsonInstruction)
		return http.StatusOK, "```json\n{\"summary\":\"A site\"}\n```"
	})

	service := newTestService(t, server.URL)
	result, err := service.CompleteJSON(context.Background(), "summarize", "You summarize pages")
	require.NoError(t, err)
	assert.Equal(t, "A site", result["summary"])
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	status := service.Status()
	assert.True(t, status.Configured)
	assert.Equal(t, int64(1), status.Audit.Calls)
}

func TestCompleteJSON_FallsBackToPlainMode(t *testing.T) {
	server, calls := newOpenAIServer(t, func(payload OpenAIRequestPayload) (int, string) {
		if payload.ResponseFormat != nil {
			return http.StatusBadRequest, `{"error":{"message":"response_format not supported"}}`
		}
		return http.StatusOK, `{"suggested_category":"News","confidence":0.8}`
	})

	service := newTestService(t, server.URL)
	result, err := service.CompleteJSON(context.Background(), "classify", "")
	require.NoError(t, err)
	assert.Equal(t, "News", result["suggested_category"])
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestCompleteJSON_ProviderErrorIsReturned(t *testing.T) {
	server, _ := newOpenAIServer(t, func(payload OpenAIRequestPayload) (int, string) {
		return http.StatusInternalServerError, "boom"
	})

	service := newTestService(t, server.URL)
	_, err := service.CompleteJSON(context.Background(), "x", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")

	status := service.Status()
	assert.Equal(t, int64(1), status.Audit.Failures)
	assert.NotEmpty(t, status.Audit.LastError)
}

func TestCompleteJSON_NonJSONReplyYieldsEmptyMap(t *testing.T) {
	server, _ := newOpenAIServer(t, func(payload OpenAIRequestPayload) (int, string) {
		return http.StatusOK, "sorry, no idea"
	})

	service := newTestService(t, server.URL)
	result, err := service.CompleteJSON(context.Background(), "x", "")
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestAuditLog_RingKeepsNewest(t *testing.T) {
	audit := NewAuditLog(2)
	audit.Record(common.LLMProviderOpenAI, "a", 0, nil)
	audit.Record(common.LLMProviderOpenAI, "b", 0, nil)
	audit.Record(common.LLMProviderOpenAI, "c", 0, nil)

	stats := audit.Stats(5)
	assert.Equal(t, int64(3), stats.Calls)
	require.Len(t, stats.Recent, 2)
	assert.Equal(t, "c", stats.Recent[0].Model)
	assert.Equal(t, "b", stats.Recent[1].Model)
}
