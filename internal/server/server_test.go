package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/app"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = t.TempDir()
	cfg.OpenAI.APIKey = ""

	application, err := app.New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	return New(application).Handler()
}

func request(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_BookmarkLifecycle(t *testing.T) {
	h := newTestServer(t)

	rec := request(t, h, "POST", "/api/bookmarks", map[string]string{
		"title": "Go", "url": "https://go.dev", "category": "dev",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var created models.Bookmark
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = request(t, h, "GET", "/api/bookmarks/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = request(t, h, "GET", "/api/bookmarks", nil)
	assert.Contains(t, rec.Body.String(), created.ID)

	rec = request(t, h, "GET", "/api/bookmarks/categories", nil)
	assert.JSONEq(t, `{"categories":["dev"]}`, rec.Body.String())

	rec = request(t, h, "PATCH", "/api/bookmarks/"+created.ID, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = request(t, h, "GET", "/api/bookmarks/"+created.ID+"/extra", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(t, h, "DELETE", "/api/bookmarks/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRoutes_SystemAndNotFound(t *testing.T) {
	h := newTestServer(t)

	rec := request(t, h, "GET", "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = request(t, h, "GET", "/api/version", nil)
	assert.Contains(t, rec.Body.String(), "backup_version")

	rec = request(t, h, "GET", "/api/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(t, h, "OPTIONS", "/api/bookmarks", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutes_AIWithoutKey(t *testing.T) {
	h := newTestServer(t)

	rec := request(t, h, "GET", "/api/ai/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"openai_configured":false`)

	rec = request(t, h, "POST", "/api/ai/batch", map[string][]string{"operations": {"summarize"}})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = request(t, h, "POST", "/api/ai/quick-add", map[string]string{"url": "https://go.dev"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRoutes_WebDAVSettingsRescheduleBackup(t *testing.T) {
	h := newTestServer(t)

	rec := request(t, h, "GET", "/api/backup/schedule", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status interfaces.JobStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "02:00", status.Time)

	rec = request(t, h, "PUT", "/api/backup/webdav", map[string]string{"backup_time": "3:30"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = request(t, h, "GET", "/api/backup/schedule", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "03:30", status.Time)
	assert.True(t, status.Scheduled)

	rec = request(t, h, "PUT", "/api/backup/webdav", map[string]string{"backup_time": "25:00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = request(t, h, "GET", "/api/backup/webdav", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"configured":false`)

	// Manual backup without a server configured
	rec = request(t, h, "POST", "/api/backup/webdav", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutes_ExportImportRoundTrip(t *testing.T) {
	h := newTestServer(t)

	rec := request(t, h, "POST", "/api/bookmarks", map[string]string{"title": "Go", "url": "https://go.dev"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = request(t, h, "GET", "/api/backup/export?format=yaml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".yaml")
	exported := rec.Body.Bytes()

	req := httptest.NewRequest("POST", "/api/backup/import", bytes.NewReader(exported))
	req.Header.Set("Content-Type", "application/x-yaml")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"imported_bookmarks":1`)
}

func TestRoutes_MCPInitialize(t *testing.T) {
	h := newTestServer(t)

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`
	req := httptest.NewRequest("POST", "/mcp", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"litemark"`)
}

func TestRoutes_ExportMarkdownAndPDF(t *testing.T) {
	h := newTestServer(t)

	rec := request(t, h, "POST", "/api/bookmarks", map[string]string{"title": "Go", "url": "https://go.dev", "category": "dev"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = request(t, h, "GET", "/api/backup/export?format=md", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "## dev")
	assert.Contains(t, rec.Body.String(), "[Go](<https://go.dev>)")

	rec = request(t, h, "GET", "/api/backup/export?format=pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	rec = request(t, h, "POST", "/api/backup/import?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutes_InboxAndIMAPSettings(t *testing.T) {
	h := newTestServer(t)

	rec := request(t, h, "POST", "/api/inbox/check", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = request(t, h, "PUT", "/api/settings/imap", map[string]interface{}{
		"host": "127.0.0.1", "username": "me", "password": "secret", "mailbox": "Links",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = request(t, h, "GET", "/api/settings/imap", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mailbox":"Links"`)
	assert.NotContains(t, rec.Body.String(), "secret")
}
