package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/services/backup"
	"github.com/ternarybob/litemark/internal/services/bookmarks"
	"github.com/ternarybob/litemark/internal/services/enrichment"
	"github.com/ternarybob/litemark/internal/services/inbox"
	"github.com/ternarybob/litemark/internal/services/kv"
	"github.com/ternarybob/litemark/internal/services/llm"
	"github.com/ternarybob/litemark/internal/services/ordering"
	"github.com/ternarybob/litemark/internal/services/scheduler"
	"github.com/ternarybob/litemark/internal/services/tasks"
)

// maxRequestBody bounds JSON request bodies; backup imports use maxImportBody
const (
	maxRequestBody = 1 << 20
	maxImportBody  = 32 << 20
)

var validate = validator.New()

// errBadRequest marks malformed or invalid request bodies
var errBadRequest = errors.New("bad request")

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a standard success JSON response.
func WriteSuccess(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": message,
	})
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// DecodeJSON reads a JSON body into dst and runs validator tags on it.
// Errors wrap errBadRequest.
func DecodeJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: empty body", errBadRequest)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// StatusForError maps service errors to HTTP status codes
func StatusForError(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrNotFound), errors.Is(err, interfaces.ErrKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, llm.ErrNotConfigured), errors.Is(err, tasks.ErrRegistryClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, backup.ErrBackupInProgress),
		errors.Is(err, scheduler.ErrJobRunning),
		errors.Is(err, inbox.ErrCheckInProgress):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, common.ErrInvalidBackupTime),
		errors.Is(err, kv.ErrInvalidSetting),
		errors.Is(err, enrichment.ErrUnknownOperation),
		errors.Is(err, backup.ErrInvalidDocument),
		errors.Is(err, backup.ErrIncompleteConfig),
		errors.Is(err, ordering.ErrInvalidCategory),
		errors.Is(err, inbox.ErrNotConfigured),
		errors.Is(err, bookmarks.ErrPageUnavailable):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// WriteServiceError writes err with the status StatusForError picks.
// Internal errors are reported with fallback instead of the raw message.
func WriteServiceError(w http.ResponseWriter, err error, fallback string) {
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		WriteError(w, status, fallback)
		return
	}
	WriteError(w, status, err.Error())
}

// PathParam returns the unescaped path segment after prefix, or "" when absent
func PathParam(r *http.Request, prefix string) string {
	raw := strings.TrimPrefix(r.URL.EscapedPath(), prefix)
	raw = strings.Trim(raw, "/")
	if raw == "" || strings.Contains(raw, "/") {
		return ""
	}
	value, err := url.PathUnescape(raw)
	if err != nil {
		return ""
	}
	return value
}

// QueryBool reads a boolean query parameter; anything but "true" or "1" is false
func QueryBool(r *http.Request, name string) bool {
	value := strings.ToLower(r.URL.Query().Get(name))
	return value == "true" || value == "1"
}
