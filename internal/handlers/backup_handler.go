package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/services/backup"
	"github.com/ternarybob/litemark/internal/services/kv"
)

// BackupHandler serves export/import, WebDAV configuration and backup runs
type BackupHandler struct {
	backup    *backup.Service
	settings  *kv.Service
	scheduler interfaces.SchedulerService
	logger    arbor.ILogger
}

// NewBackupHandler creates a backup handler
func NewBackupHandler(backupService *backup.Service, settings *kv.Service, scheduler interfaces.SchedulerService, logger arbor.ILogger) *BackupHandler {
	return &BackupHandler{
		backup:    backupService,
		settings:  settings,
		scheduler: scheduler,
		logger:    logger,
	}
}

// ExportHandler handles GET /api/backup/export?format=json|yaml
func (h *BackupHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	format, err := backup.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		WriteServiceError(w, err, "Invalid format")
		return
	}

	doc, err := h.backup.Export(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to export bookmarks")
		WriteServiceError(w, err, "Failed to export bookmarks")
		return
	}

	data, err := backup.Encode(doc, format)
	if err != nil {
		h.logger.Error().Err(err).Str("format", string(format)).Msg("Failed to encode export")
		WriteError(w, http.StatusInternalServerError, "Failed to encode export")
		return
	}

	filename := fmt.Sprintf("litemark-export-%s.%s", time.Now().Format("2006-01-02"), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ImportHandler handles POST /api/backup/import. Every bookmark and category row is replaced.
// The format comes from ?format, else from a YAML Content-Type, else JSON.
func (h *BackupHandler) ImportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	formatValue := r.URL.Query().Get("format")
	if formatValue == "" && strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		formatValue = "yaml"
	}
	format, err := backup.ParseFormat(formatValue)
	if err != nil {
		WriteServiceError(w, err, "Invalid format")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBody))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	result, err := h.backup.Import(r.Context(), data, format)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Backup import failed")
		WriteServiceError(w, err, "Failed to import backup")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":             true,
		"imported_bookmarks":  result.Bookmarks,
		"imported_categories": result.Categories,
	})
}

// WebDAVHandler routes /api/backup/webdav: GET config (?test=true probes the server),
// PUT saves config, POST runs a backup now
func (h *BackupHandler) WebDAVHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		if QueryBool(r, "test") {
			h.testConnection(w, r)
			return
		}
		h.getConfig(w, r)
	case "PUT":
		h.saveConfig(w, r)
	case "POST":
		h.runBackup(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BackupHandler) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.settings.WebDAVConfig(r.Context())
	if err != nil {
		WriteServiceError(w, err, "Failed to load WebDAV config")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"config":     cfg.Masked(),
		"configured": cfg.URL != "",
		"complete":   cfg.IsComplete(),
	})
}

func (h *BackupHandler) testConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.backup.TestConnection(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("WebDAV connection test failed")
		status := StatusForError(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		WriteError(w, status, fmt.Sprintf("WebDAV connection failed: %v", err))
		return
	}
	WriteSuccess(w, "WebDAV connection succeeded")
}

func (h *BackupHandler) saveConfig(w http.ResponseWriter, r *http.Request) {
	var req kv.WebDAVConfigUpdate
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err, "Invalid request")
		return
	}

	cfg, err := h.settings.SaveWebDAVConfig(r.Context(), req)
	if err != nil {
		WriteServiceError(w, err, "Failed to save WebDAV config")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "WebDAV configuration saved",
		"config":  cfg.Masked(),
	})
}

func (h *BackupHandler) runBackup(w http.ResponseWriter, r *http.Request) {
	result, err := h.backup.RunNow(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Manual WebDAV backup failed")
		status := StatusForError(err)
		WriteError(w, status, fmt.Sprintf("Backup failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  fmt.Sprintf("Backed up %d bookmarks", result.BookmarksCount),
		"filename": result.Filename,
		"deleted":  result.Deleted,
	})
}

// ScheduleHandler handles GET /api/backup/schedule
func (h *BackupHandler) ScheduleHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, h.scheduler.Status())
}

// TriggerScheduleHandler handles POST /api/backup/schedule/trigger.
// It runs the scheduled job now, which still honours the enabled switch.
func (h *BackupHandler) TriggerScheduleHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := h.scheduler.TriggerNow(); err != nil {
		h.logger.Warn().Err(err).Msg("Scheduled backup trigger failed")
		WriteServiceError(w, err, fmt.Sprintf("Backup job failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, h.scheduler.Status())
}
