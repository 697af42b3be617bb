package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/services/kv"
)

// SettingsHandler serves the site display settings
type SettingsHandler struct {
	settings *kv.Service
	logger   arbor.ILogger
}

// NewSettingsHandler creates a settings handler
func NewSettingsHandler(settings *kv.Service, logger arbor.ILogger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		logger:   logger,
	}
}

// SiteSettingsHandler handles GET and PUT /api/settings
func (h *SettingsHandler) SiteSettingsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		site, err := h.settings.SiteSettings(r.Context())
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to load site settings")
			WriteServiceError(w, err, "Failed to load settings")
			return
		}
		WriteJSON(w, http.StatusOK, site)

	case "PUT":
		var req kv.SiteSettingsUpdate
		if err := DecodeJSON(r, &req); err != nil {
			WriteServiceError(w, err, "Invalid request")
			return
		}
		site, err := h.settings.SaveSiteSettings(r.Context(), req)
		if err != nil {
			WriteServiceError(w, err, "Failed to save settings")
			return
		}
		WriteJSON(w, http.StatusOK, site)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
