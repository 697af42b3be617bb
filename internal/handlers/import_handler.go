package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/services/githubstars"
	"github.com/ternarybob/litemark/internal/services/inbox"
	"github.com/ternarybob/litemark/internal/services/kv"
)

// StarsImporter imports starred repositories as bookmarks
type StarsImporter interface {
	Import(ctx context.Context, user, category string) (*githubstars.Result, error)
}

// MailboxChecker saves links from unseen mail
type MailboxChecker interface {
	Check(ctx context.Context) (*inbox.Result, error)
	TestConnection(ctx context.Context) error
}

// ImportHandler serves the external import sources: GitHub stars and save-by-email
type ImportHandler struct {
	stars    StarsImporter
	mailbox  MailboxChecker
	settings *kv.Service
	logger   arbor.ILogger
}

// NewImportHandler creates an import handler
func NewImportHandler(stars StarsImporter, mailbox MailboxChecker, settings *kv.Service, logger arbor.ILogger) *ImportHandler {
	return &ImportHandler{
		stars:    stars,
		mailbox:  mailbox,
		settings: settings,
		logger:   logger,
	}
}

// GitHubStarsRequest names whose stars to import; an empty user means the token's account
type GitHubStarsRequest struct {
	User     string `json:"user" validate:"omitempty,max=39"`
	Category string `json:"category"`
}

// GitHubStarsHandler handles POST /api/bookmarks/import/github
func (h *ImportHandler) GitHubStarsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req GitHubStarsRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteServiceError(w, err, "Invalid request")
		return
	}

	result, err := h.stars.Import(r.Context(), req.User, req.Category)
	if err != nil {
		h.logger.Warn().Err(err).Str("user", req.User).Msg("GitHub stars import failed")
		status := StatusForError(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		WriteError(w, status, fmt.Sprintf("GitHub import failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// InboxCheckHandler handles POST /api/inbox/check
func (h *ImportHandler) InboxCheckHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	result, err := h.mailbox.Check(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Mailbox check failed")
		WriteServiceError(w, err, fmt.Sprintf("Mailbox check failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// IMAPSettingsHandler handles GET (?test=true probes the server) and PUT /api/settings/imap.
// The password is always returned masked.
func (h *ImportHandler) IMAPSettingsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		if QueryBool(r, "test") {
			if err := h.mailbox.TestConnection(r.Context()); err != nil {
				status := StatusForError(err)
				if status == http.StatusInternalServerError {
					status = http.StatusBadRequest
				}
				WriteError(w, status, fmt.Sprintf("IMAP connection failed: %v", err))
				return
			}
			WriteSuccess(w, "IMAP connection succeeded")
			return
		}

		cfg, err := h.settings.IMAPConfig(r.Context())
		if err != nil {
			WriteServiceError(w, err, "Failed to load IMAP settings")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"config":     cfg.Masked(),
			"configured": cfg.IsComplete(),
		})

	case "PUT":
		var req kv.IMAPConfigUpdate
		if err := DecodeJSON(r, &req); err != nil {
			WriteServiceError(w, err, "Invalid request")
			return
		}
		cfg, err := h.settings.SaveIMAPConfig(r.Context(), req)
		if err != nil {
			WriteServiceError(w, err, "Failed to save IMAP settings")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"config":  cfg.Masked(),
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
