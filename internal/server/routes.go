package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// MCP streamable HTTP transport
	mux.Handle("/mcp", s.app.MCPHandler)

	// API routes - Bookmarks
	mux.HandleFunc("/api/bookmarks", s.handleBookmarksRoute)                                            // GET (list), POST (create)
	mux.HandleFunc("/api/bookmarks/import", s.app.BookmarkHandler.ImportHandler)                        // POST
	mux.HandleFunc("/api/bookmarks/import/github", s.app.ImportHandler.GitHubStarsHandler)              // POST
	mux.HandleFunc("/api/bookmarks/reorder", s.app.BookmarkHandler.ReorderHandler)                      // POST
	mux.HandleFunc("/api/bookmarks/reorder-categories", s.app.BookmarkHandler.ReorderCategoriesHandler) // POST
	mux.HandleFunc("/api/bookmarks/categories", s.app.BookmarkHandler.CategoriesHandler)                // GET, POST
	mux.HandleFunc("/api/bookmarks/categories/", s.app.BookmarkHandler.DeleteCategoryHandler)           // DELETE /{name}
	mux.HandleFunc("/api/bookmarks/", s.handleBookmarkRoutes)                                           // GET/PUT/DELETE /{id}

	// API routes - AI
	mux.HandleFunc("/api/ai/status", s.app.AIHandler.StatusHandler)
	mux.HandleFunc("/api/ai/classify", s.app.AIHandler.ClassifyHandler)
	mux.HandleFunc("/api/ai/summarize", s.app.AIHandler.SummarizeHandler)
	mux.HandleFunc("/api/ai/batch", s.app.AIHandler.BatchHandler)
	mux.HandleFunc("/api/ai/task/", s.app.AIHandler.TaskHandler) // GET /{id}
	mux.HandleFunc("/api/ai/tasks", s.app.AIHandler.TasksHandler)
	mux.HandleFunc("/api/ai/fetch-page-info", s.app.AIHandler.FetchPageInfoHandler)
	mux.HandleFunc("/api/ai/quick-add", s.app.AIHandler.QuickAddHandler)
	mux.HandleFunc("/api/ai/quick-add-with-title", s.app.AIHandler.QuickAddHandler)
	mux.HandleFunc("/api/ai/quick-add-with-category", s.app.AIHandler.QuickAddHandler)

	// API routes - Settings
	mux.HandleFunc("/api/settings", s.app.SettingsHandler.SiteSettingsHandler)     // GET, PUT
	mux.HandleFunc("/api/settings/ai", s.app.AIHandler.AISettingsHandler)          // GET, PUT
	mux.HandleFunc("/api/settings/ai/test", s.app.AIHandler.TestAISettingsHandler) // POST
	mux.HandleFunc("/api/settings/imap", s.app.ImportHandler.IMAPSettingsHandler)  // GET, PUT

	// API routes - Save-by-email
	mux.HandleFunc("/api/inbox/check", s.app.ImportHandler.InboxCheckHandler) // POST

	// API routes - Backup
	mux.HandleFunc("/api/backup/export", s.app.BackupHandler.ExportHandler)                    // GET
	mux.HandleFunc("/api/backup/import", s.app.BackupHandler.ImportHandler)                    // POST
	mux.HandleFunc("/api/backup/webdav", s.app.BackupHandler.WebDAVHandler)                    // GET, PUT, POST
	mux.HandleFunc("/api/backup/schedule", s.app.BackupHandler.ScheduleHandler)                // GET
	mux.HandleFunc("/api/backup/schedule/trigger", s.app.BackupHandler.TriggerScheduleHandler) // POST

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleBookmarksRoute routes /api/bookmarks requests (list and create)
func (s *Server) handleBookmarksRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r, s.app.BookmarkHandler.ListHandler, s.app.BookmarkHandler.CreateHandler)
}

// handleBookmarkRoutes routes /api/bookmarks/{id} requests
func (s *Server) handleBookmarkRoutes(w http.ResponseWriter, r *http.Request) {
	suffix := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/bookmarks/"), "/")
	if suffix == "" {
		s.handleBookmarksRoute(w, r)
		return
	}
	if strings.Contains(suffix, "/") {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	RouteResourceItem(w, r,
		s.app.BookmarkHandler.GetHandler,
		s.app.BookmarkHandler.UpdateHandler,
		s.app.BookmarkHandler.DeleteHandler,
	)
}
