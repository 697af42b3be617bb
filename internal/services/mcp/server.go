// Package mcp exposes the bookmark collection to MCP clients as a small set of tools.
package mcp

import (
	"context"
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/models"
	"github.com/ternarybob/litemark/internal/services/bookmarks"
)

// BookmarkSource is the part of the bookmark service the tools use
type BookmarkSource interface {
	List(ctx context.Context, includeHidden bool) ([]*models.Bookmark, error)
	Get(ctx context.Context, id string) (*models.Bookmark, error)
	Search(ctx context.Context, query string, limit int) ([]*models.Bookmark, error)
	Create(ctx context.Context, req bookmarks.CreateRequest) (*models.Bookmark, error)
	Categories(ctx context.Context) ([]string, error)
}

var _ BookmarkSource = (*bookmarks.Service)(nil)

// NewServer builds the MCP server with every bookmark tool registered
func NewServer(source BookmarkSource, logger arbor.ILogger) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"litemark",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createListBookmarksTool(), handleListBookmarks(source, logger))
	mcpServer.AddTool(createSearchBookmarksTool(), handleSearchBookmarks(source, logger))
	mcpServer.AddTool(createGetBookmarkTool(), handleGetBookmark(source, logger))
	mcpServer.AddTool(createListCategoriesTool(), handleListCategories(source, logger))
	mcpServer.AddTool(createAddBookmarkTool(), handleAddBookmark(source, logger))

	return mcpServer
}

// NewHTTPHandler serves the MCP streamable HTTP transport for source
func NewHTTPHandler(source BookmarkSource, logger arbor.ILogger) http.Handler {
	return server.NewStreamableHTTPServer(NewServer(source, logger))
}
