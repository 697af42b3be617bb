package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
	"github.com/ternarybob/litemark/internal/services/bookmarks"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// handleListBookmarks implements the list_bookmarks tool
func handleListBookmarks(source BookmarkSource, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		category := strings.TrimSpace(request.GetString("category", ""))
		includeHidden := request.GetBool("include_hidden", false)

		all, err := source.List(ctx, includeHidden)
		if err != nil {
			logger.Error().Err(err).Msg("MCP list_bookmarks failed")
			return mcp.NewToolResultError(fmt.Sprintf("List error: %v", err)), nil
		}

		if category != "" {
			filtered := make([]*models.Bookmark, 0, len(all))
			for _, b := range all {
				if b.CategoryName() == category {
					filtered = append(filtered, b)
				}
			}
			all = filtered
		}

		return mcp.NewToolResultText(formatBookmarkList(category, all)), nil
	}
}

// handleSearchBookmarks implements the search_bookmarks tool
func handleSearchBookmarks(source BookmarkSource, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || strings.TrimSpace(query) == "" {
			return mcp.NewToolResultError("Error: query parameter is required"), nil
		}

		limit := request.GetInt("limit", defaultSearchLimit)
		if limit <= 0 {
			limit = defaultSearchLimit
		}
		if limit > maxSearchLimit {
			limit = maxSearchLimit
		}

		results, err := source.Search(ctx, query, limit)
		if err != nil {
			logger.Error().Err(err).Str("query", query).Msg("MCP search_bookmarks failed")
			return mcp.NewToolResultError(fmt.Sprintf("Search error: %v", err)), nil
		}

		return mcp.NewToolResultText(formatSearchResults(query, results)), nil
	}
}

// handleGetBookmark implements the get_bookmark tool
func handleGetBookmark(source BookmarkSource, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("bookmark_id")
		if err != nil || id == "" {
			return mcp.NewToolResultError("Error: bookmark_id parameter is required"), nil
		}

		b, err := source.Get(ctx, id)
		if errors.Is(err, interfaces.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Bookmark not found: %s", id)), nil
		}
		if err != nil {
			logger.Error().Err(err).Str("bookmark_id", id).Msg("MCP get_bookmark failed")
			return mcp.NewToolResultError(fmt.Sprintf("Get error: %v", err)), nil
		}

		return mcp.NewToolResultText(formatBookmark(b)), nil
	}
}

// handleListCategories implements the list_categories tool
func handleListCategories(source BookmarkSource, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		categories, err := source.Categories(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("MCP list_categories failed")
			return mcp.NewToolResultError(fmt.Sprintf("Categories error: %v", err)), nil
		}
		return mcp.NewToolResultText(formatCategories(categories)), nil
	}
}

// handleAddBookmark implements the add_bookmark tool
func handleAddBookmark(source BookmarkSource, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil || strings.TrimSpace(url) == "" {
			return mcp.NewToolResultError("Error: url parameter is required"), nil
		}
		title, err := request.RequireString("title")
		if err != nil || strings.TrimSpace(title) == "" {
			return mcp.NewToolResultError("Error: title parameter is required"), nil
		}

		req := bookmarks.CreateRequest{Title: title, URL: url}
		if category := request.GetString("category", ""); category != "" {
			req.Category = &category
		}
		if description := request.GetString("description", ""); description != "" {
			req.Description = &description
		}

		b, err := source.Create(ctx, req)
		if err != nil {
			logger.Error().Err(err).Str("url", url).Msg("MCP add_bookmark failed")
			return mcp.NewToolResultError(fmt.Sprintf("Create error: %v", err)), nil
		}

		logger.Info().Str("id", b.ID).Str("url", b.URL).Msg("Bookmark added over MCP")
		return mcp.NewToolResultText(formatBookmark(b)), nil
	}
}
