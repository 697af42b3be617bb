package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func createListBookmarksTool() mcp.Tool {
	return mcp.NewTool("list_bookmarks",
		mcp.WithDescription("List saved bookmarks in display order, optionally limited to one category"),
		mcp.WithString("category",
			mcp.Description("Only bookmarks in this category"),
		),
		mcp.WithBoolean("include_hidden",
			mcp.Description("Include bookmarks marked hidden (default: false)"),
		),
	)
}

func createSearchBookmarksTool() mcp.Tool {
	return mcp.NewTool("search_bookmarks",
		mcp.WithDescription("Find visible bookmarks whose title, URL, description or tags contain the query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Case-insensitive text to look for"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results to return (default: 20, max: 100)"),
		),
	)
}

func createGetBookmarkTool() mcp.Tool {
	return mcp.NewTool("get_bookmark",
		mcp.WithDescription("Retrieve a single bookmark by id"),
		mcp.WithString("bookmark_id",
			mcp.Required(),
			mcp.Description("Bookmark id"),
		),
	)
}

func createListCategoriesTool() mcp.Tool {
	return mcp.NewTool("list_categories",
		mcp.WithDescription("List bookmark categories in display order"),
	)
}

func createAddBookmarkTool() mcp.Tool {
	return mcp.NewTool("add_bookmark",
		mcp.WithDescription("Save a new bookmark at the end of its category"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Page URL"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Bookmark title"),
		),
		mcp.WithString("category",
			mcp.Description("Category name; empty leaves the bookmark unclassified"),
		),
		mcp.WithString("description",
			mcp.Description("Short description"),
		),
	)
}
