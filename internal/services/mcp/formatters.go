package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/litemark/internal/models"
)

// formatBookmarkList formats bookmarks grouped under their category headings
func formatBookmarkList(category string, list []*models.Bookmark) string {
	var sb strings.Builder
	if category != "" {
		sb.WriteString(fmt.Sprintf("## Bookmarks in \"%s\" (%d)\n\n", category, len(list)))
	} else {
		sb.WriteString(fmt.Sprintf("## Bookmarks (%d)\n\n", len(list)))
	}

	if len(list) == 0 {
		sb.WriteString("No bookmarks found.\n")
		return sb.String()
	}

	current := "\x00"
	for _, b := range list {
		if category == "" && b.CategoryName() != current {
			current = b.CategoryName()
			name := current
			if name == "" {
				name = "(unclassified)"
			}
			sb.WriteString(fmt.Sprintf("### %s\n", name))
		}
		sb.WriteString(fmt.Sprintf("- [%s](%s) `%s`\n", b.Title, b.URL, b.ID))
	}

	return sb.String()
}

// formatSearchResults formats search matches as markdown
func formatSearchResults(query string, list []*models.Bookmark) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\" (%d results)\n\n", query, len(list)))

	if len(list) == 0 {
		sb.WriteString("No results found.\n")
		return sb.String()
	}

	for i, b := range list {
		sb.WriteString(fmt.Sprintf("%d. **%s**\n", i+1, b.Title))
		sb.WriteString(fmt.Sprintf("   URL: %s\n", b.URL))
		if b.Category != nil {
			sb.WriteString(fmt.Sprintf("   Category: %s\n", *b.Category))
		}
		if description := b.DescriptionText(); description != "" {
			if len(description) > 200 {
				description = description[:200] + "..."
			}
			sb.WriteString(fmt.Sprintf("   %s\n", description))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatBookmark formats a single bookmark as markdown
func formatBookmark(b *models.Bookmark) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", b.Title))
	sb.WriteString(fmt.Sprintf("**ID:** %s\n", b.ID))
	sb.WriteString(fmt.Sprintf("**URL:** %s\n", b.URL))
	if b.Category != nil {
		sb.WriteString(fmt.Sprintf("**Category:** %s\n", *b.Category))
	}
	if len(b.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("**Tags:** %s\n", strings.Join(b.Tags, ", ")))
	}
	sb.WriteString(fmt.Sprintf("**Visible:** %t\n", b.Visible))
	if !b.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("**Created:** %s\n", b.CreatedAt.Format(time.RFC3339)))
	}

	if description := b.DescriptionText(); description != "" {
		sb.WriteString("\n## Description\n\n")
		sb.WriteString(description)
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatCategories(categories []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Categories (%d)\n\n", len(categories)))
	if len(categories) == 0 {
		sb.WriteString("No categories yet.\n")
		return sb.String()
	}
	for i, c := range categories {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, c))
	}
	return sb.String()
}
