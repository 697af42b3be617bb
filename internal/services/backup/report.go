package backup

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/litemark/internal/models"
	"github.com/ternarybob/litemark/internal/services/ordering"
)

const unclassifiedHeading = "Unclassified"

// RenderMarkdown lays the document out as a readable list: one section per
// category in display order, bookmarks in item order. Hidden bookmarks are included and marked.
func RenderMarkdown(doc *models.BackupDocument) string {
	index := make(map[string]int, len(doc.CategoryOrder))
	for _, row := range doc.CategoryOrder {
		index[row.Category] = row.Order
	}

	sorted := make([]*models.Bookmark, 0, len(doc.Bookmarks))
	for i := range doc.Bookmarks {
		sorted = append(sorted, &doc.Bookmarks[i])
	}
	ordering.SortBookmarks(sorted, index)

	var sb strings.Builder
	sb.WriteString("# LiteMark bookmarks\n\n")
	sb.WriteString(fmt.Sprintf("Exported %s, %d bookmarks.\n", doc.ExportedAt.Format(time.RFC3339), len(sorted)))

	current := "\x00"
	for _, b := range sorted {
		if name := b.CategoryName(); name != current {
			current = name
			heading := name
			if heading == "" {
				heading = unclassifiedHeading
			}
			sb.WriteString(fmt.Sprintf("\n## %s\n\n", escapeMarkdown(heading)))
		}

		sb.WriteString(fmt.Sprintf("- [%s](<%s>)", escapeMarkdown(b.Title), b.URL))
		if !b.Visible {
			sb.WriteString(" *(hidden)*")
		}
		if len(b.Tags) > 0 {
			sb.WriteString(" `" + strings.Join(b.Tags, ", ") + "`")
		}
		sb.WriteString("\n")
		if description := strings.TrimSpace(b.DescriptionText()); description != "" {
			sb.WriteString("  " + strings.Join(strings.Fields(description), " ") + "\n")
		}
	}

	return sb.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"[", `\[`,
	"]", `\]`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"#", `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
