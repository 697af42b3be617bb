package backup

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/models"
	"github.com/ternarybob/litemark/internal/services/markdown"
	"gopkg.in/yaml.v3"
)

// Format selects the backup document encoding
type Format string

// Markdown and PDF are export-only renderings for reading, not restoring.
const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "md"
	FormatPDF      Format = "pdf"
)

// ParseFormat maps a query value to a Format; empty means JSON
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: unsupported format %q", ErrInvalidDocument, value)
}

// Importable reports whether documents in this format can be imported
func (f Format) Importable() bool {
	return f == FormatJSON || f == FormatYAML
}

// ContentType returns the MIME type for the format
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/json"
}

// Encode serializes doc in the given format
func Encode(doc *models.BackupDocument, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatMarkdown:
		return []byte(RenderMarkdown(doc)), nil
	case FormatPDF:
		return markdown.RenderPDF(RenderMarkdown(doc), "LiteMark bookmarks")
	}
	return json.MarshalIndent(doc, "", "  ")
}

// importDocument accepts current and older backup layouts.
// Older exports used camelCase keys, tags encoded as a JSON string and naive timestamps.
type importDocument struct {
	Version             string               `json:"version" yaml:"version"`
	ExportedAt          string               `json:"exported_at" yaml:"exported_at"`
	LegacyExportedAt    string               `json:"exportedAt" yaml:"exportedAt"`
	Bookmarks           []importBookmark     `json:"bookmarks" yaml:"bookmarks"`
	CategoryOrder       []importCategoryItem `json:"category_order" yaml:"category_order"`
	LegacyCategoryOrder []importCategoryItem `json:"categoryOrder" yaml:"categoryOrder"`
}

type importBookmark struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	URL         string    `json:"url" yaml:"url"`
	Category    *string   `json:"category" yaml:"category"`
	Description *string   `json:"description" yaml:"description"`
	Tags        tagList   `json:"tags" yaml:"tags"`
	Visible     *bool     `json:"visible" yaml:"visible"`
	Order       int       `json:"order" yaml:"order"`
	CreatedAt   timestamp `json:"created_at" yaml:"created_at"`
	UpdatedAt   timestamp `json:"updated_at" yaml:"updated_at"`
}

// importCategoryItem is either {"category": "x", "order": 1} or a bare name
type importCategoryItem struct {
	Category string
	Order    int
}

func (c *importCategoryItem) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		c.Category = name
		return nil
	}
	var row struct {
		Category string `json:"category"`
		Order    int    `json:"order"`
	}
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	c.Category, c.Order = row.Category, row.Order
	return nil
}

func (c *importCategoryItem) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.Category = node.Value
		return nil
	}
	var row struct {
		Category string `yaml:"category"`
		Order    int    `yaml:"order"`
	}
	if err := node.Decode(&row); err != nil {
		return err
	}
	c.Category, c.Order = row.Category, row.Order
	return nil
}

// tagList is a list of tags, a JSON-encoded list in a string, or null
type tagList []string

func (t *tagList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var encoded *string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return err
	}
	return t.fromString(encoded)
}

func (t *tagList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*t = list
		return nil
	}
	if node.Tag == "!!null" {
		*t = nil
		return nil
	}
	value := node.Value
	return t.fromString(&value)
}

func (t *tagList) fromString(encoded *string) error {
	if encoded == nil || strings.TrimSpace(*encoded) == "" || *encoded == "null" {
		*t = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(*encoded), &list); err != nil {
		*t = []string{*encoded}
		return nil
	}
	*t = list
	return nil
}

// timestamp accepts RFC 3339 and naive ISO timestamps; unparseable values are zero
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	var value *string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	if value != nil {
		t.Time = parseTimestamp(*value)
	}
	return nil
}

func (t *timestamp) UnmarshalYAML(node *yaml.Node) error {
	t.Time = parseTimestamp(node.Value)
	return nil
}

// Decode parses a backup document in the given format and normalizes it to models
func Decode(data []byte, format Format) ([]*models.Bookmark, []models.CategoryOrder, error) {
	if !format.Importable() {
		return nil, nil, fmt.Errorf("%w: %s exports cannot be imported", ErrInvalidDocument, format)
	}

	var doc importDocument
	var err error
	if format == FormatYAML {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Bookmarks == nil {
		return nil, nil, fmt.Errorf("%w: bookmarks missing", ErrInvalidDocument)
	}

	bookmarks := make([]*models.Bookmark, 0, len(doc.Bookmarks))
	for i, record := range doc.Bookmarks {
		if strings.TrimSpace(record.Title) == "" || strings.TrimSpace(record.URL) == "" {
			return nil, nil, fmt.Errorf("%w: bookmark %d needs title and url", ErrInvalidDocument, i)
		}
		b := &models.Bookmark{
			ID:          record.ID,
			Title:       record.Title,
			URL:         record.URL,
			Category:    nonEmpty(record.Category),
			Description: record.Description,
			Tags:        []string(record.Tags),
			Visible:     record.Visible == nil || *record.Visible,
			Order:       record.Order,
			CreatedAt:   record.CreatedAt.Time,
			UpdatedAt:   record.UpdatedAt.Time,
		}
		if b.ID == "" {
			b.ID = common.NewBookmarkID()
		}
		bookmarks = append(bookmarks, b)
	}

	items := doc.CategoryOrder
	if len(items) == 0 {
		items = doc.LegacyCategoryOrder
	}
	return bookmarks, categoryRows(items, bookmarks), nil
}

// categoryRows keeps the first row per category. Without rows, categories
// come from the bookmarks sorted by name.
func categoryRows(items []importCategoryItem, bookmarks []*models.Bookmark) []models.CategoryOrder {
	seen := make(map[string]bool)
	rows := make([]models.CategoryOrder, 0, len(items))

	if len(items) > 0 {
		for _, item := range items {
			if item.Category == "" || seen[item.Category] {
				continue
			}
			seen[item.Category] = true
			rows = append(rows, models.CategoryOrder{Category: item.Category, Order: item.Order})
		}
		return rows
	}

	names := make([]string, 0)
	for _, b := range bookmarks {
		if name := b.CategoryName(); name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for i, name := range names {
		rows = append(rows, models.CategoryOrder{Category: name, Order: i})
	}
	return rows
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
