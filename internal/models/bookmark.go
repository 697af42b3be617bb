package models

import (
	"time"
)

// UncategorizedCategory is the fallback category assigned by classification
const UncategorizedCategory = "未分类"

// Bookmark is a saved link. Category and Description are nullable:
// a nil Category marks the bookmark as unclassified, a nil Description as unsummarized.
type Bookmark struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	URL         string    `json:"url" yaml:"url"`
	Category    *string   `json:"category" yaml:"category"`
	Description *string   `json:"description" yaml:"description"`
	Tags        []string  `json:"tags" yaml:"tags"`
	Visible     bool      `json:"visible" yaml:"visible" badgerhold:"index"`
	Order       int       `json:"order" yaml:"order"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// CategoryName returns the category or "" when unset
func (b *Bookmark) CategoryName() string {
	if b.Category == nil {
		return ""
	}
	return *b.Category
}

// DescriptionText returns the description or "" when unset
func (b *Bookmark) DescriptionText() string {
	if b.Description == nil {
		return ""
	}
	return *b.Description
}

// Clone returns a deep copy so callers can mutate without touching stored state
func (b *Bookmark) Clone() *Bookmark {
	c := *b
	if b.Category != nil {
		v := *b.Category
		c.Category = &v
	}
	if b.Description != nil {
		v := *b.Description
		c.Description = &v
	}
	if b.Tags != nil {
		c.Tags = append([]string(nil), b.Tags...)
	}
	return &c
}

// BookmarkFilter selects bookmarks. Empty fields do not constrain the result.
type BookmarkFilter struct {
	IDs                []string // restrict to these ids
	Category           *string  // exact category match
	MissingCategory    bool     // category is null
	MissingDescription bool     // description is null
	VisibleOnly        bool
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
