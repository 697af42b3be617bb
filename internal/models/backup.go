package models

import "time"

// BackupDocument is the portable export of all bookmarks and category order
type BackupDocument struct {
	Version       string          `json:"version" yaml:"version"`
	ExportedAt    time.Time       `json:"exported_at" yaml:"exported_at"`
	Bookmarks     []Bookmark      `json:"bookmarks" yaml:"bookmarks"`
	CategoryOrder []CategoryOrder `json:"category_order,omitempty" yaml:"category_order,omitempty"`
}

// BackupFileInfo describes one remote backup file
type BackupFileInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	IsDir   bool      `json:"is_dir"`
}

// BackupResult is returned by a completed backup run
type BackupResult struct {
	Filename       string    `json:"filename"`
	BookmarksCount int       `json:"bookmarks_count"`
	Deleted        []string  `json:"deleted"`
	CompletedAt    time.Time `json:"completed_at"`
	Skipped        bool      `json:"skipped"`
	SkipReason     string    `json:"skip_reason,omitempty"`
}
