package models

// PageInfo is what the page fetcher extracts from a URL
type PageInfo struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Markdown    string `json:"markdown,omitempty"` // main content as markdown, same length cap as Content
	Favicon     string `json:"favicon"`
}

// ClassifyResult is the outcome of classifying one bookmark
type ClassifyResult struct {
	SuggestedCategory string  `json:"suggested_category"`
	Confidence        float64 `json:"confidence"`
	Reasoning         string  `json:"reasoning"`
}

// SummarizeResult is the outcome of summarizing one page.
// ReadingTime is nil when the model did not estimate it.
type SummarizeResult struct {
	Summary     string   `json:"summary"`
	Tags        []string `json:"tags"`
	ReadingTime *int     `json:"reading_time"`
}
