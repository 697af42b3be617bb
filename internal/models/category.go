package models

// CategoryOrder is the display position of a category.
// Categories without a row sort after every tracked category.
type CategoryOrder struct {
	Category string `json:"category" yaml:"category"`
	Order    int    `json:"order" yaml:"order"`
}
