package common

import (
	"github.com/google/uuid"
)

// NewBookmarkID generates a unique bookmark ID
func NewBookmarkID() string {
	return uuid.New().String()
}

// NewTaskID generates a short task token: the first 8 hex characters of a random UUID.
func NewTaskID() string {
	return uuid.New().String()[:8]
}
