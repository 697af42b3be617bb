package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	// EventTaskProgress carries a models.TaskProgress snapshot after every task mutation
	EventTaskProgress EventType = "task_progress"
	// EventBackupStatus carries a models.BackupResult or an error message after a backup run
	EventBackupStatus EventType = "backup_status"
	// EventSettingsChanged carries {"section": "ai" | "webdav" | "site", "settings": masked values}
	EventSettingsChanged EventType = "settings_changed"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages pub/sub event bus
type EventService interface {
	Subscribe(eventType EventType, handler EventHandler) error
	Unsubscribe(eventType EventType, handler EventHandler) error

	// Publish delivers the event to every subscriber asynchronously
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	Close() error
}
