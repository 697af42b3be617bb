package interfaces

import "time"

// JobStatus represents the current status of the scheduled backup job
type JobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	Time      string     `json:"time"`
	Scheduled bool       `json:"scheduled"`
	NextRun   *time.Time `json:"next_run"`
	LastRun   *time.Time `json:"last_run"`
	IsRunning bool       `json:"is_running"`
	LastError string     `json:"last_error"`
}

// SchedulerService runs one daily job at an HH:MM wall-clock time
type SchedulerService interface {
	// Start registers the job at backupTime and starts the cron loop
	Start(backupTime string) error

	// Reschedule moves the job to backupTime; invalid input leaves the current entry untouched
	Reschedule(backupTime string) error

	// TriggerNow runs the job synchronously unless a run is already in flight
	TriggerNow() error

	Status() JobStatus

	// Stop halts the cron loop and waits for an in-flight run
	Stop() error
}
