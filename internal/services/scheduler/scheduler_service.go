package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/interfaces"
)

// BackupJobName identifies the single scheduled job
const BackupJobName = "webdav_backup"

// ErrJobRunning is returned by TriggerNow while a run is in flight
var ErrJobRunning = errors.New("backup job is already running")

// JobFunc is the work performed on each fire
type JobFunc func(ctx context.Context) error

// Service runs one daily job on a robfig/cron loop
type Service struct {
	cron   *cron.Cron
	job    JobFunc
	logger arbor.ILogger

	mu         sync.Mutex // protects the fields below
	started    bool
	entryID    cron.EntryID
	scheduled  bool
	backupTime string
	schedule   string
	lastRun    *time.Time
	lastError  string
	running    bool

	runMu sync.Mutex // held for the duration of a run
}

var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates a scheduler for job. Fires use the local time zone.
func NewService(job JobFunc, logger arbor.ILogger) *Service {
	return &Service{
		cron: cron.New(
			cron.WithLogger(cronLogger{logger: logger}),
			cron.WithChain(cron.Recover(cronLogger{logger: logger})),
		),
		job:    job,
		logger: logger,
	}
}

// Start registers the job at backupTime (HH:MM) and starts the cron loop.
// Calling Start on a running scheduler behaves like Reschedule.
func (s *Service) Start(backupTime string) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if started {
		return s.Reschedule(backupTime)
	}

	if err := s.Reschedule(backupTime); err != nil {
		return err
	}

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info().Str("job_name", BackupJobName).Msg("Scheduler started")
	return nil
}

// Reschedule validates backupTime and moves the job to it. The new entry is added before
// the old one is removed. Invalid input leaves the current entry and next run untouched.
func (s *Service) Reschedule(backupTime string) error {
	if err := common.ValidateBackupTime(backupTime); err != nil {
		return err
	}
	spec, err := common.BackupTimeToCron(backupTime)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduled && spec == s.schedule {
		return nil
	}

	newID, err := s.cron.AddFunc(spec, s.fire)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidBackupTime, err)
	}

	if s.scheduled {
		s.cron.Remove(s.entryID)
	}

	previous := s.backupTime
	s.entryID = newID
	s.scheduled = true
	s.backupTime = common.FormatBackupTime(backupTime)
	s.schedule = spec

	s.logger.Info().
		Str("job_name", BackupJobName).
		Str("previous_time", previous).
		Str("backup_time", s.backupTime).
		Str("schedule", spec).
		Msg("Backup job scheduled")

	return nil
}

// TriggerNow runs the job synchronously. It returns ErrJobRunning if a run is in flight.
func (s *Service) TriggerNow() error {
	return s.run("manual")
}

func (s *Service) fire() {
	if err := s.run("cron"); errors.Is(err, ErrJobRunning) {
		s.logger.Warn().Str("job_name", BackupJobName).Msg("Skipping scheduled backup, previous run still in flight")
	}
}

func (s *Service) run(trigger string) error {
	if !s.runMu.TryLock() {
		return ErrJobRunning
	}
	defer s.runMu.Unlock()

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	start := time.Now()
	s.logger.Info().Str("job_name", BackupJobName).Str("trigger", trigger).Msg("Job execution started")

	err := s.safeRun()

	finished := time.Now()
	s.mu.Lock()
	s.running = false
	s.lastRun = &finished
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().
			Str("job_name", BackupJobName).
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Job execution failed")
		return err
	}

	s.logger.Info().
		Str("job_name", BackupJobName).
		Dur("duration", time.Since(start)).
		Msg("Job execution completed")
	return nil
}

func (s *Service) safeRun() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.job(context.Background())
}

// Status reports the job's schedule and last outcome
func (s *Service) Status() interfaces.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := interfaces.JobStatus{
		Name:      BackupJobName,
		Schedule:  s.schedule,
		Time:      s.backupTime,
		Scheduled: s.scheduled,
		LastRun:   s.lastRun,
		IsRunning: s.running,
		LastError: s.lastError,
	}

	if s.scheduled {
		if entry := s.cron.Entry(s.entryID); entry.Valid() {
			next := entry.Next
			if next.IsZero() && entry.Schedule != nil {
				next = entry.Schedule.Next(time.Now())
			}
			status.NextRun = &next
		}
	}

	return status
}

// Stop halts the cron loop and waits for an in-flight run to finish
func (s *Service) Stop() error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	if started {
		<-s.cron.Stop().Done()
	}

	s.runMu.Lock()
	s.runMu.Unlock()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}
