package common

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

// ErrInvalidBackupTime is returned when a backup time is not a valid HH:MM value
var ErrInvalidBackupTime = errors.New("invalid time format, use HH:MM")

// cronParser accepts the standard 5-field cron format used for the backup job
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// backupTimePattern allows one or two digits per field, no signs or spaces
var backupTimePattern = regexp.MustCompile(`^\d{1,2}:\d{1,2}$`)

// ParseBackupTime parses an "HH:MM" string into hour and minute.
func ParseBackupTime(value string) (int, int, error) {
	value = strings.TrimSpace(value)
	if !backupTimePattern.MatchString(value) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidBackupTime, value)
	}
	parts := strings.Split(value, ":")

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour out of range in %q", ErrInvalidBackupTime, value)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute out of range in %q", ErrInvalidBackupTime, value)
	}

	return hour, minute, nil
}

// BackupTimeToCron converts "HH:MM" into a daily 5-field cron expression.
func BackupTimeToCron(value string) (string, error) {
	hour, minute, err := ParseBackupTime(value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// ValidateBackupTime checks that value is HH:MM and yields a parseable cron schedule
func ValidateBackupTime(value string) error {
	spec, err := BackupTimeToCron(value)
	if err != nil {
		return err
	}
	if _, err := cronParser.Parse(spec); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackupTime, err)
	}
	return nil
}

// FormatBackupTime normalizes "2:5" to "02:05". Invalid input is returned unchanged.
func FormatBackupTime(value string) string {
	hour, minute, err := ParseBackupTime(value)
	if err != nil {
		return value
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
