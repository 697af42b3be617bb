// Package common provides shared utilities and default configuration.
package common

import (
	"strconv"

	"github.com/ternarybob/litemark/internal/models"
)

// DefaultKVValue represents a default setting that is seeded on startup.
type DefaultKVValue struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// GetDefaultKVValues returns the settings seeded on startup when absent.
// Existing values are never overwritten.
func GetDefaultKVValues(config *Config) []DefaultKVValue {
	return []DefaultKVValue{
		{
			Key:         models.SettingWebDAVPath,
			Value:       config.Backup.DefaultPath,
			Description: "Remote WebDAV directory for backups",
		},
		{
			Key:         models.SettingWebDAVKeepBackups,
			Value:       strconv.Itoa(config.Backup.DefaultKeepBackups),
			Description: "Number of backup files kept after cleanup",
		},
		{
			Key:         models.SettingWebDAVBackupTime,
			Value:       FormatBackupTime(config.Backup.DefaultTime),
			Description: "Daily automatic backup time (HH:MM)",
		},
		{
			Key:         models.SettingWebDAVEnabled,
			Value:       "false",
			Description: "Automatic WebDAV backup switch",
		},
		{
			Key:         models.SettingAIProvider,
			Value:       string(config.LLM.DefaultProvider),
			Description: "AI provider (openai, claude, gemini)",
		},
	}
}
