package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
)

// Service provides business logic for settings stored as key/value pairs
type Service struct {
	storage interfaces.KeyValueStorage
	events  interfaces.EventService
	config  *common.Config
	logger  arbor.ILogger
}

// NewService creates a new key/value service. events may be nil.
func NewService(storage interfaces.KeyValueStorage, events interfaces.EventService, config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		events:  events,
		config:  config,
		logger:  logger,
	}
}

// Get retrieves a value by key
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	value, err := s.storage.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, interfaces.ErrKeyNotFound) {
			s.logger.Error().Err(err).Str("key", key).Msg("Failed to get key/value pair")
		}
		return "", err
	}
	return value, nil
}

// Set stores or updates a key/value pair
func (s *Service) Set(ctx context.Context, key string, value string, description string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	if err := s.storage.Set(ctx, key, value, description); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to store key/value pair")
		return err
	}

	s.logger.Debug().Str("key", key).Msg("Stored key/value pair")
	return nil
}

// SeedDefaults inserts each default whose key is absent. Existing values are kept.
func (s *Service) SeedDefaults(ctx context.Context, defaults []common.DefaultKVValue) (int, error) {
	seeded := 0
	for _, d := range defaults {
		_, err := s.storage.Get(ctx, d.Key)
		if err == nil {
			continue
		}
		if !errors.Is(err, interfaces.ErrKeyNotFound) {
			return seeded, fmt.Errorf("failed to check setting %s: %w", d.Key, err)
		}
		if err := s.storage.Set(ctx, d.Key, d.Value, d.Description); err != nil {
			return seeded, fmt.Errorf("failed to seed setting %s: %w", d.Key, err)
		}
		seeded++
	}

	if seeded > 0 {
		s.logger.Info().Int("count", seeded).Msg("Default settings seeded")
	}
	return seeded, nil
}

// AISettings returns the stored AI settings. Missing keys are empty.
func (s *Service) AISettings(ctx context.Context) (models.AISettings, error) {
	values, err := s.storage.GetAll(ctx)
	if err != nil {
		return models.AISettings{}, err
	}
	return models.AISettings{
		Provider: values[models.SettingAIProvider],
		APIKey:   values[models.SettingAIAPIKey],
		BaseURL:  values[models.SettingAIBaseURL],
		Model:    values[models.SettingAIModel],
	}, nil
}

// SaveAISettings writes the non-nil fields. An API key that still carries the mask is ignored.
func (s *Service) SaveAISettings(ctx context.Context, update AISettingsUpdate) (models.AISettings, error) {
	values := map[string]string{}
	if update.Provider != nil {
		provider := strings.ToLower(strings.TrimSpace(*update.Provider))
		switch common.LLMProvider(provider) {
		case common.LLMProviderOpenAI, common.LLMProviderClaude, common.LLMProviderGemini:
		default:
			return models.AISettings{}, fmt.Errorf("%w: unsupported provider %q", ErrInvalidSetting, provider)
		}
		values[models.SettingAIProvider] = provider
	}
	if update.APIKey != nil && !strings.HasPrefix(*update.APIKey, models.MaskedSecret) {
		values[models.SettingAIAPIKey] = strings.TrimSpace(*update.APIKey)
	}
	if update.BaseURL != nil {
		values[models.SettingAIBaseURL] = strings.TrimRight(strings.TrimSpace(*update.BaseURL), "/")
	}
	if update.Model != nil {
		values[models.SettingAIModel] = strings.TrimSpace(*update.Model)
	}

	if err := s.setMany(ctx, values); err != nil {
		return models.AISettings{}, err
	}

	settings, err := s.AISettings(ctx)
	if err != nil {
		return models.AISettings{}, err
	}
	s.publishChanged(ctx, "ai", settings.Masked())
	return settings, nil
}

// WebDAVConfig assembles the WebDAV backup configuration, applying config defaults for missing keys
func (s *Service) WebDAVConfig(ctx context.Context) (models.WebDAVConfig, error) {
	values, err := s.storage.GetAll(ctx)
	if err != nil {
		return models.WebDAVConfig{}, err
	}

	cfg := models.WebDAVConfig{
		URL:         values[models.SettingWebDAVURL],
		Username:    values[models.SettingWebDAVUsername],
		Password:    values[models.SettingWebDAVPassword],
		Path:        s.config.Backup.DefaultPath,
		KeepBackups: s.config.Backup.DefaultKeepBackups,
		BackupTime:  common.FormatBackupTime(s.config.Backup.DefaultTime),
		LastBackup:  values[models.SettingWebDAVLastBackup],
	}
	if v, ok := values[models.SettingWebDAVPath]; ok && v != "" {
		cfg.Path = v
	}
	if v, err := strconv.Atoi(values[models.SettingWebDAVKeepBackups]); err == nil && v > 0 {
		cfg.KeepBackups = v
	}
	if v, ok := values[models.SettingWebDAVBackupTime]; ok && v != "" {
		cfg.BackupTime = v
	}
	cfg.Enabled, _ = strconv.ParseBool(values[models.SettingWebDAVEnabled])

	return cfg, nil
}

// SaveWebDAVConfig writes the non-nil fields. A masked password keeps the stored one.
// An invalid backup time is rejected before anything is written.
func (s *Service) SaveWebDAVConfig(ctx context.Context, update WebDAVConfigUpdate) (models.WebDAVConfig, error) {
	values := map[string]string{}
	if update.URL != nil {
		values[models.SettingWebDAVURL] = strings.TrimSpace(*update.URL)
	}
	if update.Username != nil {
		values[models.SettingWebDAVUsername] = strings.TrimSpace(*update.Username)
	}
	if update.Password != nil && *update.Password != models.MaskedSecret {
		values[models.SettingWebDAVPassword] = *update.Password
	}
	if update.Path != nil {
		values[models.SettingWebDAVPath] = strings.TrimSpace(*update.Path)
	}
	if update.KeepBackups != nil {
		if *update.KeepBackups < 1 {
			return models.WebDAVConfig{}, fmt.Errorf("%w: keep_backups must be at least 1", ErrInvalidSetting)
		}
		values[models.SettingWebDAVKeepBackups] = strconv.Itoa(*update.KeepBackups)
	}
	if update.Enabled != nil {
		values[models.SettingWebDAVEnabled] = strconv.FormatBool(*update.Enabled)
	}
	if update.BackupTime != nil {
		if err := common.ValidateBackupTime(*update.BackupTime); err != nil {
			return models.WebDAVConfig{}, err
		}
		values[models.SettingWebDAVBackupTime] = common.FormatBackupTime(*update.BackupTime)
	}

	if err := s.setMany(ctx, values); err != nil {
		return models.WebDAVConfig{}, err
	}

	cfg, err := s.WebDAVConfig(ctx)
	if err != nil {
		return models.WebDAVConfig{}, err
	}
	s.publishChanged(ctx, "webdav", cfg.Masked())
	return cfg, nil
}

// RecordLastBackup stores the time of the last successful backup
func (s *Service) RecordLastBackup(ctx context.Context, at string) error {
	return s.storage.Set(ctx, models.SettingWebDAVLastBackup, at, "Time of the last successful WebDAV backup")
}

// IMAPConfig assembles the save-by-email mailbox settings. Port defaults to 993 with TLS,
// the mailbox to INBOX.
func (s *Service) IMAPConfig(ctx context.Context) (models.IMAPConfig, error) {
	values, err := s.storage.GetAll(ctx)
	if err != nil {
		return models.IMAPConfig{}, err
	}

	cfg := models.IMAPConfig{
		Host:     values[models.SettingIMAPHost],
		Port:     993,
		Username: values[models.SettingIMAPUsername],
		Password: values[models.SettingIMAPPassword],
		UseTLS:   true,
		Mailbox:  "INBOX",
		Category: values[models.SettingIMAPCategory],
		LastPoll: values[models.SettingIMAPLastPoll],
	}
	if v, err := strconv.Atoi(values[models.SettingIMAPPort]); err == nil && v > 0 {
		cfg.Port = v
	}
	if v, err := strconv.ParseBool(values[models.SettingIMAPUseTLS]); err == nil {
		cfg.UseTLS = v
	}
	if v := values[models.SettingIMAPMailbox]; v != "" {
		cfg.Mailbox = v
	}
	return cfg, nil
}

// SaveIMAPConfig writes the non-nil fields. A masked password keeps the stored one.
func (s *Service) SaveIMAPConfig(ctx context.Context, update IMAPConfigUpdate) (models.IMAPConfig, error) {
	values := map[string]string{}
	if update.Host != nil {
		values[models.SettingIMAPHost] = strings.TrimSpace(*update.Host)
	}
	if update.Port != nil {
		if *update.Port < 1 || *update.Port > 65535 {
			return models.IMAPConfig{}, fmt.Errorf("%w: port must be between 1 and 65535", ErrInvalidSetting)
		}
		values[models.SettingIMAPPort] = strconv.Itoa(*update.Port)
	}
	if update.Username != nil {
		values[models.SettingIMAPUsername] = strings.TrimSpace(*update.Username)
	}
	if update.Password != nil && *update.Password != models.MaskedSecret {
		values[models.SettingIMAPPassword] = *update.Password
	}
	if update.UseTLS != nil {
		values[models.SettingIMAPUseTLS] = strconv.FormatBool(*update.UseTLS)
	}
	if update.Mailbox != nil {
		values[models.SettingIMAPMailbox] = strings.TrimSpace(*update.Mailbox)
	}
	if update.Category != nil {
		values[models.SettingIMAPCategory] = strings.TrimSpace(*update.Category)
	}

	if err := s.setMany(ctx, values); err != nil {
		return models.IMAPConfig{}, err
	}

	cfg, err := s.IMAPConfig(ctx)
	if err != nil {
		return models.IMAPConfig{}, err
	}
	s.publishChanged(ctx, "imap", cfg.Masked())
	return cfg, nil
}

// RecordInboxPoll stores the time of the last completed mailbox check
func (s *Service) RecordInboxPoll(ctx context.Context, at string) error {
	return s.storage.Set(ctx, models.SettingIMAPLastPoll, at, "Time of the last save-by-email mailbox check")
}

// SiteSettings returns display settings merged over the defaults
func (s *Service) SiteSettings(ctx context.Context) (models.SiteSettings, error) {
	values, err := s.storage.GetAll(ctx)
	if err != nil {
		return models.SiteSettings{}, err
	}

	settings := models.DefaultSiteSettings()
	if v, ok := values[models.SettingSiteTheme]; ok {
		settings.Theme = v
	}
	if v, ok := values[models.SettingSiteTitle]; ok {
		settings.SiteTitle = v
	}
	if v, ok := values[models.SettingSiteIcon]; ok {
		settings.SiteIcon = v
	}
	return settings, nil
}

// SaveSiteSettings writes the non-nil display settings
func (s *Service) SaveSiteSettings(ctx context.Context, update SiteSettingsUpdate) (models.SiteSettings, error) {
	values := map[string]string{}
	if update.Theme != nil {
		values[models.SettingSiteTheme] = *update.Theme
	}
	if update.SiteTitle != nil {
		values[models.SettingSiteTitle] = *update.SiteTitle
	}
	if update.SiteIcon != nil {
		values[models.SettingSiteIcon] = *update.SiteIcon
	}

	if err := s.setMany(ctx, values); err != nil {
		return models.SiteSettings{}, err
	}

	settings, err := s.SiteSettings(ctx)
	if err != nil {
		return models.SiteSettings{}, err
	}
	s.publishChanged(ctx, "site", settings)
	return settings, nil
}

func (s *Service) setMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	if err := s.storage.SetMany(ctx, values); err != nil {
		s.logger.Error().Err(err).Int("keys", len(values)).Msg("Failed to store settings")
		return err
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	s.logger.Info().Strs("keys", keys).Msg("Settings updated")
	return nil
}

func (s *Service) publishChanged(ctx context.Context, section string, payload interface{}) {
	if s.events == nil {
		return
	}
	err := s.events.PublishSync(ctx, interfaces.Event{
		Type: interfaces.EventSettingsChanged,
		Payload: map[string]interface{}{
			"section":  section,
			"settings": payload,
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("section", section).Msg("Settings change handler failed")
	}
}
