package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
	"github.com/ternarybob/litemark/internal/services/events"
	"github.com/ternarybob/litemark/internal/storage/badger"
)

func newTestService(t *testing.T) (*Service, interfaces.EventService) {
	t.Helper()
	logger := arbor.NewLogger()

	manager, err := badger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	eventService := events.NewService(logger)
	t.Cleanup(func() { eventService.Close() })

	return NewService(manager.KeyValueStorage(), eventService, common.NewDefaultConfig(), logger), eventService
}

func ptr[T any](v T) *T { return &v }

func TestSeedDefaults_KeepsExisting(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, models.SettingWebDAVBackupTime, "05:45", ""))

	defaults := common.GetDefaultKVValues(common.NewDefaultConfig())
	seeded, err := s.SeedDefaults(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, len(defaults)-1, seeded)

	value, err := s.Get(ctx, models.SettingWebDAVBackupTime)
	require.NoError(t, err)
	assert.Equal(t, "05:45", value)

	seeded, err = s.SeedDefaults(ctx, defaults)
	require.NoError(t, err)
	assert.Zero(t, seeded)
}

func TestSaveAISettings_MaskedKeyIgnored(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	saved, err := s.SaveAISettings(ctx, AISettingsUpdate{
		Provider: ptr("OpenAI"),
		APIKey:   ptr("sk-secret-1234"),
		BaseURL:  ptr("http://localhost:11434/v1/"),
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", saved.Provider)
	assert.Equal(t, "http://localhost:11434/v1", saved.BaseURL)
	assert.Equal(t, "******1234", saved.Masked().APIKey)

	saved, err = s.SaveAISettings(ctx, AISettingsUpdate{APIKey: ptr("******1234"), Model: ptr("llama3")})
	require.NoError(t, err)
	assert.Equal(t, "sk-secret-1234", saved.APIKey)
	assert.Equal(t, "llama3", saved.Model)

	_, err = s.SaveAISettings(ctx, AISettingsUpdate{Provider: ptr("cohere")})
	assert.ErrorIs(t, err, ErrInvalidSetting)
}

func TestWebDAVConfig_DefaultsAndUpdate(t *testing.T) {
	s, eventService := newTestService(t)
	ctx := context.Background()

	var published []interface{}
	require.NoError(t, eventService.Subscribe(interfaces.EventSettingsChanged, func(ctx context.Context, event interfaces.Event) error {
		published = append(published, event.Payload)
		return nil
	}))

	cfg, err := s.WebDAVConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "litemark-backup/", cfg.Path)
	assert.Equal(t, 7, cfg.KeepBackups)
	assert.Equal(t, "02:00", cfg.BackupTime)
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.IsComplete())

	cfg, err = s.SaveWebDAVConfig(ctx, WebDAVConfigUpdate{
		URL:         ptr("https://dav.example.com/remote.php/dav"),
		Username:    ptr("me"),
		Password:    ptr("pw"),
		KeepBackups: ptr(3),
		Enabled:     ptr(true),
		BackupTime:  ptr("3:5"),
	})
	require.NoError(t, err)
	assert.True(t, cfg.IsComplete())
	assert.Equal(t, 3, cfg.KeepBackups)
	assert.Equal(t, "03:05", cfg.BackupTime)
	assert.True(t, cfg.Enabled)
	require.Len(t, published, 1)

	cfg, err = s.SaveWebDAVConfig(ctx, WebDAVConfigUpdate{Password: ptr(models.MaskedSecret)})
	require.NoError(t, err)
	assert.Equal(t, "pw", cfg.Password)
}

func TestSaveWebDAVConfig_InvalidTimeWritesNothing(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.SaveWebDAVConfig(ctx, WebDAVConfigUpdate{
		URL:        ptr("https://dav.example.com"),
		BackupTime: ptr("25:99"),
	})
	assert.ErrorIs(t, err, common.ErrInvalidBackupTime)

	cfg, err := s.WebDAVConfig(ctx)
	require.NoError(t, err)
	assert.Empty(t, cfg.URL)

	_, err = s.SaveWebDAVConfig(ctx, WebDAVConfigUpdate{KeepBackups: ptr(0)})
	assert.ErrorIs(t, err, ErrInvalidSetting)
}

func TestSiteSettings(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	settings, err := s.SiteSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSiteSettings(), settings)

	settings, err = s.SaveSiteSettings(ctx, SiteSettingsUpdate{Theme: ptr("dark"), SiteTitle: ptr("My Links")})
	require.NoError(t, err)
	assert.Equal(t, "dark", settings.Theme)
	assert.Equal(t, "My Links", settings.SiteTitle)
	assert.Equal(t, "", settings.SiteIcon)
}

func TestIMAPConfig_DefaultsAndMaskedPassword(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	cfg, err := s.IMAPConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 993, cfg.Port)
	assert.True(t, cfg.UseTLS)
	assert.Equal(t, "INBOX", cfg.Mailbox)
	assert.False(t, cfg.IsComplete())

	cfg, err = s.SaveIMAPConfig(ctx, IMAPConfigUpdate{
		Host:     ptr(" imap.example.com "),
		Port:     ptr(143),
		Username: ptr("me@example.com"),
		Password: ptr("secret"),
		UseTLS:   ptr(false),
		Category: ptr("inbox"),
	})
	require.NoError(t, err)
	assert.Equal(t, "imap.example.com", cfg.Host)
	assert.Equal(t, 143, cfg.Port)
	assert.False(t, cfg.UseTLS)
	assert.True(t, cfg.IsComplete())
	assert.Equal(t, models.MaskedSecret, cfg.Masked().Password)

	cfg, err = s.SaveIMAPConfig(ctx, IMAPConfigUpdate{Password: ptr(models.MaskedSecret)})
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Password)

	_, err = s.SaveIMAPConfig(ctx, IMAPConfigUpdate{Port: ptr(70000)})
	assert.ErrorIs(t, err, ErrInvalidSetting)

	require.NoError(t, s.RecordInboxPoll(ctx, "2026-01-01T00:00:00Z"))
	cfg, err = s.IMAPConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01T00:00:00Z", cfg.LastPoll)
}
