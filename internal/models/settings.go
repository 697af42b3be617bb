package models

import "strings"

// Setting keys persisted in the key/value store
const (
	SettingAIProvider = "ai_provider"
	SettingAIAPIKey   = "ai_api_key"
	SettingAIBaseURL  = "ai_base_url"
	SettingAIModel    = "ai_model"

	SettingWebDAVURL         = "webdav_url"
	SettingWebDAVUsername    = "webdav_username"
	SettingWebDAVPassword    = "webdav_password"
	SettingWebDAVPath        = "webdav_path"
	SettingWebDAVKeepBackups = "webdav_keep_backups"
	SettingWebDAVEnabled     = "webdav_enabled"
	SettingWebDAVBackupTime  = "webdav_backup_time"
	SettingWebDAVLastBackup  = "webdav_last_backup"

	SettingIMAPHost     = "imap_host"
	SettingIMAPPort     = "imap_port"
	SettingIMAPUsername = "imap_username"
	SettingIMAPPassword = "imap_password"
	SettingIMAPUseTLS   = "imap_use_tls"
	SettingIMAPMailbox  = "imap_mailbox"
	SettingIMAPCategory = "imap_category"
	SettingIMAPLastPoll = "imap_last_poll"

	SettingSiteTheme = "site_theme"
	SettingSiteTitle = "site_title"
	SettingSiteIcon  = "site_icon"
)

// MaskedSecret replaces stored secrets in API responses
const MaskedSecret = "******"

// WebDAVConfig is the backup target assembled from settings
type WebDAVConfig struct {
	URL         string `json:"url"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Path        string `json:"path"`
	KeepBackups int    `json:"keep_backups"`
	Enabled     bool   `json:"enabled"`
	BackupTime  string `json:"backup_time"`
	LastBackup  string `json:"last_backup"`
}

// IsComplete reports whether enough is configured to talk to the server
func (c WebDAVConfig) IsComplete() bool {
	return c.URL != "" && c.Username != "" && c.Password != ""
}

// NormalizedPath returns Path with surrounding slashes trimmed and one trailing slash
func (c WebDAVConfig) NormalizedPath() string {
	p := strings.Trim(c.Path, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

// Masked returns a copy safe to send to clients
func (c WebDAVConfig) Masked() WebDAVConfig {
	if c.Password != "" {
		c.Password = MaskedSecret
	}
	return c
}

// AISettings is the runtime AI configuration stored in settings
type AISettings struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url"`
	Model    string `json:"model"`
}

// Masked returns a copy with the API key hidden except its last 4 characters
func (s AISettings) Masked() AISettings {
	if len(s.APIKey) > 4 {
		s.APIKey = MaskedSecret + s.APIKey[len(s.APIKey)-4:]
	} else if s.APIKey != "" {
		s.APIKey = MaskedSecret
	}
	return s
}

// SiteSettings are the display preferences shown by the web client
type SiteSettings struct {
	Theme     string `json:"theme"`
	SiteTitle string `json:"siteTitle"`
	SiteIcon  string `json:"siteIcon"`
}

// DefaultSiteSettings returns the values used when nothing has been saved
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{Theme: "light", SiteTitle: "LiteMark"}
}

// IMAPConfig is the save-by-email mailbox assembled from settings
type IMAPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	UseTLS   bool   `json:"use_tls"`
	Mailbox  string `json:"mailbox"`
	Category string `json:"category"` // empty leaves saved links unclassified
	LastPoll string `json:"last_poll"`
}

// IsComplete reports whether enough is configured to log in
func (c IMAPConfig) IsComplete() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// Masked returns a copy safe to send to clients
func (c IMAPConfig) Masked() IMAPConfig {
	if c.Password != "" {
		c.Password = MaskedSecret
	}
	return c
}
