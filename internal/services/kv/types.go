package kv

import "errors"

// ErrInvalidSetting is returned for a setting value that fails validation
var ErrInvalidSetting = errors.New("invalid setting")

// AISettingsUpdate carries a partial update; nil fields are left unchanged
type AISettingsUpdate struct {
	Provider *string `json:"provider"`
	APIKey   *string `json:"api_key"`
	BaseURL  *string `json:"base_url" validate:"omitempty,url"`
	Model    *string `json:"model"`
}

// WebDAVConfigUpdate carries a partial update; nil fields are left unchanged
type WebDAVConfigUpdate struct {
	URL         *string `json:"url" validate:"omitempty,url"`
	Username    *string `json:"username"`
	Password    *string `json:"password"`
	Path        *string `json:"path"`
	KeepBackups *int    `json:"keep_backups"`
	Enabled     *bool   `json:"enabled"`
	BackupTime  *string `json:"backup_time"`
}

// SiteSettingsUpdate carries a partial update; nil fields are left unchanged
type SiteSettingsUpdate struct {
	Theme     *string `json:"theme" validate:"omitempty,oneof=light dark auto"`
	SiteTitle *string `json:"siteTitle" validate:"omitempty,max=100"`
	SiteIcon  *string `json:"siteIcon"`
}

// IMAPConfigUpdate carries a partial update; nil fields are left unchanged
type IMAPConfigUpdate struct {
	Host     *string `json:"host" validate:"omitempty,hostname|ip"`
	Port     *int    `json:"port" validate:"omitempty,min=1,max=65535"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	UseTLS   *bool   `json:"use_tls"`
	Mailbox  *string `json:"mailbox"`
	Category *string `json:"category"`
}
