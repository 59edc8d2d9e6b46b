package entities

import (
	"time"

	"github.com/google/uuid"
)

// Well-known setting keys
const (
	SettingKeyReplyWebhookURL     = "reply_webhook_url"
	SettingKeyGoogleCalendarToken = "google_calendar_token"
)

// AppSetting is a durable key/value configuration row
type AppSetting struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Key       string    `json:"key" gorm:"type:varchar(100);not null;uniqueIndex"`
	Value     string    `json:"value" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (AppSetting) TableName() string {
	return "app_settings"
}

// NewAppSetting creates a setting row
func NewAppSetting(key, value string) *AppSetting {
	return &AppSetting{
		ID:    uuid.New(),
		Key:   key,
		Value: value,
	}
}
