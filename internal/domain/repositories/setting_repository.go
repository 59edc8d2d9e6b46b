package repositories

import (
	"context"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
)

// SettingRepository defines the interface for app setting data access
type SettingRepository interface {
	// Get retrieves a setting by key, nil when the key is unset
	Get(ctx context.Context, key string) (*entities.AppSetting, error)

	// Set upserts a setting value
	Set(ctx context.Context, key, value string) error

	// Delete removes a setting
	Delete(ctx context.Context, key string) error
}
