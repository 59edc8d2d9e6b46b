package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/domain/repositories"
)

// settingRepository implements the SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new app setting repository
func NewSettingRepository(db *gorm.DB) repositories.SettingRepository {
	return &settingRepository{db: db}
}

// Get retrieves a setting by key
func (r *settingRepository) Get(ctx context.Context, key string) (*entities.AppSetting, error) {
	var setting entities.AppSetting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

// Set upserts a setting value
func (r *settingRepository) Set(ctx context.Context, key, value string) error {
	setting := entities.NewAppSetting(key, value)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": time.Now(),
		}),
	}).Create(setting).Error
}

// Delete removes a setting
func (r *settingRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&entities.AppSetting{}).Error
}
