package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/chatdesk-team/chatdesk/errors"
	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/domain/repositories"
)

// sensitiveSettings lists keys whose values never leave the API
var sensitiveSettings = map[string]bool{
	entities.SettingKeyGoogleCalendarToken: true,
}

// settingResponse is the setting read shape. Sensitive values come back
// redacted with the flag set.
type settingResponse struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Sensitive bool      `json:"sensitive,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type updateSettingRequest struct {
	Value string `json:"value"`
}

// Settings handles app setting HTTP requests
type Settings struct {
	repo   repositories.SettingRepository
	logger *zap.Logger
}

// NewSettings creates a new settings handler
func NewSettings(repo repositories.SettingRepository, logger *zap.Logger) *Settings {
	return &Settings{repo: repo, logger: logger}
}

// GetSetting reads a setting by key
// GET /v1/settings/:key
func (h *Settings) GetSetting(c echo.Context) error {
	key := c.Param("key")

	setting, err := h.repo.Get(c.Request().Context(), key)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("get setting", err))
	}
	if setting == nil {
		return HandleError(h.logger, c, errors.ErrNotFound("Setting"))
	}

	resp := &settingResponse{
		Key:       setting.Key,
		Value:     setting.Value,
		UpdatedAt: setting.UpdatedAt,
	}
	if sensitiveSettings[key] {
		resp.Value = ""
		resp.Sensitive = true
	}

	return HandleSuccess(h.logger, c, resp)
}

// UpdateSetting upserts a setting value
// PUT /v1/settings/:key
func (h *Settings) UpdateSetting(c echo.Context) error {
	key := c.Param("key")

	var req updateSettingRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	if err := h.repo.Set(c.Request().Context(), key, req.Value); err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("set setting", err))
	}

	h.logger.Info("⚙️ Setting updated", zap.String("key", key))

	return HandleSuccess(h.logger, c, map[string]string{"key": key})
}

// DeleteSetting unsets a setting. Deleting google_calendar_token unlinks
// the calendar.
// DELETE /v1/settings/:key
func (h *Settings) DeleteSetting(c echo.Context) error {
	key := c.Param("key")

	if err := h.repo.Delete(c.Request().Context(), key); err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("delete setting", err))
	}

	h.logger.Info("⚙️ Setting removed", zap.String("key", key))

	return HandleSuccess(h.logger, c, map[string]string{"key": key})
}
