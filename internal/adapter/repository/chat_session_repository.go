package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/domain/repositories"
)

// chatSessionRepository implements the ChatSessionRepository interface
type chatSessionRepository struct {
	db *gorm.DB
}

// NewChatSessionRepository creates a new chat session repository
func NewChatSessionRepository(db *gorm.DB) repositories.ChatSessionRepository {
	return &chatSessionRepository{db: db}
}

// Create creates a new session
func (r *chatSessionRepository) Create(ctx context.Context, session *entities.ChatSession) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	return r.db.WithContext(ctx).Create(session).Error
}

// FindByID retrieves a session by its ID
func (r *chatSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.ChatSession, error) {
	var session entities.ChatSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// FindByContactID retrieves a session by its transport contact id
func (r *chatSessionRepository) FindByContactID(ctx context.Context, contactID string) (*entities.ChatSession, error) {
	var session entities.ChatSession
	if err := r.db.WithContext(ctx).Where("contact_id = ?", contactID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// List retrieves sessions with filters, most recently active first
func (r *chatSessionRepository) List(ctx context.Context, filters repositories.SessionFilters) ([]*entities.ChatSession, int64, error) {
	var sessions []*entities.ChatSession
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.ChatSession{})

	// Apply filters
	if filters.Platform != nil {
		query = query.Where("platform = ?", *filters.Platform)
	}
	if filters.Search != "" {
		searchPattern := fmt.Sprintf("%%%s%%", filters.Search)
		query = query.Where("contact_name ILIKE ? OR contact_id ILIKE ?", searchPattern, searchPattern)
	}

	// Count total
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("last_message_at DESC NULLS LAST, created_at DESC")

	// Apply pagination
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	err := query.Find(&sessions).Error
	return sessions, total, err
}

// UpdatePlatform writes the derived platform annotation back to the row
func (r *chatSessionRepository) UpdatePlatform(ctx context.Context, id uuid.UUID, platform entities.Platform) error {
	return r.db.WithContext(ctx).
		Model(&entities.ChatSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"platform":   platform,
			"updated_at": time.Now(),
		}).Error
}

// TouchLastMessage bumps the last-activity timestamp
func (r *chatSessionRepository) TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entities.ChatSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message_at": at,
			"updated_at":      time.Now(),
		}).Error
}
