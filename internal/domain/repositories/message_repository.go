package repositories

import (
	"context"
	"time"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/google/uuid"
)

// MessageFilter narrows message queries. Zero values mean "no constraint".
type MessageFilter struct {
	SessionID *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Direction *entities.MessageDirection
	Limit     int
}

// MessageRepository defines the interface for chat message data access
type MessageRepository interface {
	// Create persists a new message
	Create(ctx context.Context, message *entities.ChatMessage) error

	// FindByID retrieves a message by ID, nil when none exists
	FindByID(ctx context.Context, id uuid.UUID) (*entities.ChatMessage, error)

	// List retrieves messages matching the filter, oldest first
	List(ctx context.Context, filter MessageFilter) ([]*entities.ChatMessage, error)

	// CountBySession counts the messages of a session
	CountBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)
}
