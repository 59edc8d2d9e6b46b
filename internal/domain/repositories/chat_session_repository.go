package repositories

import (
	"context"
	"time"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/google/uuid"
)

// SessionFilters represents filter options for listing chat sessions
type SessionFilters struct {
	Platform *entities.Platform
	Search   string // Search in contact name, contact id
	Limit    int
	Offset   int
}

// ChatSessionRepository defines the interface for chat session data access
type ChatSessionRepository interface {
	// Create creates a new session
	Create(ctx context.Context, session *entities.ChatSession) error

	// FindByID retrieves a session by ID, nil when none exists
	FindByID(ctx context.Context, id uuid.UUID) (*entities.ChatSession, error)

	// FindByContactID retrieves a session by its transport contact id
	FindByContactID(ctx context.Context, contactID string) (*entities.ChatSession, error)

	// List retrieves sessions with filters, most recently active first
	List(ctx context.Context, filters SessionFilters) ([]*entities.ChatSession, int64, error)

	// UpdatePlatform writes the derived platform annotation back to the row
	UpdatePlatform(ctx context.Context, id uuid.UUID, platform entities.Platform) error

	// TouchLastMessage bumps the last-activity timestamp
	TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error
}
