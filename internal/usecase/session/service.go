package session

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/domain/repositories"
)

// Service defines the interface for session use case
type Service interface {
	// ListSessions retrieves sessions with filters
	ListSessions(ctx context.Context, filters repositories.SessionFilters) ([]*entities.ChatSession, int64, error)

	// GetSession retrieves a session by ID
	GetSession(ctx context.Context, sessionID uuid.UUID) (*entities.ChatSession, error)

	// GetMessages retrieves the messages of a session, oldest first
	GetMessages(ctx context.Context, sessionID uuid.UUID, filter repositories.MessageFilter) ([]*entities.ChatMessage, error)

	// CountMessages counts the messages of a session
	CountMessages(ctx context.Context, sessionID uuid.UUID) (int64, error)

	// EnsureSession finds or creates the session for a transport contact
	EnsureSession(ctx context.Context, contactID, contactName string) (*entities.ChatSession, error)

	// IngestInbound records a message delivered by the transport bridge,
	// creating the contact's session on first sight
	IngestInbound(ctx context.Context, contactID, contactName string, payload datatypes.JSON) (*entities.ChatMessage, error)
}

// Ensure SessionService implements Service interface
var _ Service = (*SessionService)(nil)
