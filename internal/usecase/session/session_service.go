package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/domain/repositories"
)

// SessionService handles conversation listing and the derived platform
// annotation on session rows.
type SessionService struct {
	sessionRepo repositories.ChatSessionRepository
	messageRepo repositories.MessageRepository
	logger      *zap.Logger
}

// NewSessionService creates a new session service
func NewSessionService(
	sessionRepo repositories.ChatSessionRepository,
	messageRepo repositories.MessageRepository,
	logger *zap.Logger,
) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		logger:      logger,
	}
}

// ListSessions retrieves sessions with filters
func (s *SessionService) ListSessions(ctx context.Context, filters repositories.SessionFilters) ([]*entities.ChatSession, int64, error) {
	sessions, total, err := s.sessionRepo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, sess := range sessions {
		s.ensurePlatform(ctx, sess)
	}
	return sessions, total, nil
}

// GetSession retrieves a session by ID
func (s *SessionService) GetSession(ctx context.Context, sessionID uuid.UUID) (*entities.ChatSession, error) {
	sess, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil {
		return nil, entities.ErrSessionNotFound
	}
	s.ensurePlatform(ctx, sess)
	return sess, nil
}

// GetMessages retrieves the messages of a session, oldest first
func (s *SessionService) GetMessages(ctx context.Context, sessionID uuid.UUID, filter repositories.MessageFilter) ([]*entities.ChatMessage, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	filter.SessionID = &sessionID
	messages, err := s.messageRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// CountMessages counts the messages of a session
func (s *SessionService) CountMessages(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	count, err := s.messageRepo.CountBySession(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// EnsureSession finds or creates the session for a transport contact
func (s *SessionService) EnsureSession(ctx context.Context, contactID, contactName string) (*entities.ChatSession, error) {
	existing, err := s.sessionRepo.FindByContactID(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if existing != nil {
		s.ensurePlatform(ctx, existing)
		return existing, nil
	}

	sess := entities.NewChatSession(contactID, contactName, DetectPlatform(contactID))
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		// A concurrent delivery may have created the row first.
		if again, findErr := s.sessionRepo.FindByContactID(ctx, contactID); findErr == nil && again != nil {
			return again, nil
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("💬 New chat session",
		zap.String("session_id", sess.ID.String()),
		zap.String("contact_id", contactID),
		zap.String("platform", string(sess.Platform)),
	)
	return sess, nil
}

// IngestInbound records a message delivered by the transport bridge. The
// raw envelope is stored as received; decoding happens at read and
// analysis time.
func (s *SessionService) IngestInbound(ctx context.Context, contactID, contactName string, payload datatypes.JSON) (*entities.ChatMessage, error) {
	sess, err := s.EnsureSession(ctx, contactID, contactName)
	if err != nil {
		return nil, err
	}

	message := entities.NewChatMessage(sess.ID, entities.DirectionInbound, payload)
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to store inbound message: %w", err)
	}

	if err := s.sessionRepo.TouchLastMessage(ctx, sess.ID, message.CreatedAt); err != nil {
		s.logger.Warn("⚠️ Could not bump session activity",
			zap.String("session_id", sess.ID.String()),
			zap.Error(err),
		)
	}

	return message, nil
}

// ensurePlatform recomputes and persists the platform annotation when the
// column is empty. The write is best effort; reads do not fail on it.
func (s *SessionService) ensurePlatform(ctx context.Context, sess *entities.ChatSession) {
	if sess.Platform != "" {
		return
	}

	sess.Platform = DetectPlatform(sess.ContactID)
	if err := s.sessionRepo.UpdatePlatform(ctx, sess.ID, sess.Platform); err != nil {
		s.logger.Warn("⚠️ Could not persist platform annotation",
			zap.String("session_id", sess.ID.String()),
			zap.Error(err),
		)
	}
}
