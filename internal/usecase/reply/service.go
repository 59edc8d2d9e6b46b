package reply

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/domain/repositories"
	"github.com/chatdesk-team/chatdesk/pkg/webhook"
)

// Service stores staff replies and relays them to the operator-configured
// transport webhook. Delivery is fire and forget: the reply is durable
// once stored, relay problems are logged and never fail the caller.
type Service interface {
	// Send persists an outbound reply on the session and forwards it
	Send(ctx context.Context, sessionID uuid.UUID, text string) (*entities.ChatMessage, error)
}

type service struct {
	sessionRepo repositories.ChatSessionRepository
	messageRepo repositories.MessageRepository
	settingRepo repositories.SettingRepository
	secret      string
	client      *http.Client
	logger      *zap.Logger
}

// NewService creates a new reply service. secret is the bridge shared
// secret; forwards are signed with it when it is non-empty.
func NewService(
	sessionRepo repositories.ChatSessionRepository,
	messageRepo repositories.MessageRepository,
	settingRepo repositories.SettingRepository,
	secret string,
	logger *zap.Logger,
) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		settingRepo: settingRepo,
		secret:      secret,
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

// Send persists an outbound reply on the session and forwards it
func (s *service) Send(ctx context.Context, sessionID uuid.UUID, text string) (*entities.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, entities.ErrInvalidRequest
	}

	sess, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil {
		return nil, entities.ErrSessionNotFound
	}

	payload, err := entities.NewTextEnvelope(text).Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode reply: %w", err)
	}

	message := entities.NewChatMessage(sessionID, entities.DirectionOutbound, payload)
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to store reply: %w", err)
	}

	if err := s.sessionRepo.TouchLastMessage(ctx, sessionID, message.CreatedAt); err != nil {
		s.logger.Warn("⚠️ Could not bump session activity",
			zap.String("session_id", sessionID.String()),
			zap.Error(err),
		)
	}

	go s.forward(sess, text)

	return message, nil
}

// forward relays the reply to the webhook URL from app settings. It runs
// detached from the request context so a slow webhook cannot hold the
// HTTP response.
func (s *service) forward(sess *entities.ChatSession, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	setting, err := s.settingRepo.Get(ctx, entities.SettingKeyReplyWebhookURL)
	if err != nil {
		s.logger.Warn("⚠️ Could not load reply webhook URL", zap.Error(err))
		return
	}
	if setting == nil || strings.TrimSpace(setting.Value) == "" {
		s.logger.Warn("⚠️ Reply webhook URL not configured, reply stored only",
			zap.String("session_id", sess.ID.String()),
		)
		return
	}

	body, err := json.Marshal(map[string]string{
		"session_id": sess.ID.String(),
		"contact_id": sess.ContactID,
		"platform":   string(sess.Platform),
		"text":       text,
	})
	if err != nil {
		s.logger.Error("❌ Could not encode reply forward payload", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, setting.Value, bytes.NewReader(body))
	if err != nil {
		s.logger.Error("❌ Could not build reply forward request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if s.secret != "" {
		req.Header.Set(webhook.SignatureHeader, webhook.Sign(s.secret, body))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("⚠️ Reply forward failed",
			zap.String("session_id", sess.ID.String()),
			zap.Error(err),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("⚠️ Reply webhook returned non-success status",
			zap.String("session_id", sess.ID.String()),
			zap.Int("status", resp.StatusCode),
		)
		return
	}

	s.logger.Info("📤 Reply forwarded",
		zap.String("session_id", sess.ID.String()),
		zap.String("platform", string(sess.Platform)),
	)
}
