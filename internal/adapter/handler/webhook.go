package handler

import (
	"encoding/json"
	stdErrors "errors"
	"io"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/chatdesk-team/chatdesk/errors"
	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/usecase/sentiment"
	"github.com/chatdesk-team/chatdesk/internal/usecase/session"
	"github.com/chatdesk-team/chatdesk/pkg/webhook"
)

// inboundMessage is the bridge delivery shape. Payload is the transport
// envelope, stored as received.
type inboundMessage struct {
	ContactID   string          `json:"contact_id"`
	ContactName string          `json:"contact_name"`
	Payload     json.RawMessage `json:"payload"`
}

// Webhook receives message deliveries from the transport bridge
type Webhook struct {
	sessionService   session.Service
	sentimentService sentiment.Service
	secret           string
	logger           *zap.Logger
}

// NewWebhook creates a new webhook handler
func NewWebhook(sessionService session.Service, sentimentService sentiment.Service, secret string, logger *zap.Logger) *Webhook {
	return &Webhook{
		sessionService:   sessionService,
		sentimentService: sentimentService,
		secret:           secret,
		logger:           logger,
	}
}

// HandleInboundMessage ingests one bridge delivery: verify the HMAC
// signature, upsert the contact's session, store the raw envelope, then
// classify the text inline. Classification is best effort; a delivery is
// acked as soon as the message row exists.
// POST /v1/webhook/messages
func (h *Webhook) HandleInboundMessage(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	signature := c.Request().Header.Get(webhook.SignatureHeader)
	if !webhook.Verify(h.secret, body, signature) {
		h.logger.Warn("🚫 Rejected inbound delivery with bad signature",
			zap.String("request_id", getRequestID(c)),
		)
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	var req inboundMessage
	if err := json.Unmarshal(body, &req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if req.ContactID == "" || len(req.Payload) == 0 {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("contact_id and payload are required"))
	}

	message, err := h.sessionService.IngestInbound(c.Request().Context(), req.ContactID, req.ContactName, datatypes.JSON(req.Payload))
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	analyzed := h.analyzeInline(c, message.ID)

	return HandleSuccess(h.logger, c, map[string]interface{}{
		"message_id": message.ID,
		"session_id": message.SessionID,
		"analyzed":   analyzed,
	})
}

// analyzeInline classifies the stored message without failing the ack.
// Envelopes with nothing to classify are expected and logged at debug.
func (h *Webhook) analyzeInline(c echo.Context, messageID uuid.UUID) bool {
	_, err := h.sentimentService.AnalyzeStoredMessage(c.Request().Context(), messageID)
	if err == nil {
		return true
	}

	if stdErrors.Is(err, entities.ErrEmptyMessage) || stdErrors.Is(err, entities.ErrUnrecognizedEnvelope) {
		h.logger.Debug("message not analyzable",
			zap.String("message_id", messageID.String()),
			zap.Error(err),
		)
		return false
	}

	h.logger.Warn("⚠️ Inline analysis failed",
		zap.String("message_id", messageID.String()),
		zap.Error(err),
	)
	return false
}
