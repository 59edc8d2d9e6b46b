package handler

import (
	stdErrors "errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/chatdesk-team/chatdesk/errors"
	sessiondto "github.com/chatdesk-team/chatdesk/internal/adapter/dto/session"
	"github.com/chatdesk-team/chatdesk/internal/adapter/presenter"
	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/usecase/reply"
	"github.com/chatdesk-team/chatdesk/internal/usecase/sentiment"
	"github.com/chatdesk-team/chatdesk/internal/usecase/session"
)

// Session handles chat session HTTP requests
type Session struct {
	sessionService   session.Service
	replyService     reply.Service
	sentimentService sentiment.Service
	logger           *zap.Logger
}

// NewSession creates a new session handler
func NewSession(sessionService session.Service, replyService reply.Service, sentimentService sentiment.Service, logger *zap.Logger) *Session {
	return &Session{
		sessionService:   sessionService,
		replyService:     replyService,
		sentimentService: sentimentService,
		logger:           logger,
	}
}

// ListSessions handles GET /sessions
// @Summary      List chat sessions
// @Description  Gets a paginated list of chat sessions, most recently active first
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int     false  "Page number (default: 1)"
// @Param        page_size  query     int     false  "Items per page (default: 20)"
// @Param        platform   query     string  false  "Platform filter (whatsapp/instagram/facebook/unknown)"
// @Param        search     query     string  false  "Search by contact name or contact id"
// @Router       /sessions [get]
func (h *Session) ListSessions(c echo.Context) error {
	var req sessiondto.ListSessionsRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	// Set defaults
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	sessions, total, err := h.sessionService.ListSessions(c.Request().Context(), buildSessionFilters(&req))
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToSessionListResponse(sessions, total, req.Page, req.PageSize))
}

// GetSession handles GET /sessions/:id
// @Summary      Get a chat session
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Session ID (UUID)"
// @Router       /sessions/{id} [get]
func (h *Session) GetSession(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid session ID"))
	}

	sess, err := h.sessionService.GetSession(c.Request().Context(), sessionID)
	if err != nil {
		if stdErrors.Is(err, entities.ErrSessionNotFound) {
			return HandleError(h.logger, c, errors.ErrSessionNotFound(sessionID.String()))
		}
		return HandleError(h.logger, c, err)
	}

	response := presenter.ToSessionResponse(sess)
	if count, err := h.sessionService.CountMessages(c.Request().Context(), sessionID); err != nil {
		h.logger.Warn("Failed to count session messages", zap.Error(err))
	} else {
		response.MessageCount = &count
	}

	return HandleSuccess(h.logger, c, response)
}

// GetMessages handles GET /sessions/:id/messages
// @Summary      List a session's messages
// @Description  Gets the messages of a session with decoded envelopes and stored sentiment annotations, oldest first
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id          path   string  true   "Session ID (UUID)"
// @Param        direction   query  string  false  "Direction filter (inbound/outbound)"
// @Param        start_date  query  string  false  "Start date (YYYY-MM-DD)"
// @Param        end_date    query  string  false  "End date (YYYY-MM-DD, inclusive)"
// @Param        limit       query  int     false  "Max messages to return"
// @Router       /sessions/{id}/messages [get]
func (h *Session) GetMessages(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid session ID"))
	}

	var req sessiondto.ListMessagesRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	messages, err := h.sessionService.GetMessages(c.Request().Context(), sessionID, buildMessageFilter(&req))
	if err != nil {
		if stdErrors.Is(err, entities.ErrSessionNotFound) {
			return HandleError(h.logger, c, errors.ErrSessionNotFound(sessionID.String()))
		}
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToMessageListResponse(messages, h.sessionAnalyses(c, sessionID)))
}

// Reply handles POST /sessions/:id/reply
// @Summary      Send a staff reply
// @Description  Stores the outbound message and forwards it to the configured reply webhook
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                 true  "Session ID (UUID)"
// @Param        request  body  session.ReplyRequest   true  "Reply text"
// @Router       /sessions/{id}/reply [post]
func (h *Session) Reply(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid session ID"))
	}

	var req sessiondto.ReplyRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	message, err := h.replyService.Send(c.Request().Context(), sessionID, req.Text)
	if err != nil {
		switch {
		case stdErrors.Is(err, entities.ErrSessionNotFound):
			return HandleError(h.logger, c, errors.ErrSessionNotFound(sessionID.String()))
		case stdErrors.Is(err, entities.ErrInvalidRequest):
			return HandleError(h.logger, c, errors.ErrInvalidArgument("Reply text must not be empty"))
		default:
			return HandleError(h.logger, c, err)
		}
	}

	return HandleSuccess(h.logger, c, presenter.ToMessageResponse(message))
}

// sessionAnalyses loads the stored analyses keyed by message ID, best effort.
// The conversation view still renders without annotations when this fails.
func (h *Session) sessionAnalyses(c echo.Context, sessionID uuid.UUID) map[uuid.UUID]*entities.SentimentAnalysis {
	analyses, err := h.sentimentService.ListSessionAnalyses(c.Request().Context(), sessionID)
	if err != nil {
		h.logger.Warn("Failed to load session analyses", zap.Error(err))
		return nil
	}

	byMessage := make(map[uuid.UUID]*entities.SentimentAnalysis, len(analyses))
	for _, a := range analyses {
		byMessage[a.MessageID] = a
	}
	return byMessage
}
