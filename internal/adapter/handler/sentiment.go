package handler

import (
	stdErrors "errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/chatdesk-team/chatdesk/errors"
	sentimentdto "github.com/chatdesk-team/chatdesk/internal/adapter/dto/sentiment"
	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/domain/repositories"
	"github.com/chatdesk-team/chatdesk/internal/usecase/sentiment"
)

// Sentiment handles sentiment analysis HTTP requests
type Sentiment struct {
	svc    sentiment.Service
	runner sentiment.Runner
	logger *zap.Logger
}

// NewSentiment creates a new sentiment handler
func NewSentiment(svc sentiment.Service, runner sentiment.Runner, logger *zap.Logger) *Sentiment {
	return &Sentiment{svc: svc, runner: runner, logger: logger}
}

// AnalyzeMessage classifies a single stored message
// POST /v1/messages/:id/analyze
func (h *Sentiment) AnalyzeMessage(c echo.Context) error {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid message ID"))
	}

	analysis, err := h.svc.AnalyzeStoredMessage(c.Request().Context(), messageID)
	if err != nil {
		return HandleError(h.logger, c, mapAnalysisError(messageID, err))
	}

	return HandleSuccess(h.logger, c, analysis)
}

// GetStats aggregates analysis results for the dashboard
// GET /v1/sentiment/stats
func (h *Sentiment) GetStats(c echo.Context) error {
	var req sentimentdto.StatsRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	filter := repositories.MessageFilter{
		StartDate: parseDayStart(req.StartDate),
		EndDate:   parseDayEnd(req.EndDate),
	}
	if req.SessionID != nil {
		sessionID, err := uuid.Parse(*req.SessionID)
		if err != nil {
			return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid session ID"))
		}
		filter.SessionID = &sessionID
	}

	stats, err := h.svc.GetStats(c.Request().Context(), filter)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, stats)
}

// GetUsage reports today's spend against the configured budget
// GET /v1/sentiment/usage
func (h *Sentiment) GetUsage(c echo.Context) error {
	usage, err := h.svc.GetTodayUsage(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, usage)
}

// StartBatch starts a background batch analysis job
// POST /v1/sentiment/batch
func (h *Sentiment) StartBatch(c echo.Context) error {
	var req sentimentdto.BatchStartRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	batchReq := sentiment.BatchRequest{
		StartDate:   parseDayStart(req.StartDate),
		EndDate:     parseDayEnd(req.EndDate),
		MaxMessages: req.MaxMessages,
	}
	if req.SessionID != nil {
		sessionID, err := uuid.Parse(*req.SessionID)
		if err != nil {
			return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid session ID"))
		}
		batchReq.SessionID = &sessionID
	}

	job, err := h.runner.Start(c.Request().Context(), batchReq)
	if err != nil {
		if stdErrors.Is(err, entities.ErrBatchAlreadyRunning) {
			return HandleError(h.logger, c, errors.ErrBatchAlreadyRunning(h.activeJobID(c)))
		}
		return HandleError(h.logger, c, err)
	}

	return HandleAccepted(h.logger, c, job)
}

// GetBatch retrieves a batch job by ID
// GET /v1/sentiment/batch/:id
func (h *Sentiment) GetBatch(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid job ID"))
	}

	job, err := h.runner.Get(c.Request().Context(), jobID)
	if err != nil {
		if stdErrors.Is(err, entities.ErrBatchJobNotFound) {
			return HandleError(h.logger, c, errors.ErrBatchNotFound(jobID.String()))
		}
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, job)
}

// ListBatches retrieves the most recently started batch jobs
// GET /v1/sentiment/batch
func (h *Sentiment) ListBatches(c echo.Context) error {
	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid limit"))
		}
		limit = parsed
	}

	jobs, err := h.runner.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, jobs)
}

// CancelBatch cancels a running batch job
// POST /v1/sentiment/batch/:id/cancel
func (h *Sentiment) CancelBatch(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid job ID"))
	}

	job, err := h.runner.Cancel(c.Request().Context(), jobID)
	if err != nil {
		switch {
		case stdErrors.Is(err, entities.ErrBatchJobNotFound):
			return HandleError(h.logger, c, errors.ErrBatchNotFound(jobID.String()))
		case stdErrors.Is(err, entities.ErrBatchJobFinished):
			return HandleError(h.logger, c, errors.ErrBatchFinished(jobID.String()))
		default:
			return HandleError(h.logger, c, err)
		}
	}

	return HandleSuccess(h.logger, c, job)
}

// activeJobID looks up the running job for the 409 detail, best effort
func (h *Sentiment) activeJobID(c echo.Context) string {
	active, err := h.runner.Active(c.Request().Context())
	if err != nil || active == nil {
		return ""
	}
	return active.ID.String()
}

// mapAnalysisError translates analysis sentinels into HTTP errors
func mapAnalysisError(messageID uuid.UUID, err error) error {
	switch {
	case stdErrors.Is(err, entities.ErrMessageNotFound):
		return errors.ErrMessageNotFound(messageID.String())
	case stdErrors.Is(err, entities.ErrUnrecognizedEnvelope):
		return errors.ErrUnrecognizedEnvelope(messageID.String())
	case stdErrors.Is(err, entities.ErrEmptyMessage):
		return errors.ErrEmptyMessage(messageID.String())
	default:
		return err
	}
}
