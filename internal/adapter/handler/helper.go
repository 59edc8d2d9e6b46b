package handler

import (
	stdErrors "errors"
	"net/http"
	"time"

	"github.com/chatdesk-team/chatdesk/errors"
	"github.com/chatdesk-team/chatdesk/internal/adapter/dto/session"
	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/domain/repositories"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Info    string      `json:"info,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get("X-Request-ID")
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return writeSuccess(logger, c, http.StatusOK, data)
}

// HandleAccepted writes a standardized 202 response, used when work
// continues in the background after the request returns
func HandleAccepted(logger *zap.Logger, c echo.Context, data interface{}) error {
	return writeSuccess(logger, c, http.StatusAccepted, data)
}

func writeSuccess(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)

	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		if logger != nil {
			logger.Error("http.response.error",
				zap.String("request_id", reqID),
				zap.String("path", c.Path()),
				zap.Any("app_code", appErr.Code),
				zap.Error(err),
			)
		}

		info := ""
		if appErr.Raw != nil {
			info = appErr.Raw.Error()
		}

		body := errs{
			Code:    appErr.Code,
			Message: appErr.Message,
			Info:    info,
		}

		return c.JSON(appErr.HTTPCode, body)
	}

	// echo.HTTPError comes out of Bind and the validator
	var httpErr *echo.HTTPError
	if stdErrors.As(err, &httpErr) {
		if logger != nil {
			logger.Warn("http.response.error",
				zap.String("request_id", reqID),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		body := errs{
			Code:    errors.ErrorCode_INVALID_PAYLOAD,
			Message: "Invalid request payload",
			Info:    httpErrorInfo(httpErr),
		}

		return c.JSON(httpErr.Code, body)
	}

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	body := errs{
		Code:    errors.ErrorCode_INTERNAL,
		Message: "Internal server error",
		Info:    err.Error(),
	}

	return c.JSON(http.StatusInternalServerError, body)
}

func httpErrorInfo(httpErr *echo.HTTPError) string {
	if msg, ok := httpErr.Message.(string); ok {
		return msg
	}
	return httpErr.Error()
}

// buildSessionFilters converts ListSessionsRequest to repository filters
func buildSessionFilters(req *session.ListSessionsRequest) repositories.SessionFilters {
	filters := repositories.SessionFilters{
		Search: req.Search,
		Limit:  req.PageSize,
		Offset: (req.Page - 1) * req.PageSize,
	}

	if req.Platform != nil {
		platform := entities.Platform(*req.Platform)
		filters.Platform = &platform
	}

	return filters
}

// buildMessageFilter converts ListMessagesRequest to a repository filter
func buildMessageFilter(req *session.ListMessagesRequest) repositories.MessageFilter {
	filter := repositories.MessageFilter{
		StartDate: parseDayStart(req.StartDate),
		EndDate:   parseDayEnd(req.EndDate),
		Limit:     req.Limit,
	}

	if req.Direction != nil {
		direction := entities.MessageDirection(*req.Direction)
		filter.Direction = &direction
	}

	return filter
}

// parseDayStart parses a YYYY-MM-DD query value as midnight UTC, nil when
// absent. Format errors are caught by request validation before this runs.
func parseDayStart(value string) *time.Time {
	if value == "" {
		return nil
	}
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &day
}

// parseDayEnd parses a YYYY-MM-DD query value as the last instant of that
// day, so end_date bounds are inclusive
func parseDayEnd(value string) *time.Time {
	start := parseDayStart(value)
	if start == nil {
		return nil
	}
	end := start.Add(24*time.Hour - time.Nanosecond)
	return &end
}
