package handler

import (
	stdErrors "errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/chatdesk-team/chatdesk/errors"
	calendardto "github.com/chatdesk-team/chatdesk/internal/adapter/dto/calendar"
	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/usecase/calendar"
)

// defaultEventWindow is how far ahead the events endpoint looks when the
// caller gives no bounds
const defaultEventWindow = 7 * 24 * time.Hour

// Calendar handles Google Calendar HTTP requests
type Calendar struct {
	svc    calendar.Service
	logger *zap.Logger
}

// NewCalendar creates a new calendar handler
func NewCalendar(svc calendar.Service, logger *zap.Logger) *Calendar {
	return &Calendar{svc: svc, logger: logger}
}

// AuthURL returns the Google consent URL to start linking
// GET /v1/calendar/auth-url
func (h *Calendar) AuthURL(c echo.Context) error {
	ctx := c.Request().Context()

	authURL, err := h.svc.AuthURL(ctx)
	if err != nil {
		return HandleError(h.logger, c, mapCalendarError(err))
	}

	linked, err := h.svc.Linked(ctx)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, &calendardto.AuthURLResponse{
		AuthURL: authURL,
		Linked:  linked,
	})
}

// Callback handles the OAuth redirect from Google
// GET /v1/calendar/callback
func (h *Calendar) Callback(c echo.Context) error {
	state := c.QueryParam("state")
	code := c.QueryParam("code")

	if state == "" || code == "" {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Missing code or state parameter"))
	}

	if err := h.svc.HandleCallback(c.Request().Context(), state, code); err != nil {
		return HandleError(h.logger, c, mapCalendarError(err))
	}

	return HandleSuccess(h.logger, c, map[string]interface{}{"linked": true})
}

// Events lists upcoming events from the linked calendar
// GET /v1/calendar/events
func (h *Calendar) Events(c echo.Context) error {
	from := time.Now()
	if raw := c.QueryParam("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid from timestamp, want RFC3339"))
		}
		from = parsed
	}

	to := from.Add(defaultEventWindow)
	if raw := c.QueryParam("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid to timestamp, want RFC3339"))
		}
		to = parsed
	}
	if !to.After(from) {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("to must be after from"))
	}

	maxResults := 0
	if raw := c.QueryParam("max"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 250 {
			return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid max"))
		}
		maxResults = parsed
	}

	events, err := h.svc.ListEvents(c.Request().Context(), from, to, maxResults)
	if err != nil {
		return HandleError(h.logger, c, mapCalendarError(err))
	}

	return HandleSuccess(h.logger, c, &calendardto.EventsResponse{
		From:   from,
		To:     to,
		Events: events,
	})
}

// mapCalendarError translates calendar sentinels into HTTP errors
func mapCalendarError(err error) error {
	switch {
	case stdErrors.Is(err, entities.ErrCalendarNotConfigured):
		return errors.ErrCalendarNotConfigured()
	case stdErrors.Is(err, entities.ErrCalendarNotLinked):
		return errors.ErrCalendarNotLinked()
	case stdErrors.Is(err, entities.ErrOAuthStateMismatch):
		return errors.ErrOAuthStateMismatch()
	default:
		return err
	}
}
