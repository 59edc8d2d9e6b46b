package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/chatdesk-team/chatdesk/errors"
	"github.com/chatdesk-team/chatdesk/internal/adapter/dto/auth"
	"github.com/chatdesk-team/chatdesk/pkg/jwt"
)

// dashboardSubject is the JWT subject for tokens minted from the admin key.
// The dashboard is a single-principal surface; there are no user accounts.
const dashboardSubject = "dashboard"

// Auth handles authentication HTTP requests
type Auth struct {
	jwtManager *jwt.Manager
	apiKey     string
	logger     *zap.Logger
}

// NewAuth creates a new auth handler
func NewAuth(jwtManager *jwt.Manager, apiKey string, logger *zap.Logger) *Auth {
	return &Auth{
		jwtManager: jwtManager,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Token exchanges the configured admin API key for a short-lived JWT
// POST /v1/auth/token
func (h *Auth) Token(c echo.Context) error {
	var req auth.TokenRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	if h.apiKey == "" || subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.apiKey)) != 1 {
		return HandleError(h.logger, c, errors.ErrInvalidCredentials())
	}

	token, err := h.jwtManager.GenerateAccessToken(dashboardSubject, "admin")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}

	expiresIn := int(h.jwtManager.GetAccessExpiry().Seconds())

	// Cookie mirror of the bearer token, for browser clients
	c.SetCookie(&http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		MaxAge:   expiresIn,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	return HandleSuccess(h.logger, c, &auth.TokenResponse{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}
