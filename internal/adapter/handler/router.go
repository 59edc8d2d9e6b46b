package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chatdesk-team/chatdesk/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg              *config.Config
	authHandler      *Auth
	sessionHandler   *Session
	sentimentHandler *Sentiment
	calendarHandler  *Calendar
	settingsHandler  *Settings
	webhookHandler   *Webhook
	authMiddleware   echo.MiddlewareFunc
}

// NewRouter creates a new router with all handlers
func NewRouter(
	cfg *config.Config,
	authHandler *Auth,
	sessionHandler *Session,
	sentimentHandler *Sentiment,
	calendarHandler *Calendar,
	settingsHandler *Settings,
	webhookHandler *Webhook,
	authMiddleware echo.MiddlewareFunc,
) *Router {
	return &Router{
		cfg:              cfg,
		authHandler:      authHandler,
		sessionHandler:   sessionHandler,
		sentimentHandler: sentimentHandler,
		calendarHandler:  calendarHandler,
		settingsHandler:  settingsHandler,
		webhookHandler:   webhookHandler,
		authMiddleware:   authMiddleware,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	// Public surface: token mint, the OAuth redirect Google calls back,
	// and the HMAC-verified bridge webhook. Everything else requires a
	// bearer token.
	v1.POST("/auth/token", rt.authHandler.Token)
	v1.GET("/calendar/callback", rt.calendarHandler.Callback)
	v1.POST("/webhook/messages", rt.webhookHandler.HandleInboundMessage)

	protected := v1.Group("", rt.authMiddleware)

	rt.setupSessionRoutes(protected)
	rt.setupSentimentRoutes(protected)
	rt.setupCalendarRoutes(protected)
	rt.setupSettingsRoutes(protected)
}

// setupSessionRoutes configures chat session routes
func (rt *Router) setupSessionRoutes(g *echo.Group) {
	sessionGroup := g.Group("/sessions")

	sessionGroup.GET("", rt.sessionHandler.ListSessions)
	sessionGroup.GET("/:id", rt.sessionHandler.GetSession)
	sessionGroup.GET("/:id/messages", rt.sessionHandler.GetMessages)
	sessionGroup.POST("/:id/reply", rt.sessionHandler.Reply)
}

// setupSentimentRoutes configures analysis and batch job routes
func (rt *Router) setupSentimentRoutes(g *echo.Group) {
	g.POST("/messages/:id/analyze", rt.sentimentHandler.AnalyzeMessage)

	sentimentGroup := g.Group("/sentiment")
	sentimentGroup.GET("/stats", rt.sentimentHandler.GetStats)
	sentimentGroup.GET("/usage", rt.sentimentHandler.GetUsage)
	sentimentGroup.POST("/batch", rt.sentimentHandler.StartBatch)
	sentimentGroup.GET("/batch", rt.sentimentHandler.ListBatches)
	sentimentGroup.GET("/batch/:id", rt.sentimentHandler.GetBatch)
	sentimentGroup.POST("/batch/:id/cancel", rt.sentimentHandler.CancelBatch)
}

// setupCalendarRoutes configures Google Calendar routes. The OAuth
// callback itself is registered on the public group.
func (rt *Router) setupCalendarRoutes(g *echo.Group) {
	calendarGroup := g.Group("/calendar")

	calendarGroup.GET("/auth-url", rt.calendarHandler.AuthURL)
	calendarGroup.GET("/events", rt.calendarHandler.Events)
}

// setupSettingsRoutes configures app setting routes
func (rt *Router) setupSettingsRoutes(g *echo.Group) {
	settingsGroup := g.Group("/settings")

	settingsGroup.GET("/:key", rt.settingsHandler.GetSetting)
	settingsGroup.PUT("/:key", rt.settingsHandler.UpdateSetting)
	settingsGroup.DELETE("/:key", rt.settingsHandler.DeleteSetting)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
