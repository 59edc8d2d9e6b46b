package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/chatdesk-team/chatdesk/pkg/validator"

	"github.com/chatdesk-team/chatdesk/internal/adapter/handler"
	"github.com/chatdesk-team/chatdesk/internal/adapter/repository"
	"github.com/chatdesk-team/chatdesk/internal/infrastructure/cache"
	"github.com/chatdesk-team/chatdesk/internal/infrastructure/database"
	"github.com/chatdesk-team/chatdesk/internal/infrastructure/external/google"
	"github.com/chatdesk-team/chatdesk/internal/infrastructure/external/oauth"
	httpmw "github.com/chatdesk-team/chatdesk/internal/infrastructure/http/middleware"
	"github.com/chatdesk-team/chatdesk/internal/infrastructure/scheduler"
	"github.com/chatdesk-team/chatdesk/internal/usecase/calendar"
	"github.com/chatdesk-team/chatdesk/internal/usecase/reply"
	"github.com/chatdesk-team/chatdesk/internal/usecase/sentiment"
	"github.com/chatdesk-team/chatdesk/internal/usecase/session"
	pkgai "github.com/chatdesk-team/chatdesk/pkg/ai"
	"github.com/chatdesk-team/chatdesk/pkg/config"
	"github.com/chatdesk-team/chatdesk/pkg/jwt"
)

// @title           ChatDesk API
// @version         1.0
// @description     Customer support dashboard API with hybrid sentiment analysis, chat session management and calendar integration

// @host      localhost:8080
// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Set-Cookie", "Cookie"},
		AllowCredentials: true,
	}))

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Run migrations only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; use sql-migrate for schema migrations in CI/CD/production")
	}

	// Initialize Redis. The dashboard runs without it: usage counters fall
	// back to the database and OAuth state to an in-memory store.
	log.Println("📦 Connecting to Redis...")
	redisCache, err := cache.NewRedisCache(&cfg.Redis)
	if err != nil {
		log.Printf("⚠️  Redis unavailable, continuing without cache: %v", err)
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	chatSessionRepo := repository.NewChatSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	sentimentRepo := repository.NewSentimentRepository(db)
	usageRepo := repository.NewUsageRepository(db, redisCache, logger)
	batchJobRepo := repository.NewBatchJobRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// Initialize the analysis pipeline
	log.Println("🤖 Initializing sentiment pipeline...")
	openaiClient := pkgai.NewClient(&cfg.OpenAI, logger)
	if openaiClient.Configured() {
		log.Printf("✅ Remote classifier enabled: %s", cfg.OpenAI.Model)
	} else {
		log.Println("⚠️  No OpenAI key configured, classification is rule-based only")
	}
	classifier := sentiment.NewClassifier(nil)
	sentimentService := sentiment.NewService(sentimentRepo, messageRepo, usageRepo, classifier, openaiClient, &cfg.Sentiment, logger)
	batchRunner := sentiment.NewRunner(batchJobRepo, sentimentRepo, messageRepo, sentimentService, &cfg.Sentiment, logger)

	// Initialize OAuth provider and CSRF state storage
	log.Println("🔐 Initializing OAuth provider...")
	googleProvider := oauth.NewGoogleProvider(&cfg.OAuth.Google)
	var stateStore oauth.Store
	if redisCache != nil {
		stateStore = oauth.NewRedisStore(redisCache)
	} else {
		stateStore = cache.NewMemoryStore()
	}
	stateManager := oauth.NewStateManager(stateStore)

	// Initialize calendar integration
	log.Println("📅 Initializing calendar service...")
	calendarClient := google.NewCalendarClient(googleProvider, logger)
	calendarService := calendar.NewService(googleProvider, stateManager, calendarClient, settingRepo, redisCache, logger)

	// Initialize session and reply services
	log.Println("💬 Initializing session services...")
	sessionService := session.NewSessionService(chatSessionRepo, messageRepo, logger)
	replyService := reply.NewService(chatSessionRepo, messageRepo, settingRepo, cfg.Webhook.BridgeSecret, logger)

	// Initialize JWT manager
	log.Println("🔑 Initializing JWT manager...")
	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry, cfg.JWT.Issuer)

	// Initialize handlers
	authHandler := handler.NewAuth(jwtManager, cfg.Auth.AdminAPIKey, logger)
	sessionHandler := handler.NewSession(sessionService, replyService, sentimentService, logger)
	sentimentHandler := handler.NewSentiment(sentimentService, batchRunner, logger)
	calendarHandler := handler.NewCalendar(calendarService, logger)
	settingsHandler := handler.NewSettings(settingRepo, logger)
	webhookHandler := handler.NewWebhook(sessionService, sentimentService, cfg.Webhook.BridgeSecret, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	authEchoMW := httpmw.EchoAuth(jwtManager)
	router := handler.NewRouter(cfg, authHandler, sessionHandler, sentimentHandler, calendarHandler, settingsHandler, webhookHandler, authEchoMW)
	router.Setup(e)

	// Start the cron janitor: stale batch job sweeps and usage cache warming
	sched := scheduler.NewScheduler(batchRunner, usageRepo, logger)
	sched.Start()

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	sched.Stop()

	log.Println("✅ Server stopped gracefully")
}
