package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	OpenAI    OpenAIConfig
	Sentiment SentimentConfig
	OAuth     OAuthConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Webhook   WebhookConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// OpenAIConfig holds the remote classifier configuration
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	InputRatePer1K  float64 // USD per 1K prompt tokens
	OutputRatePer1K float64 // USD per 1K completion tokens
}

// SentimentConfig holds the analysis pipeline configuration
type SentimentConfig struct {
	DailyBudgetUSD   float64
	DailyTokenBudget int64
	MinMessageLength int
	BatchDelay       time.Duration
	ProgressInterval int
	LeaseStaleAfter  time.Duration
}

// OAuthConfig holds OAuth configuration
type OAuthConfig struct {
	Google GoogleOAuthConfig
}

// GoogleOAuthConfig holds Google OAuth configuration
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

// AuthConfig holds dashboard authentication configuration
type AuthConfig struct {
	AdminAPIKey string
}

// WebhookConfig holds webhook configuration
type WebhookConfig struct {
	BridgeSecret string // HMAC secret shared with the transport bridge, both legs
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  []string{getEnv("ALLOWED_ORIGINS", "http://localhost:3000")},
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "chatdesk"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OpenAI: OpenAIConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			BaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
			Model:           getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			InputRatePer1K:  getEnvAsFloat("OPENAI_INPUT_RATE_PER_1K", 0.0010),
			OutputRatePer1K: getEnvAsFloat("OPENAI_OUTPUT_RATE_PER_1K", 0.0020),
		},
		Sentiment: SentimentConfig{
			DailyBudgetUSD:   getEnvAsFloat("SENTIMENT_DAILY_BUDGET_USD", 5.00),
			DailyTokenBudget: int64(getEnvAsInt("SENTIMENT_DAILY_TOKEN_BUDGET", 50000)),
			MinMessageLength: getEnvAsInt("SENTIMENT_MIN_MESSAGE_LENGTH", 3),
			BatchDelay:       getEnvAsDuration("SENTIMENT_BATCH_DELAY", "200ms"),
			ProgressInterval: getEnvAsInt("SENTIMENT_PROGRESS_INTERVAL", 10),
			LeaseStaleAfter:  getEnvAsDuration("SENTIMENT_LEASE_STALE_AFTER", "10m"),
		},
		OAuth: OAuthConfig{
			Google: GoogleOAuthConfig{
				ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
				ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
				RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/v1/calendar/callback"),
			},
		},
		JWT: JWTConfig{
			AccessSecret: getEnv("JWT_ACCESS_SECRET", "your-access-secret-change-in-production"),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", "12h"),
			Issuer:       getEnv("JWT_ISSUER", "chatdesk"),
		},
		Auth: AuthConfig{
			AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
		},
		Webhook: WebhookConfig{
			BridgeSecret: getEnv("WEBHOOK_BRIDGE_SECRET", ""),
		},
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.AdminAPIKey == "" {
		return fmt.Errorf("ADMIN_API_KEY is required")
	}
	if c.Sentiment.DailyBudgetUSD <= 0 {
		return fmt.Errorf("SENTIMENT_DAILY_BUDGET_USD must be positive")
	}
	if c.Sentiment.DailyTokenBudget <= 0 {
		return fmt.Errorf("SENTIMENT_DAILY_TOKEN_BUDGET must be positive")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
