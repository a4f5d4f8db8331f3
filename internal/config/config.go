package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	SessionDuration time.Duration
	QBankPath       string
	StaticFilesPath string
	AllowedOrigins  []string
	LogLevel        slog.Level

	// Secrets; generated at startup when empty
	CSRFSecret          string
	QuestionTokenSecret string

	// Login/signup attempts allowed per client IP per minute
	LoginRateLimit int
	// Read client IPs from X-Forwarded-For / X-Real-IP
	TrustProxy bool

	// Google sign-in (disabled when the client ID is empty)
	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:           getEnv("PORT", "8080"),
		DatabaseType:         getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:         getEnv("DB_PATH", "./certifyeasy.db"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		SessionDuration:      getDuration("SESSION_DURATION", 24*time.Hour),
		QBankPath:            getEnv("QBANK_PATH", "./qbanks"),
		StaticFilesPath:      getEnv("STATIC_PATH", "./static"),
		AllowedOrigins:       getList("CORS_ALLOWED_ORIGINS"),
		LogLevel:             getLevel("LOG_LEVEL", slog.LevelInfo),
		CSRFSecret:           getEnv("CSRF_SECRET", ""),
		QuestionTokenSecret:  getEnv("QUESTION_TOKEN_SECRET", ""),
		LoginRateLimit:       getInt("LOGIN_RATE_LIMIT", 10),
		TrustProxy:           getBool("TRUST_PROXY", false),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"),
	}
}

// GoogleEnabled reports whether Google sign-in is configured
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("config: invalid duration, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		slog.Warn("config: invalid integer, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("config: invalid boolean, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return b
}

func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getLevel(key string, defaultValue slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		slog.Warn("config: invalid log level, using default", "key", key, "value", value)
		return defaultValue
	}
	return level
}
