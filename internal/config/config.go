package config

import (
	"os"
	"strings"

	"github.com/fittracker/fittracker-bot/internal/logger"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	TelegramToken string
	OpenAIAPIKey  string
	GeminiAPIKey  string
	PublicURL     string
	Port          string
	Env           string
	DB            DBConfig
	Redis         RedisConfig
	Logger        LoggerConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// RedisConfig is optional: with an empty Host the bot falls back to the
// in-memory scratch store.
type RedisConfig struct {
	Host string
	Port string
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func Load() (*Config, error) {
	return &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		PublicURL:     strings.TrimSuffix(os.Getenv("PUBLIC_URL"), "/"),
		Port:          getEnvOrDefault("PORT", "3000"),
		Env:           getEnvOrDefault("APP_ENV", EnvDevelopment),
		DB: DBConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrDefault("DB_NAME", "fittracker"),
		},
		Redis: RedisConfig{
			Host: os.Getenv("REDIS_HOST"),
			Port: getEnvOrDefault("REDIS_PORT", "6379"),
		},
		Logger: LoggerConfig{
			Level:      parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "stdout"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}, nil
}

// IsProduction selects webhook ingestion over long polling.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// EnvPresence reports which required credentials are set. Served by
// GET /api/health so a broken deploy is diagnosable without shell access.
func (c *Config) EnvPresence() map[string]bool {
	return map[string]bool{
		"database":   c.DB.Host != "" && c.DB.DBName != "",
		"telegram":   c.TelegramToken != "",
		"openai":     c.OpenAIAPIKey != "",
		"gemini":     c.GeminiAPIKey != "",
		"public_url": c.PublicURL != "",
	}
}
