package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	GitHub   GitHubConfig
	LLM      LLMConfig
	Slack    SlackConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds settings for the optional blob content cache.
// An empty Addr disables the cache entirely.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
	TTL      time.Duration
}

// ServerConfig holds HTTP server settings. There is no write timeout knob:
// SSE channels and synchronous review runs outlive any fixed deadline.
type ServerConfig struct {
	Addr        string
	ReadTimeout time.Duration
	CORSOrigins []string
}

// GitHubConfig holds hosting-API access settings. The base URLs are
// overridable so tests can point the client at a local fake.
type GitHubConfig struct {
	Token      string //nolint:gosec // G117: API token config
	APIBaseURL string
	RawBaseURL string
}

// LLMConfig holds settings for the external inference service.
type LLMConfig struct {
	APIKey        string //nolint:gosec // G117: API key config
	Model         string
	MaxTokens     int
	FileCharLimit int
}

// SlackConfig holds optional review-completion notification settings.
// An empty bot token disables Slack notifications.
type SlackConfig struct {
	BotToken string
	Channel  string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("REVIEWD_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("REVIEWD_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("REVIEWD_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cacheTTL, err := getEnvDuration("REVIEWD_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("REVIEWD_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	maxTokens, err := getEnvInt("REVIEWD_LLM_MAX_TOKENS", 8192)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	fileCharLimit, err := getEnvInt("REVIEWD_LLM_FILE_CHAR_LIMIT", 8000)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("REVIEWD_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("REVIEWD_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("REVIEWD_DB_USER", "reviewd"),
			Password: getEnv("REVIEWD_DB_PASSWORD", ""),
			DBName:   getEnv("REVIEWD_DB_NAME", "reviewd_dev"),
			SSLMode:  getEnv("REVIEWD_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REVIEWD_REDIS_ADDR", ""),
			Password: getEnv("REVIEWD_REDIS_PASSWORD", ""),
			DB:       redisDB,
			TTL:      cacheTTL,
		},
		Server: ServerConfig{
			Addr:        getEnv("REVIEWD_SERVER_ADDR", ":8000"),
			ReadTimeout: readTimeout,
			CORSOrigins: corsOrigins,
		},
		GitHub: GitHubConfig{
			Token:      getEnv("GITHUB_TOKEN", ""),
			APIBaseURL: getEnv("REVIEWD_GITHUB_API_URL", "https://api.github.com"),
			RawBaseURL: getEnv("REVIEWD_GITHUB_RAW_URL", "https://raw.githubusercontent.com"),
		},
		LLM: LLMConfig{
			APIKey:        getEnv("ANTHROPIC_API_KEY", ""),
			Model:         getEnv("REVIEWD_LLM_MODEL", "claude-sonnet-4-5"),
			MaxTokens:     maxTokens,
			FileCharLimit: fileCharLimit,
		},
		Slack: SlackConfig{
			BotToken: getEnv("REVIEWD_SLACK_BOT_TOKEN", ""),
			Channel:  getEnv("REVIEWD_SLACK_CHANNEL", ""),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if c.GitHub.Token == "" {
		log.Warn().Msg("GITHUB_TOKEN is not set; unauthenticated API limits apply")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("REVIEWD_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("REVIEWD_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("REVIEWD_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("REVIEWD_LLM_MAX_TOKENS must be >= 1, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.FileCharLimit < 1 {
		return fmt.Errorf("REVIEWD_LLM_FILE_CHAR_LIMIT must be >= 1, got %d", c.LLM.FileCharLimit)
	}
	if c.Slack.BotToken != "" && c.Slack.Channel == "" {
		return errors.New("REVIEWD_SLACK_CHANNEL is required when REVIEWD_SLACK_BOT_TOKEN is set")
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
