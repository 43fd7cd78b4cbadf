package config

import (
	"errors"
	"fmt"
	"net/url"
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
	JWT      JWTConfig
	Server   ServerConfig
	Telegram TelegramConfig
	Slack    SlackConfig
	Notify   NotifyConfig
	Tasks    TasksConfig
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

// RedisConfig holds Redis connection settings for bot session state.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
	LoginTTL time.Duration
	AuthTTL  time.Duration
}

// JWTConfig holds JWT authentication settings.
type JWTConfig struct {
	Secret     string //nolint:gosec // G117: JWT signing secret config
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// TelegramConfig holds Telegram bot settings. An empty token disables the bot.
type TelegramConfig struct {
	BotToken    string
	PollTimeout time.Duration
}

// SlackConfig holds Slack integration settings. An empty token disables
// Slack notifications.
type SlackConfig struct {
	BotToken string
}

// NotifyConfig bounds notification delivery.
type NotifyConfig struct {
	SendTimeout time.Duration
}

// TasksConfig selects task service policies.
type TasksConfig struct {
	OwnerPolicy  string
	StatusPolicy string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("TASKLINE_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("TASKLINE_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("TASKLINE_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	loginTTL, err := getEnvDuration("TASKLINE_REDIS_LOGIN_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	authTTL, err := getEnvDuration("TASKLINE_REDIS_AUTH_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	accessTTL, err := getEnvDuration("TASKLINE_JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	refreshTTL, err := getEnvDuration("TASKLINE_JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("TASKLINE_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("TASKLINE_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	pollTimeout, err := getEnvDuration("TASKLINE_TELEGRAM_POLL_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	sendTimeout, err := getEnvDuration("TASKLINE_NOTIFY_SEND_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("TASKLINE_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("TASKLINE_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("TASKLINE_DB_USER", "taskline"),
			Password: getEnv("TASKLINE_DB_PASSWORD", ""),
			DBName:   getEnv("TASKLINE_DB_NAME", "taskline_dev"),
			SSLMode:  getEnv("TASKLINE_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("TASKLINE_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("TASKLINE_REDIS_PASSWORD", ""),
			DB:       redisDB,
			LoginTTL: loginTTL,
			AuthTTL:  authTTL,
		},
		JWT: JWTConfig{
			Secret:     getEnv("TASKLINE_JWT_SECRET", ""),
			AccessTTL:  accessTTL,
			RefreshTTL: refreshTTL,
		},
		Server: ServerConfig{
			Addr:         getEnv("TASKLINE_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
		Telegram: TelegramConfig{
			BotToken:    getEnv("TASKLINE_TELEGRAM_BOT_TOKEN", ""),
			PollTimeout: pollTimeout,
		},
		Slack: SlackConfig{
			BotToken: getEnv("TASKLINE_SLACK_BOT_TOKEN", ""),
		},
		Notify: NotifyConfig{
			SendTimeout: sendTimeout,
		},
		Tasks: TasksConfig{
			OwnerPolicy:  getEnv("TASKLINE_TASK_OWNER_POLICY", "assign-caller"),
			StatusPolicy: getEnv("TASKLINE_TASK_STATUS_POLICY", "ignore-unknown"),
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
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("TASKLINE_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("TASKLINE_JWT_SECRET must be at least 32 characters")
	}

	if c.Database.SSLMode == "disable" {
		log.Warn().Msg("TASKLINE_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("TASKLINE_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("TASKLINE_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("TASKLINE_JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("TASKLINE_JWT_REFRESH_TTL must be positive, got %s", c.JWT.RefreshTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("TASKLINE_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("TASKLINE_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Redis.LoginTTL <= 0 {
		return fmt.Errorf("TASKLINE_REDIS_LOGIN_TTL must be positive, got %s", c.Redis.LoginTTL)
	}
	if c.Redis.AuthTTL <= 0 {
		return fmt.Errorf("TASKLINE_REDIS_AUTH_TTL must be positive, got %s", c.Redis.AuthTTL)
	}
	if c.Notify.SendTimeout <= 0 {
		return fmt.Errorf("TASKLINE_NOTIFY_SEND_TIMEOUT must be positive, got %s", c.Notify.SendTimeout)
	}

	switch c.Tasks.OwnerPolicy {
	case "assign-caller", "assign-project-owner":
	default:
		return fmt.Errorf("TASKLINE_TASK_OWNER_POLICY must be assign-caller or assign-project-owner, got %q", c.Tasks.OwnerPolicy)
	}
	switch c.Tasks.StatusPolicy {
	case "ignore-unknown", "strict":
	default:
		return fmt.Errorf("TASKLINE_TASK_STATUS_POLICY must be ignore-unknown or strict, got %q", c.Tasks.StatusPolicy)
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

// URL returns the PostgreSQL connection URL form, used by the migrator.
func (c *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
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
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
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
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
