package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Auth          AuthConfig
	Push          PushConfig
	Email         EmailConfig
	Notifications NotificationConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Environment string // "development", "production", "test"
	Debug       bool
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig points at the OIDC issuer that vends the bearer tokens the API
// accepts. The issuer is the source of truth for identities; the server only
// verifies and never mints credentials.
type AuthConfig struct {
	IssuerURL string
	ClientID  string
	Stub      bool // accept "stub:<uid>" tokens, local development only
}

type PushConfig struct {
	Provider  string // "fcm", "console"
	ServerKey string
	Endpoint  string
	Timeout   time.Duration
	Workers   int
	QueueSize int
}

type EmailConfig struct {
	Provider     string // "resend", "console", "" (disabled)
	FromAddress  string
	FromName     string
	BaseURL      string
	ResendAPIKey string
}

type NotificationConfig struct {
	TTLDays int // 0 disables expiry
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        getEnvInt("SERVER_PORT", 8080),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvBool("SERVER_DEBUG", false),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "clanimo"),
			Password: getEnv("DB_PASSWORD", "clanimo"),
			DBName:   getEnv("DB_NAME", "clanimo"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			IssuerURL: getEnv("AUTH_ISSUER_URL", ""),
			ClientID:  getEnv("AUTH_CLIENT_ID", ""),
			Stub:      getEnvBool("AUTH_STUB", false),
		},
		Push: PushConfig{
			Provider:  getEnv("PUSH_PROVIDER", "console"),
			ServerKey: getEnv("FCM_SERVER_KEY", ""),
			Endpoint:  getEnv("FCM_ENDPOINT", "https://fcm.googleapis.com/fcm/send"),
			Timeout:   time.Duration(getEnvInt("PUSH_TIMEOUT_SECONDS", 10)) * time.Second,
			Workers:   getEnvInt("PUSH_WORKERS", 4),
			QueueSize: getEnvInt("PUSH_QUEUE_SIZE", 256),
		},
		Email: EmailConfig{
			Provider:     getEnv("EMAIL_PROVIDER", ""),
			FromAddress:  getEnv("EMAIL_FROM_ADDRESS", "noreply@clanimo.app"),
			FromName:     getEnv("EMAIL_FROM_NAME", "Clanimo"),
			BaseURL:      getEnv("APP_BASE_URL", "http://localhost:8080"),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		},
		Notifications: NotificationConfig{
			TTLDays: getEnvInt("NOTIF_TTL_DAYS", 0),
		},
	}

	if cfg.Auth.IssuerURL == "" && !cfg.Auth.Stub {
		return nil, fmt.Errorf("AUTH_ISSUER_URL is required unless AUTH_STUB is set")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
