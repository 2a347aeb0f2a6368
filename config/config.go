package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Provider ProviderConfig
	Meetings MeetingsConfig
	Alerts   AlertsConfig
	Email    EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/mentorship?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT validation settings. Tokens are issued by the
// platform's auth service; this service only validates them.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// ProviderConfig holds credentials for the conferencing provider API.
type ProviderConfig struct {
	BaseURL    string
	SecretID   string
	SecretKey  string
	AppID      string
	SDKID      string
	TimeoutSec int
}

// MeetingsConfig holds slot allocation policy values.
type MeetingsConfig struct {
	// GracePeriodMin is the window after a slot's last state transition
	// during which reclamation leaves the slot alone, masking provider
	// status-propagation latency.
	GracePeriodMin int
	// LinkTTLDays is how long a provider join link stays usable. Links on
	// free slots older than this are re-created at claim time.
	LinkTTLDays int
	// JoinRatePerMin caps join attempts per user.
	JoinRatePerMin int
}

// AlertsConfig holds pool-exhaustion alerting settings.
type AlertsConfig struct {
	// RecipientRole is the operational role alerted when the pool runs dry.
	RecipientRole string
}

// EmailConfig holds SMTP settings for the notification worker.
type EmailConfig struct {
	FromAddress string
	FromName    string
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "mentorship"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		Provider: ProviderConfig{
			BaseURL:    getEnv("TM_BASE_URL", "https://api.meeting.qq.com"),
			SecretID:   getEnv("TM_SECRET_ID", ""),
			SecretKey:  getEnv("TM_SECRET_KEY", ""),
			AppID:      getEnv("TM_ENTERPRISE_ID", ""),
			SDKID:      getEnv("TM_APP_ID", ""),
			TimeoutSec: getEnvInt("TM_TIMEOUT_SEC", 15),
		},
		Meetings: MeetingsConfig{
			GracePeriodMin: getEnvInt("MEETING_SLOT_GRACE_PERIOD_MIN", 1),
			LinkTTLDays:    getEnvInt("MEETING_LINK_TTL_DAYS", 30),
			JoinRatePerMin: getEnvInt("MEETING_JOIN_RATE_PER_MIN", 10),
		},
		Alerts: AlertsConfig{
			RecipientRole: getEnv("ALERT_RECIPIENT_ROLE", "slot-manager"),
		},
		Email: EmailConfig{
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "noreply@example.com"),
			FromName:    getEnv("EMAIL_FROM_NAME", "Horizon Mentorship"),
			SMTPHost:    getEnv("SMTP_HOST", ""),
			SMTPPort:    getEnvInt("SMTP_PORT", 587),
			SMTPUser:    getEnv("SMTP_USER", ""),
			SMTPPass:    getEnv("SMTP_PASS", ""),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
