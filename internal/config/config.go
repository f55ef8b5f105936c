package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the assistant.
type Config struct {
	App          AppConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Session      SessionConfig
	Support      SupportConfig
	Admin        AdminConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SessionConfig selects and tunes the session store backend.
type SessionConfig struct {
	Backend    string // "memory" or "redis"
	KeyPrefix  string
	TTLMinutes int
}

// SupportConfig tunes the conversation core: ticket caps, the auto-answer
// threshold and the simulated SLA clock.
type SupportConfig struct {
	NormalTicketCap      int
	UrgentTicketCap      int
	AutoAnswerConfidence float64
	TicketIDPrefix       string
	InProgressAfterSec   int
	AwaitingAfterSec     int
	ResolvedAfterSec     int
	FAQPath              string
}

// AdminConfig is the static allow-list for privileged commands.
type AdminConfig struct {
	IDs []string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	autoAnswer, err := strconv.ParseFloat(getEnv("SUPPORT_AUTO_ANSWER_CONFIDENCE", "0.7"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SUPPORT_AUTO_ANSWER_CONFIDENCE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-assistant"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Session: SessionConfig{
			Backend:    getEnv("SESSION_BACKEND", "memory"),
			KeyPrefix:  getEnv("SESSION_KEY_PREFIX", "support:session:"),
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 0),
		},
		Support: SupportConfig{
			NormalTicketCap:      getEnvAsInt("SUPPORT_NORMAL_TICKET_CAP", 3),
			UrgentTicketCap:      getEnvAsInt("SUPPORT_URGENT_TICKET_CAP", 2),
			AutoAnswerConfidence: autoAnswer,
			TicketIDPrefix:       getEnv("SUPPORT_TICKET_ID_PREFIX", "TCK"),
			InProgressAfterSec:   getEnvAsInt("SUPPORT_IN_PROGRESS_AFTER_SECONDS", 30),
			AwaitingAfterSec:     getEnvAsInt("SUPPORT_AWAITING_AFTER_SECONDS", 90),
			ResolvedAfterSec:     getEnvAsInt("SUPPORT_RESOLVED_AFTER_SECONDS", 150),
			FAQPath:              os.Getenv("SUPPORT_FAQ_PATH"),
		},
		Admin: AdminConfig{
			IDs: splitList(os.Getenv("ADMIN_IDS")),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TTL returns the session time-to-live duration.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

// InProgressAfter returns the first SLA threshold.
func (s SupportConfig) InProgressAfter() time.Duration {
	return time.Duration(s.InProgressAfterSec) * time.Second
}

// AwaitingAfter returns the second SLA threshold.
func (s SupportConfig) AwaitingAfter() time.Duration {
	return time.Duration(s.AwaitingAfterSec) * time.Second
}

// ResolvedAfter returns the third SLA threshold.
func (s SupportConfig) ResolvedAfter() time.Duration {
	return time.Duration(s.ResolvedAfterSec) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(val string) []string {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
