package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/imperionite/fm-core/internal/repository"
)

// Notification transports.
const (
	TransportWorker = "worker"
	TransportKafka  = "kafka"
)

type Config struct {
	HTTPPort        string
	AllowedOrigins  []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	DB repository.Credentials

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CatalogBaseURL string
	CatalogTimeout time.Duration

	// NotifyTransport selects how payment confirmations leave the process:
	// "worker" runs an in-process pool, "kafka" publishes to a topic consumed
	// by a separate instance of the same binary.
	NotifyTransport string
	NotifyWorkers   int
	NotifyBuffer    int
	NotifyTimeout   time.Duration

	KafkaBrokers       []string
	KafkaTopic         string
	KafkaConsumerGroup string

	MailgunAPIBase string
	MailgunDomain  string
	MailgunAPIKey  string
	MailgunFrom    string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.HTTPPort = getEnvOrDefault("HTTP_PORT", "8080")
	cfg.AllowedOrigins = splitList(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:5173"))

	var err error
	if cfg.RequestTimeout, err = parseDurationEnv("REQUEST_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = parseDurationEnv("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.DB.Host = getEnvOrDefault("DB_HOST", "localhost")
	if cfg.DB.Port, err = parseIntEnv("DB_PORT", "5432"); err != nil {
		return nil, err
	}
	cfg.DB.User = getEnvOrDefault("DB_USER", "postgres")
	cfg.DB.Password = getEnvOrDefault("DB_PASSWORD", "postgres")
	cfg.DB.DBName = getEnvOrDefault("DB_NAME", "commerce")
	cfg.DB.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")
	cfg.DB.MigrationsDirPath = getEnvOrDefault("MIGRATIONS_PATH", "migrations")

	cfg.RedisAddr = getEnvOrDefault("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnvOrDefault("REDIS_PASSWORD", "")
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", "0"); err != nil {
		return nil, err
	}

	cfg.CatalogBaseURL = getEnvOrDefault("CATALOG_BASE_URL", "http://localhost:8001/api/services")
	if cfg.CatalogTimeout, err = parseDurationEnv("CATALOG_TIMEOUT", "5s"); err != nil {
		return nil, err
	}

	cfg.NotifyTransport = getEnvOrDefault("NOTIFY_TRANSPORT", TransportWorker)
	if cfg.NotifyTransport != TransportWorker && cfg.NotifyTransport != TransportKafka {
		return nil, fmt.Errorf("invalid NOTIFY_TRANSPORT: %q", cfg.NotifyTransport)
	}
	if cfg.NotifyWorkers, err = parseIntEnv("NOTIFY_WORKERS", "4"); err != nil {
		return nil, err
	}
	if cfg.NotifyBuffer, err = parseIntEnv("NOTIFY_BUFFER", "256"); err != nil {
		return nil, err
	}
	if cfg.NotifyTimeout, err = parseDurationEnv("NOTIFY_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.KafkaBrokers = splitList(getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092"))
	cfg.KafkaTopic = getEnvOrDefault("KAFKA_NOTIFY_TOPIC", "payment_notifications")
	cfg.KafkaConsumerGroup = getEnvOrDefault("KAFKA_CONSUMER_GROUP", "commerce-notify-group")

	cfg.MailgunAPIBase = getEnvOrDefault("MAILGUN_API_BASE", "https://api.mailgun.net/v3")
	cfg.MailgunDomain = getEnvOrDefault("MAILGUN_DOMAIN", "")
	cfg.MailgunAPIKey = getEnvOrDefault("MAILGUN_API_KEY", "")
	cfg.MailgunFrom = getEnvOrDefault("MAILGUN_FROM", "FinMark <no-reply@finmark.example>")

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseDurationEnv(key, defaultValue string) (time.Duration, error) {
	raw := getEnvOrDefault(key, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key, defaultValue string) (int, error) {
	raw := getEnvOrDefault(key, defaultValue)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
