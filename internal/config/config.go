package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	Kafka struct {
		Broker  string
		Topic   string
		GroupID string
	}
	API struct {
		Port     string
		BasePath string
	}
	Logging struct {
		Dir   string
		Level string
	}
	Notification struct {
		QueueSize int
	}
	Push struct {
		TTLSeconds int
	}
	Scheduler struct {
		RefillScanSpec   string
		ReEnrollmentSpec string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	cfg.DB.DSN = os.Getenv("DB_DSN")
	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")

	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")
	cfg.Kafka.GroupID = os.Getenv("KAFKA_GROUP_ID")

	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	if qs, err := strconv.Atoi(os.Getenv("QUEUE_SIZE")); err == nil {
		cfg.Notification.QueueSize = qs
	}
	if ttl, err := strconv.Atoi(os.Getenv("PUSH_TTL_SECONDS")); err == nil {
		cfg.Push.TTLSeconds = ttl
	}

	cfg.Scheduler.RefillScanSpec = os.Getenv("CRON_REFILL_SCAN")
	cfg.Scheduler.ReEnrollmentSpec = os.Getenv("CRON_RE_ENROLLMENT")

	// Validate required settings
	missing := []string{}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if cfg.Redis.Addr == "" {
		missing = append(missing, "REDIS_ADDR")
	}
	if cfg.Kafka.Broker == "" {
		missing = append(missing, "KAFKA_BROKER")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	// Apply defaults
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "notification_inserts"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "medassist-notifications"
	}
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v0"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Notification.QueueSize == 0 {
		cfg.Notification.QueueSize = 256
	}
	if cfg.Push.TTLSeconds == 0 {
		cfg.Push.TTLSeconds = 86400
	}
	if cfg.Scheduler.RefillScanSpec == "" {
		cfg.Scheduler.RefillScanSpec = "0 9 * * *"
	}
	if cfg.Scheduler.ReEnrollmentSpec == "" {
		cfg.Scheduler.ReEnrollmentSpec = "0 8 * * *"
	}

	return cfg, nil
}
