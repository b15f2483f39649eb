package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	Port            string
	DatabaseURL     string
	SQLitePath      string
	DBDriver        string
	LogLevel        string
	AutoMigrate     bool
	StatsSchedule   string
	ShutdownTimeout time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	ReportEmail  string
}

// NewConfig loads configuration from environment variables.
// A .env file in the working directory is read first when present;
// variables already set in the environment take precedence.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Port:          getEnv("PORT", "3000"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "/tmp/test.db"),
		DBDriver:      getEnv("DB_DRIVER", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		StatsSchedule: getEnv("STATS_SCHEDULE", "@every 1h"),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SenderEmail:   getEnv("SENDER_EMAIL", "todo-service@localhost"),
		ReportEmail:   getEnv("REPORT_EMAIL", ""),
	}

	var err error
	if cfg.AutoMigrate, err = strconv.ParseBool(getEnv("AUTO_MIGRATE", "true")); err != nil {
		return nil, fmt.Errorf("AUTO_MIGRATE must be a boolean: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT must be a duration: %w", err)
	}

	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		return nil, fmt.Errorf("PORT must be a valid port number, got %q", cfg.Port)
	}
	if cfg.DatabaseURL == "" && cfg.SQLitePath == "" {
		return nil, fmt.Errorf("SQLITE_PATH is required when DATABASE_URL is not set")
	}
	switch cfg.DBDriver {
	case "", "postgres", "pgx":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be one of postgres, pgx; got %q", cfg.DBDriver)
	}
	if cfg.StatsSchedule != "" {
		if _, err := cron.ParseStandard(cfg.StatsSchedule); err != nil {
			return nil, fmt.Errorf("STATS_SCHEDULE is invalid: %w", err)
		}
	}

	return cfg, nil
}

// MailEnabled reports whether the stats digest can be mailed.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.ReportEmail != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
