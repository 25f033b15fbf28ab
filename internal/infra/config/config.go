package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the reminder engine.
type AppConfig struct {
	DatabaseURL      string
	HTTPListenAddr   string
	LogLevel         string
	Environment      string
	ReminderTimezone *time.Location // Quiet hours are evaluated in this zone
	SchedulerWorkers int

	CronSpecReminderSweep string // How often due reminders are processed
	CronSpecArchive       string // Daily terminal-state archival
	ArchiveRetention      time.Duration

	TelegramToken string // Optional; empty disables the Telegram escalation transport
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.HTTPListenAddr = os.Getenv("HTTP_LISTEN_ADDR")
	if cfg.HTTPListenAddr == "" {
		cfg.HTTPListenAddr = ":8080"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	tzName := os.Getenv("REMINDER_TIMEZONE")
	if tzName == "" {
		tzName = "UTC"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_TIMEZONE %q: %w", tzName, err)
	}
	cfg.ReminderTimezone = loc

	workersStr := os.Getenv("SCHEDULER_WORKERS")
	if workersStr == "" {
		cfg.SchedulerWorkers = 8
	} else {
		cfg.SchedulerWorkers, err = strconv.Atoi(workersStr)
		if err != nil || cfg.SchedulerWorkers < 1 {
			return nil, fmt.Errorf("invalid SCHEDULER_WORKERS: %q", workersStr)
		}
	}

	cfg.CronSpecReminderSweep = os.Getenv("CRON_SPEC_REMINDER_SWEEP")
	if cfg.CronSpecReminderSweep == "" {
		cfg.CronSpecReminderSweep = "* * * * *" // Every minute; reminder intervals are minute-granular
	}

	cfg.CronSpecArchive = os.Getenv("CRON_SPEC_ARCHIVE")
	if cfg.CronSpecArchive == "" {
		cfg.CronSpecArchive = "0 3 * * *" // Daily at 03:00
	}

	retentionStr := os.Getenv("ARCHIVE_RETENTION")
	if retentionStr == "" {
		cfg.ArchiveRetention = 7 * 24 * time.Hour
	} else {
		cfg.ArchiveRetention, err = time.ParseDuration(retentionStr)
		if err != nil {
			return nil, fmt.Errorf("invalid ARCHIVE_RETENTION: %w", err)
		}
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")

	return cfg, nil
}
