package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	LogLevel    string
	Environment string
	Port        string

	SamsaraBaseURL string
	SamsaraAPIKey  string

	PCThresholdHours float64
	DriverTagIDs     []string

	WebhookURL      string
	EmailRecipients []string

	TelegramToken  string
	TelegramChatID int64

	// PollCronSpec enables the built-in scheduler when set; empty means runs
	// are triggered only through the HTTP surface.
	PollCronSpec string
}

// Load reads configuration from environment variables and .env file (if
// present). Almost everything is optional: the API token may arrive from the
// secrets store or a per-run override instead of the environment.
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables; a missing .env
	// file is fine.
	_ = godotenv.Load()

	cfg := &AppConfig{
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		Port:           getEnv("PORT", "8080"),
		SamsaraBaseURL: os.Getenv("SAMSARA_BASE_URL"),
		SamsaraAPIKey:  os.Getenv("SAMSARA_API_KEY"),
		WebhookURL:     os.Getenv("WEBHOOK_URL"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		PollCronSpec:   os.Getenv("POLL_CRON_SPEC"),
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Environment = strings.ToLower(cfg.Environment)

	cfg.PCThresholdHours = 16.0
	if raw := os.Getenv("PC_THRESHOLD_HOURS"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PC_THRESHOLD_HOURS: %w", err)
		}
		cfg.PCThresholdHours = v
	}

	cfg.DriverTagIDs = splitList(os.Getenv("DRIVER_TAG_IDS"))
	cfg.EmailRecipients = splitList(os.Getenv("EMAIL_RECIPIENTS"))

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}
	if cfg.TelegramChatID != 0 && cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is set but TELEGRAM_TOKEN is not")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
