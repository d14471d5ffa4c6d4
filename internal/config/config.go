package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	TelegramToken string
	AdminID       int64

	// Bot mode configuration
	WebhookMode bool   // If true, use webhook mode; if false, use polling mode
	WebhookURL  string // URL for webhook (required if WebhookMode is true)

	// Storage configuration
	DatabasePath string
	UseMockDB    bool

	// Download configuration
	DownloadDir string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	// Telegram Bot Token (required)
	config.TelegramToken = os.Getenv("BOT_TOKEN")
	if config.TelegramToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	// Admin ID (required): the single operator allowed to use the admin panel
	adminIDStr := os.Getenv("ADMIN_ID")
	if adminIDStr == "" {
		return nil, fmt.Errorf("ADMIN_ID is required (Telegram user ID of the bot operator)")
	}
	adminID, err := strconv.ParseInt(adminIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_ID: %s", adminIDStr)
	}
	config.AdminID = adminID

	// Bot mode configuration
	config.WebhookMode = os.Getenv("WEBHOOK_MODE") == "true"
	if config.WebhookMode {
		config.WebhookURL = os.Getenv("WEBHOOK_URL")
		if config.WebhookURL == "" {
			return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
		}
	}

	// Use Mock DB (default: false)
	config.UseMockDB = os.Getenv("USE_MOCK_DB") == "true"

	// SQLite database path (default: data/bot.db)
	config.DatabasePath = os.Getenv("DATABASE_PATH")
	if config.DatabasePath == "" {
		config.DatabasePath = "data/bot.db"
	}

	// Download directory for fetched media (default: downloads)
	config.DownloadDir = os.Getenv("DOWNLOAD_DIR")
	if config.DownloadDir == "" {
		config.DownloadDir = "downloads"
	}

	return config, nil
}
