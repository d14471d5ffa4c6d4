package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vidgrab/internal/storage"
)

// defaultSendDelay is the pause between consecutive fan-out sends or deletes,
// keeping the bot under Telegram's outbound rate limits.
const defaultSendDelay = 50 * time.Millisecond

// NewBot creates a new Telegram bot
func NewBot(token string, db storage.Storage, adminID int64, downloader Downloader, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created",
		zap.String("bot_username", api.Self.UserName),
		zap.Int64("admin_id", adminID),
	)

	return &Bot{
		api:        api,
		db:         db,
		downloader: downloader,
		adminID:    adminID,
		states:     make(map[int64]*PendingAction),
		logger:     logger,
		sendDelay:  defaultSendDelay,
	}, nil
}
