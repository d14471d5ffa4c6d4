package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vidgrab/internal/models"
	"vidgrab/internal/storage"
)

// handleMessage processes a single message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			b.sendText(message.Chat.ID, "An error occurred while processing your request. Please try again.")
		}
	}()

	if message.From == nil {
		return
	}
	userID := message.From.ID
	ctx := context.Background()

	b.registerUser(ctx, message.From)

	// A mid-flow admin message belongs to the pending action, not the normal
	// flow. With no pending action the admin is handled like any other user.
	if b.isAdmin(userID) {
		if action := b.takePendingAction(userID); action != nil {
			b.handleAdminAction(ctx, message, action)
			return
		}
	}

	if message.IsCommand() {
		switch message.Command() {
		case "start":
			b.handleStart(ctx, message)
		case "admin":
			if b.isAdmin(userID) {
				b.handleAdminPanel(message)
			}
		default:
			b.sendText(message.Chat.ID, "Unknown command. Use /start to begin.")
		}
		return
	}

	if message.Text == "" {
		return
	}

	if !b.isSubscribed(ctx, userID) {
		b.sendSubscribePrompt(ctx, message.Chat.ID)
		return
	}

	if strings.HasPrefix(message.Text, "http://") || strings.HasPrefix(message.Text, "https://") {
		b.handleDownload(message)
		return
	}

	reply := tgbotapi.NewMessage(message.Chat.ID, "Please send a valid video link to download.")
	reply.ReplyToMessageID = message.MessageID
	b.sendMessage(reply)
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	userID := query.From.ID
	ctx := context.Background()

	// Route callbacks by prefix
	data := query.Data
	switch {
	case data == "check_join":
		b.handleCheckJoinCallback(ctx, query)
	case strings.HasPrefix(data, "admin:"):
		if b.isAdmin(userID) {
			b.handleAdminCallback(ctx, query)
		}
	case strings.HasPrefix(data, "delchan:"):
		if b.isAdmin(userID) {
			b.handleDeleteChannelCallback(ctx, query)
		}
	case strings.HasPrefix(data, "recall:"):
		if b.isAdmin(userID) {
			b.handleRecallCallback(ctx, query)
		}
	}
}

// handleStart registers the user and sends the configured welcome message.
func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) {
	welcome, err := b.db.GetSetting(ctx, storage.SettingWelcomeMessage)
	if err != nil {
		b.logger.Error("Failed to load welcome message", zap.Error(err))
		return
	}
	b.sendText(message.Chat.ID, welcome)
}

// registerUser records the user on first contact. Failures are logged only:
// registration must never block handling.
func (b *Bot) registerUser(ctx context.Context, from *tgbotapi.User) {
	err := b.db.SaveUser(ctx, models.User{
		ID:        from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
	})
	if err != nil {
		b.logger.Warn("Failed to save user", zap.Int64("user_id", from.ID), zap.Error(err))
	}
}

// answerCallback acknowledges a callback query so the client stops its spinner.
func (b *Bot) answerCallback(queryID, text string) {
	if b.api == nil {
		return // For testing
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		b.logger.Warn("Failed to answer callback query", zap.Error(err))
	}
}

// answerCallbackAlert acknowledges a callback query with a popup alert.
func (b *Bot) answerCallbackAlert(queryID, text string) {
	if b.api == nil {
		return // For testing
	}
	if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(queryID, text)); err != nil {
		b.logger.Warn("Failed to answer callback query", zap.Error(err))
	}
}
