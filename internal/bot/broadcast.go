package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vidgrab/internal/models"
)

// runBroadcast fans the admin's message out to every known user, recording
// each successful delivery in the ledger so the run can be recalled later.
// Per-recipient failures (blocked bot, deleted chat) are counted, never fatal.
// The run is sequential with a fixed inter-send delay and is not cancellable.
func (b *Bot) runBroadcast(ctx context.Context, original *tgbotapi.Message, keyboard *tgbotapi.InlineKeyboardMarkup) {
	adminChatID := original.Chat.ID
	b.sendText(adminChatID, "⏳ Starting broadcast...")

	userIDs, err := b.db.ListUserIDs(ctx)
	if err != nil {
		b.logger.Error("Failed to list users for broadcast", zap.Error(err))
		b.sendText(adminChatID, "Failed to start the broadcast, please try again.")
		return
	}

	// Only the most recent broadcast is recallable, so the ledger is wiped
	// before the run rather than after a recall.
	if err := b.db.ClearBroadcastRecords(ctx); err != nil {
		b.logger.Error("Failed to clear broadcast ledger", zap.Error(err))
		b.sendText(adminChatID, "Failed to start the broadcast, please try again.")
		return
	}

	var delivered, failed int
	for _, userID := range userIDs {
		copyCfg := tgbotapi.CopyMessageConfig{
			BaseChat:   tgbotapi.BaseChat{ChatID: userID},
			FromChatID: adminChatID,
			MessageID:  original.MessageID,
		}
		if keyboard != nil {
			copyCfg.ReplyMarkup = *keyboard
		}

		sent, err := b.api.CopyMessage(copyCfg)
		if err != nil {
			failed++
			b.logger.Debug("Broadcast delivery failed",
				zap.Int64("recipient_id", userID),
				zap.Error(err),
			)
		} else {
			delivered++
			err := b.db.CreateBroadcastRecord(ctx, models.BroadcastRecord{
				BroadcastID: original.MessageID,
				RecipientID: userID,
				MessageID:   sent.MessageID,
			})
			if err != nil {
				b.logger.Error("Failed to record broadcast delivery",
					zap.Int64("recipient_id", userID),
					zap.Error(err),
				)
			}
		}
		time.Sleep(b.sendDelay)
	}

	b.logger.Info("Broadcast completed",
		zap.Int("broadcast_id", original.MessageID),
		zap.Int("delivered", delivered),
		zap.Int("failed", failed),
	)

	summary := tgbotapi.NewMessage(adminChatID,
		fmt.Sprintf("✅ <b>Broadcast finished!</b>\n\n- <b>Delivered:</b> %d\n- <b>Failed:</b> %d", delivered, failed))
	summary.ParseMode = tgbotapi.ModeHTML
	summary.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑️ Delete this message for everyone",
				"recall:"+strconv.Itoa(original.MessageID)),
		),
	)
	b.sendMessage(summary)
}

// handleRecallCallback deletes every delivered copy of one broadcast and then
// drops its ledger rows. Running it again for the same id finds no rows and
// reports zero deletions.
func (b *Bot) handleRecallCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	b.answerCallback(query.ID, "")

	broadcastID, err := strconv.Atoi(strings.TrimPrefix(query.Data, "recall:"))
	if err != nil {
		return
	}

	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	b.sendMessage(tgbotapi.NewEditMessageText(chatID, messageID, "⏳ Deleting the broadcast..."))

	records, err := b.db.ListBroadcastRecords(ctx, broadcastID)
	if err != nil {
		b.logger.Error("Failed to list broadcast records", zap.Int("broadcast_id", broadcastID), zap.Error(err))
		b.sendMessage(tgbotapi.NewEditMessageText(chatID, messageID, "Failed to recall the broadcast, please try again."))
		return
	}

	var deleted int
	for _, rec := range records {
		if b.deleteMessage(rec.RecipientID, rec.MessageID) {
			deleted++
		}
		time.Sleep(b.sendDelay)
	}

	b.sendMessage(tgbotapi.NewEditMessageText(chatID, messageID,
		fmt.Sprintf("✅ Message deleted for %d users.", deleted)))

	// Ledger cleanup happens regardless of individual deletion outcomes.
	if err := b.db.DeleteBroadcastRecords(ctx, broadcastID); err != nil {
		b.logger.Error("Failed to clean up broadcast records", zap.Int("broadcast_id", broadcastID), zap.Error(err))
	}

	b.logger.Info("Broadcast recalled",
		zap.Int("broadcast_id", broadcastID),
		zap.Int("deleted", deleted),
		zap.Int("tracked", len(records)),
	)
}

// deleteMessage removes one delivered copy, reporting success.
func (b *Bot) deleteMessage(chatID int64, messageID int) bool {
	if b.api == nil {
		return false // For testing
	}
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Debug("Failed to delete broadcast copy",
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
			zap.Error(err),
		)
		return false
	}
	return true
}
