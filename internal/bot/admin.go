package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const adminPanelTitle = "<b>⚙️ Admin control panel</b>\n\nChoose a section to manage."

// mainAdminKeyboard is the top-level admin panel menu.
func mainAdminKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📢 Broadcasts", "admin:broadcast"),
			tgbotapi.NewInlineKeyboardButtonData("🔒 Subscriptions", "admin:subscribe"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Settings", "admin:settings"),
			tgbotapi.NewInlineKeyboardButtonData("📊 Statistics", "admin:stats"),
		),
	)
}

func broadcastKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Simple broadcast", "admin:broadcast_simple"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔗 Broadcast with buttons", "admin:broadcast_buttons"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back", "admin:main"),
		),
	)
}

// subscribeKeyboard lists one delete button per gate channel plus the add action.
func (b *Bot) subscribeKeyboard(ctx context.Context) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	channels, err := b.db.ListChannels(ctx)
	if err != nil {
		b.logger.Error("Failed to list gate channels", zap.Error(err))
	}
	for _, ch := range channels {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Remove "+ch, "delchan:"+ch),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Add channel", "admin:add_channel"),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Back", "admin:main"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func settingsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Edit welcome message", "admin:edit_welcome"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Edit subscribe message", "admin:edit_subscribe"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back", "admin:main"),
		),
	)
}

// handleAdminPanel opens the admin panel in response to /admin.
func (b *Bot) handleAdminPanel(message *tgbotapi.Message) {
	msg := tgbotapi.NewMessage(message.Chat.ID, adminPanelTitle)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainAdminKeyboard()
	b.sendMessage(msg)
}

// handleAdminCallback dispatches admin panel menu actions.
func (b *Bot) handleAdminCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	b.answerCallback(query.ID, "")

	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	switch query.Data {
	case "admin:main":
		b.editPanel(chatID, messageID, adminPanelTitle, mainAdminKeyboard())
	case "admin:broadcast":
		b.editPanel(chatID, messageID, "<b>📢 Broadcasts</b>\n\nChoose a broadcast type.", broadcastKeyboard())
	case "admin:subscribe":
		b.editPanel(chatID, messageID, "<b>🔒 Forced subscription</b>\n\nManage the gate channels.", b.subscribeKeyboard(ctx))
	case "admin:settings":
		b.editPanel(chatID, messageID, "<b>⚙️ Settings</b>\n\nManage the bot messages.", settingsKeyboard())
	case "admin:stats":
		b.showStats(ctx, chatID, messageID)

	case "admin:add_channel":
		b.promptPendingAction(query, ActionAwaitingChannel,
			"Send the channel username (example: @YourChannel) or forward a message from it.")
	case "admin:edit_welcome":
		b.promptPendingAction(query, ActionAwaitingWelcomeText,
			"Send the new welcome message. HTML formatting is supported.")
	case "admin:edit_subscribe":
		b.promptPendingAction(query, ActionAwaitingSubscribeText,
			"Send the new subscription prompt. HTML formatting is supported.")
	case "admin:broadcast_simple":
		b.promptPendingAction(query, ActionAwaitingBroadcastBody,
			"Send the message you want to broadcast (text, photo, video...).")
	case "admin:broadcast_buttons":
		b.promptPendingAction(query, ActionAwaitingButtonsBody,
			"Send the message first, then I will ask for the buttons.")
	}
}

// promptPendingAction sets the admin's pending action and sends its prompt.
func (b *Bot) promptPendingAction(query *tgbotapi.CallbackQuery, kind, prompt string) {
	b.setPendingAction(query.From.ID, &PendingAction{Kind: kind})
	b.sendText(query.Message.Chat.ID, prompt)
}

// showStats edits the panel message into the usage statistics view.
func (b *Bot) showStats(ctx context.Context, chatID int64, messageID int) {
	total, err := b.db.CountUsers(ctx)
	if err != nil {
		b.logger.Error("Failed to count users", zap.Error(err))
		return
	}
	recent, err := b.db.CountUsersSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		b.logger.Error("Failed to count recent users", zap.Error(err))
		return
	}

	text := fmt.Sprintf("📊 <b>Bot statistics</b>\n\n- <b>Total users:</b> %d\n- <b>New users (last 24h):</b> %d", total, recent)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back", "admin:main"),
		),
	)
	b.editPanel(chatID, messageID, text, keyboard)
}

// handleDeleteChannelCallback removes a gate channel and refreshes the menu.
func (b *Bot) handleDeleteChannelCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	channelID := query.Data[len("delchan:"):]

	if err := b.db.RemoveChannel(ctx, channelID); err != nil {
		b.logger.Error("Failed to remove gate channel", zap.String("channel", channelID), zap.Error(err))
		b.answerCallback(query.ID, "Failed to remove channel.")
		return
	}

	b.logger.Info("Gate channel removed", zap.String("channel", channelID))
	b.answerCallback(query.ID, fmt.Sprintf("Channel %s removed.", channelID))
	b.editPanel(query.Message.Chat.ID, query.Message.MessageID,
		"<b>🔒 Forced subscription</b>\n\nChannel removed. Updated list below.", b.subscribeKeyboard(ctx))
}

// editPanel rewrites an admin panel message in place.
func (b *Bot) editPanel(chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, keyboard)
	edit.ParseMode = tgbotapi.ModeHTML
	b.sendMessage(edit)
}
