package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vidgrab/internal/storage"
)

// isSubscribed reports whether the user is a member of every configured gate
// channel. An empty gate list admits everyone. A failed membership lookup
// counts as non-membership: the gate fails closed.
func (b *Bot) isSubscribed(ctx context.Context, userID int64) bool {
	channels, err := b.db.ListChannels(ctx)
	if err != nil {
		b.logger.Error("Failed to list gate channels", zap.Error(err))
		return false
	}
	if len(channels) == 0 {
		return true
	}

	for _, channel := range channels {
		member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
				SuperGroupUsername: channel,
				UserID:             userID,
			},
		})
		if err != nil {
			b.logger.Debug("Gate membership lookup failed",
				zap.String("channel", channel),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			return false
		}
		switch member.Status {
		case "member", "administrator", "creator":
		default:
			return false
		}
	}
	return true
}

// sendSubscribePrompt sends the subscribe message with one invite button per
// gate channel and a re-check button.
func (b *Bot) sendSubscribePrompt(ctx context.Context, chatID int64) {
	channels, err := b.db.ListChannels(ctx)
	if err != nil || len(channels) == 0 {
		b.sendText(chatID, "A configuration error occurred. No gate channels are currently set.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, channel := range channels {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(b.inviteButton(channel)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ I joined, check again", "check_join"),
	))

	prompt, err := b.db.GetSetting(ctx, storage.SettingSubscribeMessage)
	if err != nil {
		b.logger.Error("Failed to load subscribe message", zap.Error(err))
		prompt = storage.DefaultSettings[storage.SettingSubscribeMessage]
	}

	msg := tgbotapi.NewMessage(chatID, prompt)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.sendMessage(msg)
}

// inviteButton builds one channel invite button, preferring the chat's title
// and invite link and falling back to a plain t.me link.
func (b *Bot) inviteButton(channel string) tgbotapi.InlineKeyboardButton {
	fallback := "https://t.me/" + strings.TrimPrefix(channel, "@")

	chat, err := b.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{SuperGroupUsername: channel},
	})
	if err != nil {
		return tgbotapi.NewInlineKeyboardButtonURL("🔗 "+channel, fallback)
	}

	link := chat.InviteLink
	if link == "" {
		link = fallback
	}
	return tgbotapi.NewInlineKeyboardButtonURL("📢 "+chat.Title, link)
}

// handleCheckJoinCallback re-runs the gate after the user claims to have joined.
func (b *Bot) handleCheckJoinCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if !b.isSubscribed(ctx, query.From.ID) {
		b.answerCallbackAlert(query.ID, "⚠️ It looks like you have not joined all the channels yet. Try again.")
		return
	}

	b.answerCallback(query.ID, "✅ Thank you! You can use the bot now.")
	b.deleteMessage(query.Message.Chat.ID, query.Message.MessageID)
	b.sendText(query.Message.Chat.ID, "Great! Now send the link of the video you want to download.")
}
