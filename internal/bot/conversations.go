package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vidgrab/internal/storage"
)

// handleAdminAction consumes the admin's pending action with the message that
// answers it. The action was already cleared from the slot by the caller, so
// every path here ends idle unless it explicitly sets a follow-up action.
func (b *Bot) handleAdminAction(ctx context.Context, message *tgbotapi.Message, action *PendingAction) {
	switch action.Kind {
	case ActionAwaitingChannel:
		b.handleChannelInput(ctx, message)

	case ActionAwaitingWelcomeText:
		b.handleSettingInput(ctx, message, storage.SettingWelcomeMessage, "✅ Welcome message updated.")

	case ActionAwaitingSubscribeText:
		b.handleSettingInput(ctx, message, storage.SettingSubscribeMessage, "✅ Subscription prompt updated.")

	case ActionAwaitingBroadcastBody:
		b.runBroadcast(ctx, message, nil)

	case ActionAwaitingButtonsBody:
		// Capture the body and ask for the button spec next.
		b.setPendingAction(message.From.ID, &PendingAction{
			Kind:    ActionAwaitingButtonSpec,
			Payload: message,
		})
		b.sendText(message.Chat.ID,
			"Now send the buttons, one per line, in this format:\n\nButton label 1 - https://link1\nButton label 2 - https://link2")

	case ActionAwaitingButtonSpec:
		keyboard, err := parseButtonSpec(message.Text)
		if err != nil {
			b.sendText(message.Chat.ID, fmt.Sprintf("❌ Invalid button format, broadcast cancelled: %v\n\nStart again from the broadcast menu.", err))
			return
		}
		b.runBroadcast(ctx, action.Payload, &keyboard)
	}
}

// handleChannelInput resolves and stores a new gate channel. The input is
// either a message forwarded from the channel or its @username as text.
// Invalid input reports an error and leaves the admin idle; the menu action
// must be reissued.
func (b *Bot) handleChannelInput(ctx context.Context, message *tgbotapi.Message) {
	channelID := message.Text
	if message.ForwardFromChat != nil && message.ForwardFromChat.UserName != "" {
		channelID = "@" + message.ForwardFromChat.UserName
	}

	if !strings.HasPrefix(channelID, "@") {
		b.sendText(message.Chat.ID, "Invalid channel username. Open the subscriptions menu and try again.")
		return
	}

	switch err := b.db.AddChannel(ctx, channelID); {
	case errors.Is(err, storage.ErrChannelExists):
		b.sendText(message.Chat.ID, "⚠️ This channel is already configured.")
	case err != nil:
		b.logger.Error("Failed to add gate channel", zap.String("channel", channelID), zap.Error(err))
		b.sendText(message.Chat.ID, "Failed to add the channel, please try again.")
	default:
		b.logger.Info("Gate channel added", zap.String("channel", channelID))
		b.sendText(message.Chat.ID, fmt.Sprintf("✅ Channel <b>%s</b> added.", channelID))
	}
}

// handleSettingInput overwrites a text setting with the message text verbatim,
// markup included. Telegram validates the HTML when the text is sent, not here.
func (b *Bot) handleSettingInput(ctx context.Context, message *tgbotapi.Message, key, confirmation string) {
	if message.Text == "" {
		b.sendText(message.Chat.ID, "Send the new text as a plain message. Open the settings menu and try again.")
		return
	}

	if err := b.db.UpdateSetting(ctx, key, message.Text); err != nil {
		b.logger.Error("Failed to update setting", zap.String("key", key), zap.Error(err))
		b.sendText(message.Chat.ID, "Failed to update the setting, please try again.")
		return
	}
	b.sendText(message.Chat.ID, confirmation)
}

// parseButtonSpec parses newline-separated "label - url" pairs into an inline
// keyboard, one button per row. Any malformed non-empty line rejects the whole
// spec; a partially applied button set is never produced.
func parseButtonSpec(text string) (tgbotapi.InlineKeyboardMarkup, error) {
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, " - ", 2)
		if len(parts) != 2 {
			return tgbotapi.InlineKeyboardMarkup{}, fmt.Errorf("line %q is not in \"label - url\" form", line)
		}
		label := strings.TrimSpace(parts[0])
		url := strings.TrimSpace(parts[1])
		if label == "" || url == "" {
			return tgbotapi.InlineKeyboardMarkup{}, fmt.Errorf("line %q is missing a label or a url", line)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(label, url),
		))
	}

	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, fmt.Errorf("no buttons found")
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), nil
}
