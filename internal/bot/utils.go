package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// isAdmin reports whether userID is the designated bot operator.
func (b *Bot) isAdmin(userID int64) bool {
	return userID == b.adminID
}

// sendMessage sends a message, logging rather than propagating failures.
func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if b.api == nil {
		return // For testing
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Failed to send message", zap.Error(err))
	}
}

// sendText sends a plain HTML-formatted text message to a chat.
func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	b.sendMessage(msg)
}

// setPendingAction stores the admin's pending action, replacing any previous one.
func (b *Bot) setPendingAction(userID int64, action *PendingAction) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	b.states[userID] = action
}

// takePendingAction atomically removes and returns the pending action for
// userID, so two concurrent messages can never both consume the same state.
func (b *Bot) takePendingAction(userID int64) *PendingAction {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	action := b.states[userID]
	delete(b.states, userID)
	return action
}
