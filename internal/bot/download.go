package bot

import (
	"context"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleDownload fetches the video behind the URL and replies with the file.
// The work runs in a goroutine so update intake is never blocked; the status
// message is edited in place as the download progresses.
func (b *Bot) handleDownload(message *tgbotapi.Message) {
	if b.api == nil || b.downloader == nil {
		b.sendText(message.Chat.ID, "Downloads are not available right now.")
		return
	}

	status := tgbotapi.NewMessage(message.Chat.ID, "📥 Downloading, please wait...")
	status.ReplyToMessageID = message.MessageID
	statusMsg, err := b.api.Send(status)
	if err != nil {
		b.logger.Warn("Failed to send download status message", zap.Error(err))
		return
	}

	url := message.Text
	userID := message.From.ID
	chatID := message.Chat.ID
	replyTo := message.MessageID

	go func() {
		path, err := b.downloader.Download(context.Background(), userID, url)
		if err != nil {
			edit := tgbotapi.NewEditMessageText(chatID, statusMsg.MessageID,
				"❌ <b>Sorry, the download failed.</b>\n\nThe link may be wrong, or this site is not supported yet.")
			edit.ParseMode = tgbotapi.ModeHTML
			b.sendMessage(edit)
			return
		}
		defer os.Remove(path)

		b.sendMessage(tgbotapi.NewEditMessageText(chatID, statusMsg.MessageID, "⬆️ Uploading..."))

		video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path))
		video.Caption = "✅ <b>Download complete!</b>"
		video.ParseMode = tgbotapi.ModeHTML
		video.ReplyToMessageID = replyTo
		if _, err := b.api.Send(video); err != nil {
			b.logger.Warn("Failed to upload video",
				zap.String("url", url),
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			b.sendMessage(tgbotapi.NewEditMessageText(chatID, statusMsg.MessageID, "❌ Failed to upload the video."))
			return
		}
		b.deleteMessage(chatID, statusMsg.MessageID)
	}()
}
