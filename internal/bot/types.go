package bot

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vidgrab/internal/storage"
)

// telegramAPI is the slice of the Telegram client the bot actually uses.
// *tgbotapi.BotAPI satisfies it; tests substitute a recording fake.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	CopyMessage(config tgbotapi.CopyMessageConfig) (tgbotapi.MessageID, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Downloader fetches the video at a URL and returns the local file path.
type Downloader interface {
	Download(ctx context.Context, userID int64, url string) (string, error)
}

// Bot represents the Telegram bot wrapper
type Bot struct {
	api        telegramAPI
	db         storage.Storage
	downloader Downloader
	adminID    int64
	states     map[int64]*PendingAction
	statesMu   sync.Mutex
	logger     *zap.Logger

	// sendDelay is the fixed pause between fan-out operations. Tests set it to zero.
	sendDelay time.Duration
}

// Pending admin action kinds. At most one PendingAction exists per admin at a
// time; it is consumed by the admin's next message.
const (
	ActionAwaitingChannel       = "awaiting_channel"
	ActionAwaitingWelcomeText   = "awaiting_welcome_text"
	ActionAwaitingSubscribeText = "awaiting_subscribe_text"
	ActionAwaitingBroadcastBody = "awaiting_broadcast_body"
	ActionAwaitingButtonsBody   = "awaiting_broadcast_buttons_body"
	ActionAwaitingButtonSpec    = "awaiting_button_spec"
)

// PendingAction is the single in-flight multi-step admin operation.
// Payload carries the captured broadcast body while awaiting the button spec.
type PendingAction struct {
	Kind    string
	Payload *tgbotapi.Message
}
