package bot

import (
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// fakeAPI is an in-memory telegramAPI that records every outbound call so
// tests can assert on broadcast and gate behavior without touching Telegram.
type fakeAPI struct {
	mu            sync.Mutex
	nextMessageID int

	sent    []tgbotapi.Chattable
	copies  []tgbotapi.CopyMessageConfig
	deleted []tgbotapi.DeleteMessageConfig

	// failCopyTo simulates recipients that blocked the bot.
	failCopyTo map[int64]bool
	// failDeleteIn simulates chats where the copy can no longer be deleted.
	failDeleteIn map[int64]bool
	// memberStatus maps channel -> user -> chat member status.
	memberStatus map[string]map[int64]string
	// failLookupIn simulates unreachable channels.
	failLookupIn map[string]bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		nextMessageID: 1000,
		failCopyTo:    make(map[int64]bool),
		failDeleteIn:  make(map[int64]bool),
		memberStatus:  make(map[string]map[int64]string),
		failLookupIn:  make(map[string]bool),
	}
}

func (f *fakeAPI) setMemberStatus(channel string, userID int64, status string) {
	if f.memberStatus[channel] == nil {
		f.memberStatus[channel] = make(map[int64]string)
	}
	f.memberStatus[channel][userID] = status
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.nextMessageID++
	return tgbotapi.Message{MessageID: f.nextMessageID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if del, ok := c.(tgbotapi.DeleteMessageConfig); ok {
		if f.failDeleteIn[del.ChatID] {
			return nil, errors.New("message can't be deleted")
		}
		f.deleted = append(f.deleted, del)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) CopyMessage(config tgbotapi.CopyMessageConfig) (tgbotapi.MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCopyTo[config.ChatID] {
		return tgbotapi.MessageID{}, errors.New("bot was blocked by the user")
	}
	f.copies = append(f.copies, config)
	f.nextMessageID++
	return tgbotapi.MessageID{MessageID: f.nextMessageID}, nil
}

func (f *fakeAPI) GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error) {
	return tgbotapi.Chat{Title: config.SuperGroupUsername, InviteLink: ""}, nil
}

func (f *fakeAPI) GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	channel := config.SuperGroupUsername
	if f.failLookupIn[channel] {
		return tgbotapi.ChatMember{}, errors.New("chat not found")
	}
	status := "left"
	if statuses, ok := f.memberStatus[channel]; ok {
		if s, ok := statuses[config.UserID]; ok {
			status = s
		}
	}
	return tgbotapi.ChatMember{Status: status}, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) copiedTo() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for _, c := range f.copies {
		ids = append(ids, c.ChatID)
	}
	return ids
}
