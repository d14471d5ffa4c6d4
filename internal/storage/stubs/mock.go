package stubs

import (
	"context"
	"sort"
	"sync"
	"time"

	"vidgrab/internal/models"
	"vidgrab/internal/storage"
)

// MockDB is an in-memory implementation of the Storage interface for testing
type MockDB struct {
	mu       sync.RWMutex
	users    map[int64]models.User
	settings map[string]string
	channels []string
	records  map[int]map[int64]int // broadcast id -> recipient id -> message id
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		users:    make(map[int64]models.User),
		settings: make(map[string]string),
		records:  make(map[int]map[int64]int),
	}
}

// Initialize seeds the default settings, same as the real database
func (m *MockDB) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, value := range storage.DefaultSettings {
		if _, ok := m.settings[key]; !ok {
			m.settings[key] = value
		}
	}
	return nil
}

// SaveUser inserts the user if unseen
func (m *MockDB) SaveUser(ctx context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; ok {
		return nil
	}
	if user.JoinedAt.IsZero() {
		user.JoinedAt = time.Now()
	}
	m.users[user.ID] = user
	return nil
}

// ListUserIDs returns all known user ids sorted ascending
func (m *MockDB) ListUserIDs(ctx context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// CountUsers returns the number of known users
func (m *MockDB) CountUsers(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

// CountUsersSince returns the number of users first seen at or after since
func (m *MockDB) CountUsersSince(ctx context.Context, since time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, u := range m.users {
		if !u.JoinedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// GetSetting returns the value stored for key
func (m *MockDB) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.settings[key]
	if !ok {
		return "", storage.ErrSettingNotFound
	}
	return value, nil
}

// UpdateSetting overwrites the value stored for key
func (m *MockDB) UpdateSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings[key] = value
	return nil
}

// AddChannel registers a gate channel, rejecting duplicates
func (m *MockDB) AddChannel(ctx context.Context, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range m.channels {
		if ch == channelID {
			return storage.ErrChannelExists
		}
	}
	m.channels = append(m.channels, channelID)
	return nil
}

// ListChannels returns all gate channels in insertion order
func (m *MockDB) ListChannels(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	channels := make([]string, len(m.channels))
	copy(channels, m.channels)
	return channels, nil
}

// RemoveChannel deletes a gate channel
func (m *MockDB) RemoveChannel(ctx context.Context, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, ch := range m.channels {
		if ch == channelID {
			m.channels = append(m.channels[:i], m.channels[i+1:]...)
			return nil
		}
	}
	return nil
}

// CreateBroadcastRecord records one delivered broadcast copy
func (m *MockDB) CreateBroadcastRecord(ctx context.Context, rec models.BroadcastRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.BroadcastID]; !ok {
		m.records[rec.BroadcastID] = make(map[int64]int)
	}
	m.records[rec.BroadcastID][rec.RecipientID] = rec.MessageID
	return nil
}

// ListBroadcastRecords returns every delivery record of one broadcast
func (m *MockDB) ListBroadcastRecords(ctx context.Context, broadcastID int) ([]models.BroadcastRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var recs []models.BroadcastRecord
	for recipient, msgID := range m.records[broadcastID] {
		recs = append(recs, models.BroadcastRecord{
			BroadcastID: broadcastID,
			RecipientID: recipient,
			MessageID:   msgID,
		})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].RecipientID < recs[j].RecipientID })
	return recs, nil
}

// ClearBroadcastRecords empties the whole ledger
func (m *MockDB) ClearBroadcastRecords(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[int]map[int64]int)
	return nil
}

// DeleteBroadcastRecords removes all ledger rows of one broadcast
func (m *MockDB) DeleteBroadcastRecords(ctx context.Context, broadcastID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, broadcastID)
	return nil
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}
