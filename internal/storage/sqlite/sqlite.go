package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"vidgrab/internal/models"
	"vidgrab/internal/storage"
)

// DB is the SQLite-backed implementation of storage.Storage.
type DB struct {
	db *gorm.DB
}

// New opens (creating if needed) the SQLite database at path.
// The special path ":memory:" opens a throwaway in-memory database.
func New(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &DB{db: db}, nil
}

// Initialize creates the schema and seeds default settings for any key that
// has no row yet. Existing values are never overwritten.
func (s *DB) Initialize(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Setting{},
		&models.GateChannel{},
		&models.BroadcastRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	for key, value := range storage.DefaultSettings {
		err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Setting{Key: key, Value: value}).Error
		if err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
	}
	return nil
}

// SaveUser inserts the user if unseen; returning users are left untouched.
func (s *DB) SaveUser(ctx context.Context, user models.User) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&user).Error
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// ListUserIDs returns the ids of every known user.
func (s *DB) ListUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Order("id").Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	return ids, nil
}

// CountUsers returns the total number of known users.
func (s *DB) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// CountUsersSince returns the number of users first seen at or after since.
func (s *DB) CountUsersSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("joined_at >= ?", since).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count recent users: %w", err)
	}
	return count, nil
}

// GetSetting returns the value stored for key.
func (s *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var setting models.Setting
	err := s.db.WithContext(ctx).First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", storage.ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return setting.Value, nil
}

// UpdateSetting overwrites the value stored for key.
func (s *DB) UpdateSetting(ctx context.Context, key, value string) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&models.Setting{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("failed to update setting %s: %w", key, err)
	}
	return nil
}

// AddChannel registers a new gate channel. Adding a channel that is already
// configured returns storage.ErrChannelExists.
func (s *DB) AddChannel(ctx context.Context, channelID string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.GateChannel{}).
		Where("channel_id = ?", channelID).Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check channel %s: %w", channelID, err)
	}
	if count > 0 {
		return storage.ErrChannelExists
	}

	if err := s.db.WithContext(ctx).Create(&models.GateChannel{ChannelID: channelID}).Error; err != nil {
		return fmt.Errorf("failed to add channel %s: %w", channelID, err)
	}
	return nil
}

// ListChannels returns all configured gate channel identifiers.
func (s *DB) ListChannels(ctx context.Context) ([]string, error) {
	var channels []string
	err := s.db.WithContext(ctx).Model(&models.GateChannel{}).
		Order("id").Pluck("channel_id", &channels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return channels, nil
}

// RemoveChannel deletes a gate channel. Removing an unknown channel is a no-op.
func (s *DB) RemoveChannel(ctx context.Context, channelID string) error {
	err := s.db.WithContext(ctx).
		Where("channel_id = ?", channelID).Delete(&models.GateChannel{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove channel %s: %w", channelID, err)
	}
	return nil
}

// CreateBroadcastRecord records one delivered broadcast copy.
func (s *DB) CreateBroadcastRecord(ctx context.Context, rec models.BroadcastRecord) error {
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create broadcast record: %w", err)
	}
	return nil
}

// ListBroadcastRecords returns every delivery record of one broadcast.
func (s *DB) ListBroadcastRecords(ctx context.Context, broadcastID int) ([]models.BroadcastRecord, error) {
	var recs []models.BroadcastRecord
	err := s.db.WithContext(ctx).
		Where("broadcast_id = ?", broadcastID).Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list broadcast records: %w", err)
	}
	return recs, nil
}

// ClearBroadcastRecords empties the whole ledger. Called before every new
// broadcast run so the ledger only ever describes the latest broadcast.
func (s *DB) ClearBroadcastRecords(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Where("1 = 1").Delete(&models.BroadcastRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear broadcast records: %w", err)
	}
	return nil
}

// DeleteBroadcastRecords removes all ledger rows of one broadcast.
func (s *DB) DeleteBroadcastRecords(ctx context.Context, broadcastID int) error {
	err := s.db.WithContext(ctx).
		Where("broadcast_id = ?", broadcastID).Delete(&models.BroadcastRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete broadcast records: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *DB) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
