package storage

import (
	"context"
	"errors"
	"time"

	"vidgrab/internal/models"
)

// ErrChannelExists is returned when adding a gate channel that is already configured.
var ErrChannelExists = errors.New("channel already exists")

// ErrSettingNotFound is returned when a requested setting key has no row.
var ErrSettingNotFound = errors.New("setting not found")

// Storage defines the interface for data storage operations
type Storage interface {
	// User operations. SaveUser is insert-or-ignore: a returning user is not an error.
	SaveUser(ctx context.Context, user models.User) error
	ListUserIDs(ctx context.Context) ([]int64, error)
	CountUsers(ctx context.Context) (int64, error)
	CountUsersSince(ctx context.Context, since time.Time) (int64, error)

	// Setting operations
	GetSetting(ctx context.Context, key string) (string, error)
	UpdateSetting(ctx context.Context, key, value string) error

	// Gate channel operations. AddChannel returns ErrChannelExists on duplicates.
	AddChannel(ctx context.Context, channelID string) error
	ListChannels(ctx context.Context) ([]string, error)
	RemoveChannel(ctx context.Context, channelID string) error

	// Broadcast ledger operations. ClearBroadcastRecords wipes the whole
	// ledger; DeleteBroadcastRecords removes the rows of one broadcast.
	CreateBroadcastRecord(ctx context.Context, rec models.BroadcastRecord) error
	ListBroadcastRecords(ctx context.Context, broadcastID int) ([]models.BroadcastRecord, error)
	ClearBroadcastRecords(ctx context.Context) error
	DeleteBroadcastRecords(ctx context.Context, broadcastID int) error

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
