package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidgrab/internal/models"
	"vidgrab/internal/storage"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Initialize(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInitializeSeedsDefaultSettings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for key := range storage.DefaultSettings {
		value, err := db.GetSetting(ctx, key)
		require.NoError(t, err)
		assert.NotEmpty(t, value)
	}

	// Re-initializing must not overwrite an edited value
	require.NoError(t, db.UpdateSetting(ctx, storage.SettingWelcomeMessage, "custom"))
	require.NoError(t, db.Initialize(ctx))

	value, err := db.GetSetting(ctx, storage.SettingWelcomeMessage)
	require.NoError(t, err)
	assert.Equal(t, "custom", value)
}

func TestGetSettingUnknownKey(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetSetting(context.Background(), "no_such_key")
	assert.ErrorIs(t, err, storage.ErrSettingNotFound)
}

func TestSaveUserIsInsertOrIgnore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveUser(ctx, models.User{ID: 1, Username: "alice"}))
	require.NoError(t, db.SaveUser(ctx, models.User{ID: 1, Username: "renamed"}))
	require.NoError(t, db.SaveUser(ctx, models.User{ID: 2, Username: "bob"}))

	count, err := db.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	ids, err := db.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestCountUsersSince(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, db.SaveUser(ctx, models.User{ID: 1, JoinedAt: now}))
	require.NoError(t, db.SaveUser(ctx, models.User{ID: 2, JoinedAt: now.Add(-48 * time.Hour)}))

	count, err := db.CountUsersSince(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAddChannelRejectsDuplicates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.AddChannel(ctx, "@chan1"))

	err := db.AddChannel(ctx, "@chan1")
	assert.ErrorIs(t, err, storage.ErrChannelExists)

	channels, err := db.ListChannels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"@chan1"}, channels)
}

func TestRemoveChannel(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.AddChannel(ctx, "@chan1"))
	require.NoError(t, db.AddChannel(ctx, "@chan2"))

	require.NoError(t, db.RemoveChannel(ctx, "@chan1"))
	// Removing an unknown channel is a no-op
	require.NoError(t, db.RemoveChannel(ctx, "@ghost"))

	channels, err := db.ListChannels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"@chan2"}, channels)
}

func TestBroadcastLedger(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, rec := range []models.BroadcastRecord{
		{BroadcastID: 500, RecipientID: 1, MessageID: 11},
		{BroadcastID: 500, RecipientID: 2, MessageID: 12},
		{BroadcastID: 400, RecipientID: 1, MessageID: 9},
	} {
		require.NoError(t, db.CreateBroadcastRecord(ctx, rec))
	}

	recs, err := db.ListBroadcastRecords(ctx, 500)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	require.NoError(t, db.DeleteBroadcastRecords(ctx, 500))
	recs, err = db.ListBroadcastRecords(ctx, 500)
	require.NoError(t, err)
	assert.Empty(t, recs)

	// Deleting again is a no-op, and the other broadcast is untouched
	require.NoError(t, db.DeleteBroadcastRecords(ctx, 500))
	recs, err = db.ListBroadcastRecords(ctx, 400)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	require.NoError(t, db.ClearBroadcastRecords(ctx))
	recs, err = db.ListBroadcastRecords(ctx, 400)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
