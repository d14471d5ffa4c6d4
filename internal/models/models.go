package models

import "time"

// User is a person who has interacted with the bot. Rows are insert-only:
// created on first contact, never updated, never deleted.
type User struct {
	ID        int64 `gorm:"primaryKey;autoIncrement:false"`
	Username  string
	FirstName string
	JoinedAt  time.Time `gorm:"autoCreateTime"`
}

// Setting is a key/value bot text setting (welcome message, subscribe prompt).
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// GateChannel is a channel users must be subscribed to before the bot serves
// them. ChannelID is the public @username of the channel.
type GateChannel struct {
	ID        uint   `gorm:"primaryKey"`
	ChannelID string `gorm:"uniqueIndex;not null"`
}

// BroadcastRecord maps one delivered broadcast copy to its recipient so the
// copy can be deleted later. BroadcastID is the id of the admin's source
// message. The table only ever holds rows for the most recent broadcast.
type BroadcastRecord struct {
	BroadcastID int   `gorm:"primaryKey;autoIncrement:false"`
	RecipientID int64 `gorm:"primaryKey;autoIncrement:false"`
	MessageID   int
}
