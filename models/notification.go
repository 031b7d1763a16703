package models

import "time"

// Notification is a scheduled broadcast to every registered private chat.
// Expired doubles as the delivered flag: the scheduler marks a row expired
// after a send attempt so it is picked up at most once.
type Notification struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	ScheduledAt time.Time `gorm:"index;not null" json:"scheduled_at"`
	Expired     bool      `gorm:"default:false" json:"expired"`

	Timestamps
}

// PrivateChat is a user who opened a private conversation with the bot via
// /start. These are the recipients for broadcast notifications.
type PrivateChat struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID int64  `gorm:"uniqueIndex;not null" json:"user_id"` // telegram user id, also the chat id

	Timestamps
}
