package models

// GroupUser is a group-scoped activity record: the same Telegram user has
// one row per group they are active in, each with its own level and
// experience. Invariant after every mutation: Experience < the threshold
// for the current level (see services.ExperienceLedger).
type GroupUser struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      int64  `gorm:"uniqueIndex:idx_group_users_user_group;not null" json:"user_id"` // telegram user id
	GroupID     int64  `gorm:"uniqueIndex:idx_group_users_user_group;not null" json:"group_id"`
	DisplayName string `json:"display_name,omitempty"`

	Level         int   `gorm:"default:1" json:"level"`
	Experience    int   `gorm:"default:0" json:"experience"`
	TotalMessages int64 `gorm:"default:0" json:"total_messages"`

	Timestamps
}
