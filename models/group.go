package models

import (
	"time"

	"gorm.io/gorm"
)

// Group is one Telegram chat the bot tracks. The reward guard columns
// (RewardActive, RewardExpiresAt) are the authoritative per-group reward
// state: activation and deactivation are conditional updates against them,
// which is what keeps "at most one active reward per group" true across
// concurrent handlers.
type Group struct {
	ID            int64  `gorm:"primaryKey;autoIncrement:false" json:"id"` // telegram chat id
	Title         string `json:"title,omitempty"`
	TotalMessages int64  `gorm:"default:0" json:"total_messages"`

	// Reward configuration
	RewardsEnabled bool `gorm:"default:true" json:"rewards_enabled"`
	RewardRange    int  `gorm:"default:20" json:"reward_range"` // average messages between drops

	// Reward instance state
	Countdown       int        `gorm:"default:20" json:"countdown"` // messages left until next drop, never negative
	RewardActive    bool       `gorm:"default:false" json:"reward_active"`
	RewardExpiresAt *time.Time `json:"reward_expires_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
