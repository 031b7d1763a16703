package models

import "time"

// Reward is one instance of the claimable bonus drop. A group has at most
// one active instance at a time; claims reference the instance so that a
// later drop starts with a clean claim set.
type Reward struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	GroupID     int64     `gorm:"index;not null" json:"group_id"`
	Active      bool      `gorm:"default:true;index" json:"active"`
	ActivatedAt time.Time `json:"activated_at"`
	ExpiresAt   time.Time `json:"expires_at"`

	Timestamps
}

// RewardClaim is the proof-of-claim row. The unique index on
// (reward_id, group_user_id) is the sole enforcement of claim-once: the
// second concurrent writer fails with a duplicate-key error instead of
// double-awarding. Rows are immutable and are deleted only when the owning
// reward is deactivated.
type RewardClaim struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	RewardID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_reward_claims_reward_user" json:"reward_id"`
	GroupUserID string    `gorm:"type:uuid;not null;uniqueIndex:idx_reward_claims_reward_user" json:"group_user_id"`
	ClaimedAt   time.Time `gorm:"autoCreateTime" json:"claimed_at"`
}
