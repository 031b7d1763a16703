package services

import (
	"errors"
	"fmt"
	"time"

	"uleveling-bot/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClaimResult is what a successful claim tells the user.
type ClaimResult struct {
	Level      int
	Experience int
	LeveledUp  bool
}

// ClaimService serializes concurrent claim attempts against a group's live
// drop. Claim-once is not guarded by any in-process lock: multiple bot
// instances may race on the same (reward, user) pair, so the unique index
// on reward_claims is the only arbiter. The loser of an insert race gets a
// duplicate-key error, which surfaces as ErrAlreadyClaimed.
type ClaimService struct {
	DB      *gorm.DB
	ledger  ExperienceLedger
	rewards *RewardService
	cfg     EngagementConfig

	now func() time.Time
}

func NewClaimService(db *gorm.DB, cfg EngagementConfig, rewards *RewardService) *ClaimService {
	return &ClaimService{
		DB:      db,
		ledger:  NewExperienceLedger(cfg),
		rewards: rewards,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Claim awards the live drop's bonus XP to the user. Preconditions are
// checked in order, each with its own failure mode: ErrNoActivity,
// ErrRewardsDisabled, ErrNoActiveReward, ErrRewardExpired (deactivating the
// drop as a side effect) and ErrAlreadyClaimed. On success the claim row
// and the experience award commit in one transaction — never one without
// the other.
func (s *ClaimService) Claim(groupID, userID int64) (*ClaimResult, error) {
	var user models.GroupUser
	err := s.DB.Where("user_id = ? AND group_id = ?", userID, groupID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActivity
	}
	if err != nil {
		return nil, fmt.Errorf("load group user: %w", err)
	}

	var group models.Group
	err = s.DB.First(&group, "id = ?", groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRewardsDisabled
	}
	if err != nil {
		return nil, fmt.Errorf("load group: %w", err)
	}
	if !group.RewardsEnabled {
		return nil, ErrRewardsDisabled
	}
	if !group.RewardActive {
		return nil, ErrNoActiveReward
	}
	if group.RewardExpiresAt != nil && !s.now().Before(*group.RewardExpiresAt) {
		if err := s.rewards.Deactivate(groupID); err != nil {
			return nil, err
		}
		return nil, ErrRewardExpired
	}

	reward, err := s.rewards.ActiveReward(groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveReward
	}
	if err != nil {
		return nil, fmt.Errorf("load active reward: %w", err)
	}

	var claimed int64
	if err := s.DB.Model(&models.RewardClaim{}).
		Where("reward_id = ? AND group_user_id = ?", reward.ID, user.ID).
		Count(&claimed).Error; err != nil {
		return nil, fmt.Errorf("check existing claim: %w", err)
	}
	if claimed > 0 {
		return nil, ErrAlreadyClaimed
	}

	var result ClaimResult
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		claim := models.RewardClaim{
			ID:          uuid.NewString(),
			RewardID:    reward.ID,
			GroupUserID: user.ID,
		}
		if err := tx.Create(&claim).Error; err != nil {
			return err
		}

		// Re-read inside the transaction so the award applies to the
		// freshest progress snapshot.
		var u models.GroupUser
		if err := tx.First(&u, "id = ?", user.ID).Error; err != nil {
			return err
		}
		progress, leveledUp := s.ledger.Apply(Progress{Level: u.Level, Experience: u.Experience}, s.cfg.RewardXP)
		u.Level = progress.Level
		u.Experience = progress.Experience
		if err := tx.Save(&u).Error; err != nil {
			return err
		}
		result = ClaimResult{Level: u.Level, Experience: u.Experience, LeveledUp: leveledUp}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyClaimed
	}
	if err != nil {
		return nil, fmt.Errorf("claim reward %s: %w", reward.ID, err)
	}
	return &result, nil
}
