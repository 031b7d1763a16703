package services

import (
	"errors"
	"fmt"

	"uleveling-bot/models"

	"gorm.io/gorm"
)

// EnableRewards turns reward drops back on for a group. The countdown is
// redrawn so a long-disabled group doesn't drop instantly on the first
// message.
func (s *RewardService) EnableRewards(groupID int64) error {
	var group models.Group
	if err := s.DB.First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoActivity
		}
		return fmt.Errorf("load group %d: %w", groupID, err)
	}
	if group.RewardsEnabled {
		return nil
	}
	err := s.DB.Model(&group).Updates(map[string]interface{}{
		"rewards_enabled": true,
		"countdown":       drawCountdown(group.RewardRange),
	}).Error
	if err != nil {
		return fmt.Errorf("enable rewards for group %d: %w", groupID, err)
	}
	return nil
}

// DisableRewards turns drops off and retires any live drop, clearing its
// claim set.
func (s *RewardService) DisableRewards(groupID int64) error {
	res := s.DB.Model(&models.Group{}).Where("id = ?", groupID).
		UpdateColumn("rewards_enabled", false)
	if res.Error != nil {
		return fmt.Errorf("disable rewards for group %d: %w", groupID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoActivity
	}
	return s.Deactivate(groupID)
}

// SetRewardRange changes how often drops appear. The countdown is redrawn
// from the new range immediately unless a drop is live, in which case the
// redraw happens on deactivation as usual.
func (s *RewardService) SetRewardRange(groupID int64, rewardRange int) error {
	if rewardRange <= 0 {
		return &ValidationError{Field: "reward range", Msg: "must be a positive integer"}
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Group{}).Where("id = ?", groupID).
			UpdateColumn("reward_range", rewardRange)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoActivity
		}
		return tx.Model(&models.Group{}).
			Where("id = ? AND NOT reward_active", groupID).
			UpdateColumn("countdown", drawCountdown(rewardRange)).Error
	})
	if err != nil {
		if errors.Is(err, ErrNoActivity) {
			return ErrNoActivity
		}
		return fmt.Errorf("set reward range for group %d: %w", groupID, err)
	}
	return nil
}
