package services

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"uleveling-bot/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const rewardDropCaption = "A random bonus reward is being dropped! Active users may receive bonus experience points.\n\nTap /claim to receive your reward!"

// RewardService owns the per-group reward lifecycle:
//
//	dormant (countdown > 0) → active (drop exists, now < expires_at)
//	→ expired-pending-cleanup (now >= expires_at) → dormant
//
// There is no background clock by default: expiry is detected lazily on
// the next group message or claim attempt, so a drop can overstay by one
// inter-message gap. That staleness is accepted; the optional sweep worker
// tightens it for quiet groups. Every transition is a conditional update
// against the group's guard columns so concurrent handlers cannot
// double-activate or double-deactivate.
type RewardService struct {
	DB           *gorm.DB
	cfg          EngagementConfig
	messenger    Messenger
	animationURL string

	now func() time.Time
}

func NewRewardService(db *gorm.DB, cfg EngagementConfig, m Messenger, animationURL string) *RewardService {
	return &RewardService{
		DB:           db,
		cfg:          cfg,
		messenger:    m,
		animationURL: animationURL,
		now:          time.Now,
	}
}

// Tick advances the state machine for one qualifying group message.
// While a drop is live it checks expiry; while dormant it decrements the
// countdown and activates a drop when it hits zero.
func (s *RewardService) Tick(group *models.Group) error {
	if !group.RewardsEnabled {
		return nil
	}
	now := s.now()

	if group.RewardActive {
		if group.RewardExpiresAt != nil && !now.Before(*group.RewardExpiresAt) {
			return s.Deactivate(group.ID)
		}
		return nil
	}

	remaining, err := s.decrementCountdown(group.ID)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}

	// remaining is 0 (this message exhausted the countdown) or -1 (it was
	// already exhausted, meaning a previous activation attempt never
	// landed). Either way, push on the conditional guard; only the caller
	// that flips it announces.
	activated, err := s.Activate(group.ID, now)
	if err != nil {
		return err
	}
	if activated {
		s.announceDrop(group.ID)
	}
	return nil
}

// decrementCountdown takes the countdown down one step, never below zero.
// The guard in the WHERE clause means exactly one concurrent message takes
// it from 1 to 0; everyone else sees -1 (no row touched).
func (s *RewardService) decrementCountdown(groupID int64) (int, error) {
	group := models.Group{ID: groupID}
	res := s.DB.Model(&group).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "countdown"}}}).
		Where("id = ? AND countdown > 0", groupID).
		UpdateColumn("countdown", gorm.Expr("countdown - 1"))
	if res.Error != nil {
		return -1, fmt.Errorf("decrement countdown for group %d: %w", groupID, res.Error)
	}
	if res.RowsAffected == 0 {
		return -1, nil
	}
	return group.Countdown, nil
}

// Activate creates a drop for the group unless one is already live. The
// conditional update on the guard columns tolerates concurrent triggers:
// only the handler that flips reward_active creates the instance row.
func (s *RewardService) Activate(groupID int64, now time.Time) (bool, error) {
	expiresAt := now.Add(s.cfg.RewardWindow)
	var activated bool

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Group{}).
			Where("id = ? AND rewards_enabled AND NOT reward_active", groupID).
			Updates(map[string]interface{}{
				"reward_active":     true,
				"reward_expires_at": expiresAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // lost the race or rewards were just disabled
		}

		reward := models.Reward{
			ID:          uuid.NewString(),
			GroupID:     groupID,
			Active:      true,
			ActivatedAt: now,
			ExpiresAt:   expiresAt,
		}
		if err := tx.Create(&reward).Error; err != nil {
			return err
		}
		activated = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("activate reward for group %d: %w", groupID, err)
	}
	return activated, nil
}

// Deactivate retires the group's live drop: clears its claim set, redraws
// the countdown from uniform(range, 1.5*range) and returns the group to
// dormant. Idempotent — the conditional update on reward_active makes a
// second concurrent call a no-op.
func (s *RewardService) Deactivate(groupID int64) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.First(&group, "id = ?", groupID).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Group{}).
			Where("id = ? AND reward_active", groupID).
			Updates(map[string]interface{}{
				"reward_active":     false,
				"reward_expires_at": nil,
				"countdown":         drawCountdown(group.RewardRange),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // already deactivated
		}

		var reward models.Reward
		err := tx.Where("group_id = ? AND active", groupID).First(&reward).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Where("reward_id = ?", reward.ID).Delete(&models.RewardClaim{}).Error; err != nil {
			return err
		}
		return tx.Model(&reward).UpdateColumn("active", false).Error
	})
	if err != nil {
		return fmt.Errorf("deactivate reward for group %d: %w", groupID, err)
	}
	return nil
}

// ActiveReward returns the group's live drop instance, or
// gorm.ErrRecordNotFound.
func (s *RewardService) ActiveReward(groupID int64) (*models.Reward, error) {
	var reward models.Reward
	if err := s.DB.Where("group_id = ? AND active", groupID).First(&reward).Error; err != nil {
		return nil, err
	}
	return &reward, nil
}

func (s *RewardService) announceDrop(groupID int64) {
	if s.messenger == nil {
		return
	}
	var err error
	if s.animationURL != "" {
		err = s.messenger.SendAnimation(groupID, s.animationURL, rewardDropCaption)
	} else {
		err = s.messenger.SendMessage(groupID, rewardDropCaption)
	}
	if err != nil {
		log.Printf("[Reward] Failed to announce drop in group %d: %v", groupID, err)
	}
}

// drawCountdown picks the next drop distance: uniform over
// [rewardRange, 1.5*rewardRange].
func drawCountdown(rewardRange int) int {
	if rewardRange < 1 {
		rewardRange = 1
	}
	return rewardRange + rand.Intn(rewardRange/2+1)
}
