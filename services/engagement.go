package services

import (
	"errors"
	"fmt"
	"log"

	"uleveling-bot/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupMessage is the inbound engagement event: one qualifying message in
// a tracked group.
type GroupMessage struct {
	GroupID     int64
	GroupTitle  string
	UserID      int64
	DisplayName string
}

// EngagementService routes engagement events: it makes sure the group and
// the group-scoped user record exist, applies message experience, announces
// level-ups and feeds the reward state machine its countdown tick. Record
// creation happens before the experience update for the same entity, and
// the tick runs regardless of the level-up outcome.
type EngagementService struct {
	DB        *gorm.DB
	ledger    ExperienceLedger
	rewards   *RewardService
	messenger Messenger
	cfg       EngagementConfig
}

func NewEngagementService(db *gorm.DB, cfg EngagementConfig, rewards *RewardService, m Messenger) *EngagementService {
	return &EngagementService{
		DB:        db,
		ledger:    NewExperienceLedger(cfg),
		rewards:   rewards,
		messenger: m,
		cfg:       cfg,
	}
}

// HandleGroupMessage processes one group message event end to end.
func (s *EngagementService) HandleGroupMessage(msg GroupMessage) error {
	group, err := s.EnsureGroup(msg.GroupID, msg.GroupTitle)
	if err != nil {
		return err
	}
	user, err := s.EnsureGroupUser(msg.UserID, msg.GroupID, msg.DisplayName)
	if err != nil {
		return err
	}

	if err := s.DB.Model(&models.Group{}).Where("id = ?", group.ID).
		UpdateColumn("total_messages", gorm.Expr("total_messages + 1")).Error; err != nil {
		return fmt.Errorf("count group message: %w", err)
	}

	leveledUp, newLevel, err := s.applyMessageExperience(user.ID)
	if err != nil {
		return err
	}
	if leveledUp && s.messenger != nil {
		text := fmt.Sprintf("Congratulations, %s! You are now level %d! 🎉", msg.DisplayName, newLevel)
		if err := s.messenger.SendMessage(msg.GroupID, text); err != nil {
			log.Printf("[Engagement] Failed to announce level-up in group %d: %v", msg.GroupID, err)
		}
	}

	return s.rewards.Tick(group)
}

// EnsureGroup creates the group record if absent (idempotent under
// concurrent creation) and returns the current row.
func (s *EngagementService) EnsureGroup(groupID int64, title string) (*models.Group, error) {
	fresh := models.Group{
		ID:             groupID,
		Title:          title,
		RewardsEnabled: true,
		RewardRange:    s.cfg.RewardRange,
		Countdown:      s.cfg.RewardRange,
	}
	if err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("create group %d: %w", groupID, err)
	}

	var group models.Group
	if err := s.DB.First(&group, "id = ?", groupID).Error; err != nil {
		return nil, fmt.Errorf("load group %d: %w", groupID, err)
	}
	return &group, nil
}

// EnsureGroupUser creates the group-scoped user record if absent and
// returns the current row. The display name is refreshed on every event so
// announcements use the name the user currently goes by.
func (s *EngagementService) EnsureGroupUser(userID, groupID int64, displayName string) (*models.GroupUser, error) {
	fresh := models.GroupUser{
		ID:          uuid.NewString(),
		UserID:      userID,
		GroupID:     groupID,
		DisplayName: displayName,
		Level:       1,
	}
	if err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("create group user %d/%d: %w", userID, groupID, err)
	}

	var user models.GroupUser
	if err := s.DB.Where("user_id = ? AND group_id = ?", userID, groupID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("load group user %d/%d: %w", userID, groupID, err)
	}
	if displayName != "" && user.DisplayName != displayName {
		if err := s.DB.Model(&user).UpdateColumn("display_name", displayName).Error; err != nil {
			return nil, fmt.Errorf("refresh display name: %w", err)
		}
		user.DisplayName = displayName
	}
	return &user, nil
}

func (s *EngagementService) applyMessageExperience(groupUserID string) (bool, int, error) {
	var leveledUp bool
	var newLevel int
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var u models.GroupUser
		if err := tx.First(&u, "id = ?", groupUserID).Error; err != nil {
			return err
		}
		progress, up := s.ledger.Apply(Progress{Level: u.Level, Experience: u.Experience}, s.cfg.MessageXP)
		u.Level = progress.Level
		u.Experience = progress.Experience
		u.TotalMessages++
		if err := tx.Save(&u).Error; err != nil {
			return err
		}
		leveledUp = up
		newLevel = u.Level
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("apply message experience: %w", err)
	}
	return leveledUp, newLevel, nil
}

// LevelInfo returns the user's progress in a group for the /level command.
func (s *EngagementService) LevelInfo(groupID, userID int64) (*models.GroupUser, error) {
	var user models.GroupUser
	err := s.DB.Where("user_id = ? AND group_id = ?", userID, groupID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActivity
	}
	if err != nil {
		return nil, fmt.Errorf("load group user %d/%d: %w", userID, groupID, err)
	}
	return &user, nil
}

// GroupStats is the admin view of one group's engagement.
type GroupStats struct {
	Group      models.Group       `json:"group"`
	Members    int64              `json:"members"`
	TopMembers []models.GroupUser `json:"top_members"`
}

// Stats returns a group's engagement summary with its top members by
// level, then experience.
func (s *EngagementService) Stats(groupID int64) (*GroupStats, error) {
	var group models.Group
	if err := s.DB.First(&group, "id = ?", groupID).Error; err != nil {
		return nil, err
	}

	var members int64
	if err := s.DB.Model(&models.GroupUser{}).Where("group_id = ?", groupID).Count(&members).Error; err != nil {
		return nil, err
	}

	var top []models.GroupUser
	if err := s.DB.Where("group_id = ?", groupID).
		Order("level DESC, experience DESC").
		Limit(10).
		Find(&top).Error; err != nil {
		return nil, err
	}

	return &GroupStats{Group: group, Members: members, TopMembers: top}, nil
}
