package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"uleveling-bot/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationService owns scheduled broadcasts and the private-chat
// recipient registry.
type NotificationService struct {
	DB        *gorm.DB
	messenger Messenger
}

func NewNotificationService(db *gorm.DB, m Messenger) *NotificationService {
	return &NotificationService{DB: db, messenger: m}
}

// Schedule queues a broadcast for delivery at or after scheduledAt.
func (s *NotificationService) Schedule(message string, scheduledAt time.Time) (*models.Notification, error) {
	if strings.TrimSpace(message) == "" {
		return nil, &ValidationError{Field: "message", Msg: "must not be empty"}
	}
	n := models.Notification{
		ID:          uuid.NewString(),
		Message:     message,
		ScheduledAt: scheduledAt,
	}
	if err := s.DB.Create(&n).Error; err != nil {
		return nil, fmt.Errorf("schedule notification: %w", err)
	}
	return &n, nil
}

// Due returns notifications whose scheduled time has passed and which have
// not yet been picked up.
func (s *NotificationService) Due(now time.Time) ([]models.Notification, error) {
	var due []models.Notification
	err := s.DB.Where("scheduled_at <= ? AND NOT expired", now).Find(&due).Error
	if err != nil {
		return nil, fmt.Errorf("load due notifications: %w", err)
	}
	return due, nil
}

// MarkExpired retires a notification so it is never delivered again.
// Idempotent.
func (s *NotificationService) MarkExpired(id string) error {
	err := s.DB.Model(&models.Notification{}).Where("id = ?", id).
		UpdateColumn("expired", true).Error
	if err != nil {
		return fmt.Errorf("expire notification %s: %w", id, err)
	}
	return nil
}

// Broadcast delivers a notification to every registered private chat.
// A failed send is logged and collected but never aborts the batch; the
// caller gets the per-recipient failures back for accounting.
func (s *NotificationService) Broadcast(n models.Notification) []error {
	var chats []models.PrivateChat
	if err := s.DB.Find(&chats).Error; err != nil {
		return []error{fmt.Errorf("load private chats: %w", err)}
	}

	var failures []error
	for _, chat := range chats {
		if err := s.messenger.SendMessage(chat.UserID, n.Message); err != nil {
			log.Printf("[Notifications] Delivery to %d failed: %v", chat.UserID, err)
			failures = append(failures, fmt.Errorf("deliver to %d: %w", chat.UserID, err))
		}
	}
	return failures
}

// RegisterPrivateChat remembers a user who opened a private conversation
// with the bot. Idempotent under re-delivery of /start.
func (s *NotificationService) RegisterPrivateChat(userID int64) error {
	chat := models.PrivateChat{ID: uuid.NewString(), UserID: userID}
	err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&chat).Error
	if err != nil {
		return fmt.Errorf("register private chat %d: %w", userID, err)
	}
	return nil
}
