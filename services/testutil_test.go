package services

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"uleveling-bot/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a throwaway sqlite database with the same gorm settings
// the bot runs with (TranslateError in particular — the claim path depends
// on gorm.ErrDuplicatedKey).
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "bot.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Group{},
		&models.GroupUser{},
		&models.Reward{},
		&models.RewardClaim{},
		&models.PrivateChat{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

type sentMessage struct {
	ChatID int64
	Text   string
}

type sentAnimation struct {
	ChatID  int64
	FileURL string
	Caption string
}

// fakeMessenger records outbound messages and can be told to fail for
// specific chats.
type fakeMessenger struct {
	mu         sync.Mutex
	messages   []sentMessage
	animations []sentAnimation
	failFor    map[int64]bool
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{failFor: make(map[int64]bool)}
}

func (m *fakeMessenger) SendMessage(chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[chatID] {
		return fmt.Errorf("chat %d unreachable", chatID)
	}
	m.messages = append(m.messages, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *fakeMessenger) SendAnimation(chatID int64, fileURL, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[chatID] {
		return fmt.Errorf("chat %d unreachable", chatID)
	}
	m.animations = append(m.animations, sentAnimation{ChatID: chatID, FileURL: fileURL, Caption: caption})
	return nil
}

func (m *fakeMessenger) sentTo(chatID int64) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, msg := range m.messages {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out
}
