package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"uleveling-bot/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func seedGroup(t *testing.T, db *gorm.DB, group models.Group) *models.Group {
	t.Helper()
	// Select("*") so zero-valued fields like RewardsEnabled=false are
	// written instead of falling back to the column default.
	if err := db.Select("*").Create(&group).Error; err != nil {
		t.Fatalf("seed group: %v", err)
	}
	return &group
}

func seedGroupUser(t *testing.T, db *gorm.DB, userID, groupID int64, level, experience int) *models.GroupUser {
	t.Helper()
	user := models.GroupUser{
		ID:         uuid.NewString(),
		UserID:     userID,
		GroupID:    groupID,
		Level:      level,
		Experience: experience,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed group user: %v", err)
	}
	return &user
}

func reloadGroup(t *testing.T, db *gorm.DB, id int64) *models.Group {
	t.Helper()
	var group models.Group
	if err := db.First(&group, "id = ?", id).Error; err != nil {
		t.Fatalf("reload group: %v", err)
	}
	return &group
}

func TestTickActivatesOnCountdownZero(t *testing.T) {
	db := newTestDB(t)
	messenger := newFakeMessenger()
	svc := NewRewardService(db, DefaultEngagementConfig, messenger, "https://cdn.example.com/reward.gif")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	group := seedGroup(t, db, models.Group{ID: 100, RewardsEnabled: true, RewardRange: 20, Countdown: 1})

	if err := svc.Tick(group); err != nil {
		t.Fatalf("tick: %v", err)
	}

	got := reloadGroup(t, db, 100)
	if !got.RewardActive {
		t.Fatal("expected reward to be active")
	}
	if got.Countdown != 0 {
		t.Fatalf("countdown = %d, want 0 until deactivation redraws it", got.Countdown)
	}

	reward, err := svc.ActiveReward(100)
	if err != nil {
		t.Fatalf("active reward: %v", err)
	}
	wantExpiry := now.Add(DefaultEngagementConfig.RewardWindow)
	if !reward.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expires_at = %v, want %v", reward.ExpiresAt, wantExpiry)
	}

	if len(messenger.animations) != 1 {
		t.Fatalf("expected one drop announcement, got %d", len(messenger.animations))
	}
	if !strings.Contains(messenger.animations[0].Caption, "/claim") {
		t.Fatalf("drop announcement does not mention /claim: %q", messenger.animations[0].Caption)
	}
}

func TestTickDoesNothingWhileDisabled(t *testing.T) {
	db := newTestDB(t)
	svc := NewRewardService(db, DefaultEngagementConfig, newFakeMessenger(), "")

	group := seedGroup(t, db, models.Group{ID: 101, RewardsEnabled: false, RewardRange: 20, Countdown: 1})
	if err := svc.Tick(group); err != nil {
		t.Fatalf("tick: %v", err)
	}

	got := reloadGroup(t, db, 101)
	if got.RewardActive || got.Countdown != 1 {
		t.Fatalf("disabled group mutated: active=%v countdown=%d", got.RewardActive, got.Countdown)
	}
}

func TestTickExpiresOverdueReward(t *testing.T) {
	db := newTestDB(t)
	svc := NewRewardService(db, DefaultEngagementConfig, newFakeMessenger(), "")
	activatedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return activatedAt }

	group := seedGroup(t, db, models.Group{ID: 102, RewardsEnabled: true, RewardRange: 20, Countdown: 1})
	if err := svc.Tick(group); err != nil {
		t.Fatalf("tick: %v", err)
	}

	// A message arriving after the window lazily retires the drop.
	svc.now = func() time.Time { return activatedAt.Add(DefaultEngagementConfig.RewardWindow + time.Second) }
	if err := svc.Tick(reloadGroup(t, db, 102)); err != nil {
		t.Fatalf("tick after expiry: %v", err)
	}

	got := reloadGroup(t, db, 102)
	if got.RewardActive {
		t.Fatal("expected reward to be retired")
	}
	if got.Countdown < 20 || got.Countdown > 30 {
		t.Fatalf("countdown = %d, want redraw in [20, 30]", got.Countdown)
	}
	if _, err := svc.ActiveReward(102); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected no active reward, got err=%v", err)
	}
}

func TestActivateIsConditional(t *testing.T) {
	db := newTestDB(t)
	svc := NewRewardService(db, DefaultEngagementConfig, newFakeMessenger(), "")
	now := time.Now()

	seedGroup(t, db, models.Group{ID: 103, RewardsEnabled: true, RewardRange: 20, Countdown: 0})

	first, err := svc.Activate(103, now)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	second, err := svc.Activate(103, now)
	if err != nil {
		t.Fatalf("second activate: %v", err)
	}
	if !first || second {
		t.Fatalf("activation results = (%v, %v), want (true, false)", first, second)
	}

	var count int64
	db.Model(&models.Reward{}).Where("group_id = ?", int64(103)).Count(&count)
	if count != 1 {
		t.Fatalf("reward instances = %d, want 1", count)
	}
}

func TestDeactivateClearsClaimsAndRedraws(t *testing.T) {
	db := newTestDB(t)
	svc := NewRewardService(db, DefaultEngagementConfig, newFakeMessenger(), "")

	seedGroup(t, db, models.Group{ID: 104, RewardsEnabled: true, RewardRange: 20, Countdown: 0})
	user := seedGroupUser(t, db, 7, 104, 1, 0)

	if _, err := svc.Activate(104, time.Now()); err != nil {
		t.Fatalf("activate: %v", err)
	}
	reward, err := svc.ActiveReward(104)
	if err != nil {
		t.Fatalf("active reward: %v", err)
	}
	claim := models.RewardClaim{ID: uuid.NewString(), RewardID: reward.ID, GroupUserID: user.ID}
	if err := db.Create(&claim).Error; err != nil {
		t.Fatalf("seed claim: %v", err)
	}

	if err := svc.Deactivate(104); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	got := reloadGroup(t, db, 104)
	if got.RewardActive {
		t.Fatal("expected group to be dormant")
	}
	if got.Countdown < 20 || got.Countdown > 30 {
		t.Fatalf("countdown = %d, want redraw in [20, 30]", got.Countdown)
	}
	var claims int64
	db.Model(&models.RewardClaim{}).Where("reward_id = ?", reward.ID).Count(&claims)
	if claims != 0 {
		t.Fatalf("claims left after deactivation = %d, want 0", claims)
	}

	// Idempotent: retiring an already dormant group changes nothing.
	before := got.Countdown
	if err := svc.Deactivate(104); err != nil {
		t.Fatalf("second deactivate: %v", err)
	}
	if after := reloadGroup(t, db, 104).Countdown; after != before {
		t.Fatalf("second deactivate redrew countdown: %d -> %d", before, after)
	}
}

func TestDrawCountdownBounds(t *testing.T) {
	for i := 0; i < 200; i++ {
		got := drawCountdown(20)
		if got < 20 || got > 30 {
			t.Fatalf("drawCountdown(20) = %d, want within [20, 30]", got)
		}
	}
	if got := drawCountdown(0); got < 1 {
		t.Fatalf("drawCountdown(0) = %d, want at least 1", got)
	}
}

func TestRewardSettings(t *testing.T) {
	db := newTestDB(t)
	svc := NewRewardService(db, DefaultEngagementConfig, newFakeMessenger(), "")

	seedGroup(t, db, models.Group{ID: 105, RewardsEnabled: true, RewardRange: 20, Countdown: 0})

	if _, err := svc.Activate(105, time.Now()); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := svc.DisableRewards(105); err != nil {
		t.Fatalf("disable: %v", err)
	}
	got := reloadGroup(t, db, 105)
	if got.RewardsEnabled || got.RewardActive {
		t.Fatalf("disable left enabled=%v active=%v", got.RewardsEnabled, got.RewardActive)
	}

	if err := svc.EnableRewards(105); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if got := reloadGroup(t, db, 105); !got.RewardsEnabled {
		t.Fatal("expected rewards enabled")
	}

	if err := svc.SetRewardRange(105, 40); err != nil {
		t.Fatalf("set range: %v", err)
	}
	got = reloadGroup(t, db, 105)
	if got.RewardRange != 40 {
		t.Fatalf("reward range = %d, want 40", got.RewardRange)
	}
	if got.Countdown < 40 || got.Countdown > 60 {
		t.Fatalf("countdown = %d, want redraw in [40, 60]", got.Countdown)
	}

	var ve *ValidationError
	if err := svc.SetRewardRange(105, 0); !errors.As(err, &ve) {
		t.Fatalf("SetRewardRange(0) error = %v, want ValidationError", err)
	}

	if err := svc.SetRewardRange(999, 10); !errors.Is(err, ErrNoActivity) {
		t.Fatalf("unknown group error = %v, want ErrNoActivity", err)
	}
}
