package services

import (
	"errors"
	"testing"
	"time"

	"uleveling-bot/models"
)

func TestScheduleRejectsEmptyMessage(t *testing.T) {
	svc := NewNotificationService(newTestDB(t), newFakeMessenger())

	var ve *ValidationError
	if _, err := svc.Schedule("   ", time.Now()); !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestDueIsOneShot(t *testing.T) {
	svc := NewNotificationService(newTestDB(t), newFakeMessenger())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	past, err := svc.Schedule("hello", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := svc.Schedule("later", now.Add(time.Hour)); err != nil {
		t.Fatalf("schedule future: %v", err)
	}

	due, err := svc.Due(now)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 1 || due[0].ID != past.ID {
		t.Fatalf("due = %+v, want only the past notification", due)
	}

	// Marking expired twice is fine; the row never comes back.
	if err := svc.MarkExpired(past.ID); err != nil {
		t.Fatalf("mark expired: %v", err)
	}
	if err := svc.MarkExpired(past.ID); err != nil {
		t.Fatalf("second mark expired: %v", err)
	}
	due, err = svc.Due(now)
	if err != nil {
		t.Fatalf("due after expiry: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("due after expiry = %+v, want none", due)
	}
}

func TestBroadcastContinuesPastFailures(t *testing.T) {
	messenger := newFakeMessenger()
	svc := NewNotificationService(newTestDB(t), messenger)

	for _, userID := range []int64{11, 12, 13} {
		if err := svc.RegisterPrivateChat(userID); err != nil {
			t.Fatalf("register %d: %v", userID, err)
		}
	}
	// Registering twice must not create a second recipient.
	if err := svc.RegisterPrivateChat(11); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	var recipients int64
	svc.DB.Model(&models.PrivateChat{}).Count(&recipients)
	if recipients != 3 {
		t.Fatalf("recipients = %d, want 3", recipients)
	}

	messenger.failFor[12] = true
	failures := svc.Broadcast(models.Notification{ID: "n1", Message: "hello"})
	if len(failures) != 1 {
		t.Fatalf("failures = %v, want exactly one", failures)
	}

	if got := len(messenger.sentTo(11)) + len(messenger.sentTo(13)); got != 2 {
		t.Fatalf("delivered to %d healthy recipients, want 2", got)
	}
}
