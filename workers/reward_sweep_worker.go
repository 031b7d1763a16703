package workers

import (
	"context"
	"log"
	"time"

	"uleveling-bot/models"
	"uleveling-bot/services"

	"gorm.io/gorm"
)

// PollExpiredRewards sweeps groups whose drop outlived its window. Expiry
// is normally detected lazily on group traffic, which means a drop in a
// quiet group can linger past its window until someone speaks; this sweep
// bounds that overstay to the poll interval. Deactivation goes through the
// same conditional update as the lazy path, so a sweep racing a message
// handler is harmless.
func PollExpiredRewards(ctx context.Context, db *gorm.DB, rewards *services.RewardService, pollInterval time.Duration) {
	log.Println("Starting reward expiry sweep...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reward expiry sweep stopped.")
			return
		case <-ticker.C:
			now := time.Now()

			var overdue []models.Group
			err := db.Where("reward_active AND reward_expires_at <= ?", now).Find(&overdue).Error
			if err != nil {
				log.Printf("❌ Error sweeping expired rewards: %v", err)
				continue
			}
			if len(overdue) == 0 {
				continue
			}

			swept := 0
			for _, g := range overdue {
				if err := rewards.Deactivate(g.ID); err != nil {
					log.Printf("❌ Failed to retire expired reward in group %d: %v", g.ID, err)
					continue
				}
				swept++
			}
			log.Printf("✅ Retired %d expired reward(s).", swept)
		}
	}
}
