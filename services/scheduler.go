// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartBroadcastScheduler polls for due notifications once a minute and
// delivers each exactly once: the row is marked expired after the send
// attempt regardless of per-recipient failures, so a flaky recipient can
// not make the whole broadcast re-fire.
func (s *NotificationService) StartBroadcastScheduler() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	sched.Start()

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			due, err := s.Due(time.Now())
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, n := range due {
				failures := s.Broadcast(n)
				if err := s.MarkExpired(n.ID); err != nil {
					log.Printf("[Scheduler] Failed to expire notification %s: %v", n.ID, err)
					continue
				}
				if len(failures) > 0 {
					log.Printf("[Scheduler] Delivered notification %s with %d failed recipient(s)", n.ID, len(failures))
				} else {
					log.Printf("✅ Delivered notification %s", n.ID)
				}
			}
		}),
	)
	if err != nil {
		return nil, err
	}
	return sched, nil
}
