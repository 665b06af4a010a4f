// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"moodquest/models"

	"github.com/go-co-op/gocron/v2"
)

// StartStreakReminders nudges users whose streak is about to break: anyone
// whose last activity was yesterday gets an evening reminder push. The job
// runs daily at 18:00 server time and is read-only with respect to the ledger.
func (s *PushService) StartStreakReminders() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(18, 0, 0))),
		gocron.NewTask(func() {
			if !s.Enabled() {
				return
			}
			now := time.Now()
			startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			startOfYesterday := startOfToday.AddDate(0, 0, -1)

			var atRisk []models.UserProgress
			err := s.DB.Where("streak > 0 AND last_activity >= ? AND last_activity < ?",
				startOfYesterday, startOfToday).
				Find(&atRisk).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, prog := range atRisk {
				payload := PushPayload{
					Title: "Your streak is at risk! 🔥",
					Body:  "Check in today to keep your streak alive.",
				}
				if err := s.NotifyUser(context.Background(), prog.ExternalUserID, payload); err != nil {
					log.Printf("[Scheduler] Failed to notify %s: %v", prog.ExternalUserID, err)
				}
			}
			if len(atRisk) > 0 {
				log.Printf("✅ Streak reminders dispatched to %d user(s)", len(atRisk))
			}
		}),
	)
}
