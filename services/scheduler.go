// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
)

// StartDailyResetScheduler zeroes every profile's daily XP on cronExpr
// (standard five-field cron) in loc. The caller owns the returned scheduler
// and must Shutdown it.
func (s *ProgressionService) StartDailyResetScheduler(cronExpr string, loc *time.Location) (gocron.Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	sched, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, errors.Wrap(err, "create scheduler")
	}

	_, err = sched.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			s.RunDailyReset(ctx)
		}),
		gocron.WithName("daily-xp-reset"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, errors.Wrapf(err, "schedule daily reset %q", cronExpr)
	}

	sched.Start()
	log.Printf("⏰ [Scheduler] Daily XP reset scheduled: %q (%s)", cronExpr, loc)
	return sched, nil
}

// RunDailyReset is one scheduled run. Errors are logged, not returned.
func (s *ProgressionService) RunDailyReset(ctx context.Context) {
	n, err := s.ResetAllDailyXP(ctx)
	if err != nil {
		log.Printf("[Scheduler] Daily XP reset failed: %v", err)
		return
	}
	log.Printf("✅ Daily XP reset: %d profiles", n)
}
