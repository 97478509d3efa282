package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"questify/metrics"
	"questify/models"
	"questify/store"
)

// ActivitySink receives every activity log after its transaction commits.
type ActivitySink interface {
	Publish(ctx context.Context, l models.ActivityLog) error
}

// Options are shared by the progression, badge and mission services.
type Options struct {
	Sink    ActivitySink
	Metrics *metrics.Recorder
	Retry   RetryConfig
	Streak  StreakPolicy
	// Now defaults to time.Now.
	Now func() time.Time
}

func newRunner(st store.Store, opts Options) *runner {
	retry := opts.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryConfig()
	}
	return &runner{store: st, sink: opts.Sink, metrics: opts.Metrics, retry: retry, now: opts.Now}
}

// publish forwards committed activity to the sink. Failures are logged and
// counted, never returned: the progression change already happened.
func (r *runner) publish(ctx context.Context, logs []models.ActivityLog) {
	if r.sink == nil {
		return
	}
	for _, l := range logs {
		if err := r.sink.Publish(ctx, l); err != nil {
			log.Printf("⚠️  [ACTIVITY] failed to publish %s for %s: %v", l.Action, l.UserID, err)
			r.metrics.SinkFailure()
		}
	}
}

func newActivityLog(userID, action, detail string, xp int64, at time.Time) models.ActivityLog {
	return models.ActivityLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		Detail:    detail,
		XPGained:  xp,
		CreatedAt: at,
	}
}

type ProgressionService struct {
	run    *runner
	streak StreakPolicy
}

func NewProgressionService(st store.Store, opts Options) *ProgressionService {
	return &ProgressionService{run: newRunner(st, opts), streak: opts.Streak}
}

// Now is the service clock.
func (s *ProgressionService) Now() time.Time { return s.run.clock() }

type GrantResult struct {
	Profile       *models.Profile `json:"profile"`
	LevelsReached []int           `json:"levels_reached"`
}

// GrantXP adds amount to the profile's total and daily XP and levels it up.
// One reached_level entry is logged per level reached.
func (s *ProgressionService) GrantXP(ctx context.Context, userID string, amount int64, reason string) (*GrantResult, error) {
	if amount < 0 {
		return nil, invalid("xp amount must not be negative, got %d", amount)
	}
	if userID == "" {
		return nil, invalid("user id is required")
	}

	var (
		res  *GrantResult
		logs []models.ActivityLog
	)
	err := s.run.transact(ctx, "grant_xp", func(tx store.Store) error {
		var err error
		res, logs, err = s.grantXPTx(ctx, tx, userID, amount, s.run.clock())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.run.metrics.XPGranted(amount)
	s.run.metrics.LevelUps(len(res.LevelsReached))
	s.run.publish(ctx, logs)

	log.Printf("🎮 [PROGRESSION] XP granted: %s +%d → XP=%d, Lvl=%d (reason: %s)",
		userID, amount, res.Profile.XP, res.Profile.Level, reason)
	return res, nil
}

func (s *ProgressionService) grantXPTx(ctx context.Context, tx store.Store, userID string, amount int64, now time.Time) (*GrantResult, []models.ActivityLog, error) {
	p, err := tx.Profiles().GetForUpdate(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if amount > math.MaxInt64-p.XP || amount > math.MaxInt64-p.DailyXP {
		return nil, nil, invalid("xp grant of %d overflows the total of user %s", amount, userID)
	}

	p.XP += amount
	p.DailyXP += amount
	reached := advanceLevel(p)

	if err := tx.Profiles().Save(ctx, p); err != nil {
		return nil, nil, err
	}

	logs := make([]models.ActivityLog, 0, len(reached))
	for _, level := range reached {
		entry := newActivityLog(userID, models.ActionReachedLevel, fmt.Sprintf("Level %d", level), 0, now)
		if err := tx.ActivityLogs().Append(ctx, &entry); err != nil {
			return nil, nil, err
		}
		logs = append(logs, entry)
	}
	return &GrantResult{Profile: p, LevelsReached: reached}, logs, nil
}

// ResetDailyXP zeroes one profile's daily XP. Safe to repeat.
func (s *ProgressionService) ResetDailyXP(ctx context.Context, userID string) error {
	return s.run.retryOp(ctx, "reset_daily_xp", func() error {
		return s.run.store.Profiles().ResetDailyXP(ctx, userID)
	})
}

// ResetAllDailyXP zeroes daily XP for every profile and returns how many rows
// changed.
func (s *ProgressionService) ResetAllDailyXP(ctx context.Context) (int64, error) {
	var n int64
	err := s.run.retryOp(ctx, "reset_all_daily_xp", func() error {
		var err error
		n, err = s.run.store.Profiles().ResetAllDailyXP(ctx)
		return err
	})
	s.run.metrics.DailyReset(err)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// UpdateStreak records an activity at now and returns the new streak.
func (s *ProgressionService) UpdateStreak(ctx context.Context, userID string, now time.Time) (int, error) {
	if now.IsZero() {
		return 0, invalid("activity time is required")
	}

	var (
		streak  int
		outcome StreakOutcome
	)
	err := s.run.transact(ctx, "update_streak", func(tx store.Store) error {
		var err error
		streak, outcome, err = s.updateStreakTx(ctx, tx, userID, now)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.run.metrics.StreakUpdated(string(outcome))
	return streak, nil
}

func (s *ProgressionService) updateStreakTx(ctx context.Context, tx store.Store, userID string, now time.Time) (int, StreakOutcome, error) {
	p, err := tx.Profiles().GetForUpdate(ctx, userID)
	if err != nil {
		return 0, "", err
	}
	streak, outcome := NextStreak(p.LastActivity, now, p.StreakDays, s.streak)
	p.StreakDays = streak
	at := now
	p.LastActivity = &at
	if err := tx.Profiles().Save(ctx, p); err != nil {
		return 0, "", err
	}
	return streak, outcome, nil
}
