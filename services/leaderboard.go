package services

import (
	"context"
	"time"

	"questify/store"
)

const (
	PeriodAllTime = "all_time"
	PeriodWeekly  = "weekly"

	defaultBoardSize = 10
	maxBoardSize     = 100
)

type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Level      int    `json:"level"`
	XP         int64  `json:"xp"`
	StreakDays int    `json:"streak_days"`
}

type LeaderboardService struct {
	store store.Store
}

func NewLeaderboardService(st store.Store) *LeaderboardService {
	return &LeaderboardService{store: st}
}

// Board dispatches on period; unknown periods are rejected.
func (s *LeaderboardService) Board(ctx context.Context, period string, now time.Time, limit int) ([]LeaderboardEntry, error) {
	switch period {
	case "", PeriodAllTime:
		return s.AllTime(ctx, limit)
	case PeriodWeekly:
		return s.Weekly(ctx, now, limit)
	}
	return nil, invalid("unknown leaderboard period %q", period)
}

// AllTime ranks profiles by total XP.
func (s *LeaderboardService) AllTime(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	limit = clampLimit(limit, defaultBoardSize, maxBoardSize)
	profiles, err := s.store.Profiles().TopByXP(ctx, limit)
	if err != nil {
		return nil, storeErr("top profiles", err)
	}
	out := make([]LeaderboardEntry, 0, len(profiles))
	for i, p := range profiles {
		out = append(out, LeaderboardEntry{
			Rank:       i + 1,
			UserID:     p.ID,
			Username:   p.Username,
			Level:      p.Level,
			XP:         p.XP,
			StreakDays: p.StreakDays,
		})
	}
	return out, nil
}

// Weekly ranks users by XP logged in the seven days before now.
func (s *LeaderboardService) Weekly(ctx context.Context, now time.Time, limit int) ([]LeaderboardEntry, error) {
	limit = clampLimit(limit, defaultBoardSize, maxBoardSize)
	totals, err := s.store.ActivityLogs().XPSince(ctx, now.AddDate(0, 0, -7), limit)
	if err != nil {
		return nil, storeErr("weekly xp", err)
	}
	ids := make([]string, 0, len(totals))
	for _, t := range totals {
		ids = append(ids, t.UserID)
	}
	profiles, err := s.store.Profiles().GetMany(ctx, ids)
	if err != nil {
		return nil, storeErr("get profiles", err)
	}

	out := make([]LeaderboardEntry, 0, len(totals))
	for _, t := range totals {
		p, ok := profiles[t.UserID]
		if !ok {
			continue
		}
		out = append(out, LeaderboardEntry{
			Rank:       len(out) + 1,
			UserID:     t.UserID,
			Username:   p.Username,
			Level:      p.Level,
			XP:         t.XP,
			StreakDays: p.StreakDays,
		})
	}
	return out, nil
}
