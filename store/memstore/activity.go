package memstore

import (
	"context"
	"sort"
	"time"

	"questify/models"
	"questify/store"
)

type activityLogs struct{ s *Store }

func (r activityLogs) Append(_ context.Context, l *models.ActivityLog) error {
	return r.s.do("activity_logs.append", func(t *tables) error {
		if l.CreatedAt.IsZero() {
			l.CreatedAt = r.s.now()
		}
		t.logs = append(t.logs, *l)
		return nil
	})
}

func (r activityLogs) ListByUser(_ context.Context, userID string, limit int) ([]models.ActivityLog, error) {
	var out []models.ActivityLog
	err := r.s.do("activity_logs.list", func(t *tables) error {
		out = make([]models.ActivityLog, 0)
		// newest first; later appends win ties
		for i := len(t.logs) - 1; i >= 0; i-- {
			if t.logs[i].UserID == userID {
				out = append(out, t.logs[i])
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
		out = paginate(out, store.Page{Limit: limit})
		return nil
	})
	return out, err
}

func (r activityLogs) XPSince(_ context.Context, since time.Time, limit int) ([]store.XPTotal, error) {
	var out []store.XPTotal
	err := r.s.do("activity_logs.xp_since", func(t *tables) error {
		sums := make(map[string]int64)
		for _, l := range t.logs {
			if l.CreatedAt.Before(since) {
				continue
			}
			sums[l.UserID] += l.XPGained
		}
		out = make([]store.XPTotal, 0, len(sums))
		for id, xp := range sums {
			if xp <= 0 {
				continue
			}
			out = append(out, store.XPTotal{UserID: id, XP: xp})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].XP != out[j].XP {
				return out[i].XP > out[j].XP
			}
			return out[i].UserID < out[j].UserID
		})
		out = paginate(out, store.Page{Limit: limit})
		return nil
	})
	return out, err
}
