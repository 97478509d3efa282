// Package store defines the persistence ports used by the progression core.
// Each entity gets its own narrow repository; implementations live in
// store/gormstore (postgres) and store/memstore (in-memory).
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"questify/models"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrConflict   = errors.New("record conflicts with an existing one")
	ErrConnection = errors.New("store unavailable")
)

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrConnection)
}

type Page struct {
	Limit  int
	Offset int
}

type (
	Profiles interface {
		Get(ctx context.Context, id string) (*models.Profile, error)
		// GetForUpdate reads the profile and locks it until the enclosing
		// transaction ends.
		GetForUpdate(ctx context.Context, id string) (*models.Profile, error)
		GetMany(ctx context.Context, ids []string) (map[string]models.Profile, error)
		Create(ctx context.Context, p *models.Profile) error
		// Upsert inserts p or refreshes username and avatar of an existing row.
		// ErrConflict when the username belongs to another profile.
		Upsert(ctx context.Context, p *models.Profile) error
		Save(ctx context.Context, p *models.Profile) error
		List(ctx context.Context, page Page) ([]models.Profile, error)
		TopByXP(ctx context.Context, limit int) ([]models.Profile, error)
		ResetDailyXP(ctx context.Context, id string) error
		ResetAllDailyXP(ctx context.Context) (int64, error)
	}

	Badges interface {
		Get(ctx context.Context, id string) (*models.Badge, error)
		List(ctx context.Context) ([]models.Badge, error)
		// Eligible returns badges whose XP gate is absent or at most xp.
		Eligible(ctx context.Context, xp int64) ([]models.Badge, error)
		Create(ctx context.Context, b *models.Badge) error
		Save(ctx context.Context, b *models.Badge) error
		Delete(ctx context.Context, id string) error
	}

	UserBadges interface {
		HeldBadgeIDs(ctx context.Context, userID string) (map[string]struct{}, error)
		// Award inserts ub unless the (user, badge) pair already exists.
		// It reports whether a row was inserted.
		Award(ctx context.Context, ub *models.UserBadge) (bool, error)
		ListByUser(ctx context.Context, userID string) ([]models.UserBadge, error)
	}

	ActivityLogs interface {
		Append(ctx context.Context, l *models.ActivityLog) error
		ListByUser(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error)
		// XPSince sums xp_gained per user for entries created at or after since,
		// highest first.
		XPSince(ctx context.Context, since time.Time, limit int) ([]XPTotal, error)
	}

	Missions interface {
		Get(ctx context.Context, id string) (*models.Mission, error)
	}

	MissionProgress interface {
		Get(ctx context.Context, userID, missionID string) (*models.MissionProgress, error)
		// Save inserts or updates the row keyed by (user, mission).
		Save(ctx context.Context, p *models.MissionProgress) error
		ListByUser(ctx context.Context, userID string) ([]models.MissionProgress, error)
	}

	// Store groups the repositories. Transaction runs fn against a Store
	// bound to one transaction; fn's error rolls everything back.
	Store interface {
		Profiles() Profiles
		Badges() Badges
		UserBadges() UserBadges
		ActivityLogs() ActivityLogs
		Missions() Missions
		MissionProgress() MissionProgress
		Transaction(ctx context.Context, fn func(tx Store) error) error
	}
)

type XPTotal struct {
	UserID string
	XP     int64
}
