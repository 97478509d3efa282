package services

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"questify/models"
	"questify/store"
)

const (
	defaultFeedLimit = 10
	maxFeedLimit     = 100
	defaultPageSize  = 20
	maxPageSize      = 100
)

type UserService struct {
	store            store.Store
	badges           *BadgeService
	defaultDailyGoal int64
}

func NewUserService(st store.Store, badges *BadgeService, defaultDailyGoal int64) *UserService {
	if defaultDailyGoal <= 0 {
		defaultDailyGoal = 50
	}
	return &UserService{store: st, badges: badges, defaultDailyGoal: defaultDailyGoal}
}

func (s *UserService) Get(ctx context.Context, id string) (*models.Profile, error) {
	p, err := s.store.Profiles().Get(ctx, id)
	if err != nil {
		return nil, storeErr("get profile", err)
	}
	return p, nil
}

type NewProfile struct {
	ID        string  `json:"id" validate:"required,uuid"`
	Username  string  `json:"username" validate:"notblank,max=32"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

// Create registers a fresh profile at level 1 with no XP.
func (s *UserService) Create(ctx context.Context, in NewProfile) (*models.Profile, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	p := &models.Profile{
		ID:        in.ID,
		Username:  strings.TrimSpace(in.Username),
		AvatarURL: in.AvatarURL,
		Level:     1,
		DailyGoal: s.defaultDailyGoal,
		Role:      models.RoleUser,
	}
	if err := s.store.Profiles().Create(ctx, p); err != nil {
		return nil, storeErr("create profile", err)
	}
	log.Printf("👤 [USERS] Created profile %s (%s)", p.Username, p.ID)
	return p, nil
}

// Ensure returns the profile, creating it on first sight. When username is
// taken (or empty) a name derived from the id is used instead.
func (s *UserService) Ensure(ctx context.Context, id, username string) (*models.Profile, error) {
	p, err := s.store.Profiles().Get(ctx, id)
	if err == nil {
		return p, nil
	}
	if !IsNotFound(err) {
		return nil, storeErr("get profile", err)
	}

	fallback := "user-" + shortID(id)
	if strings.TrimSpace(username) == "" {
		username = fallback
	}
	p, err = s.Create(ctx, NewProfile{ID: id, Username: username})
	if IsConflict(err) {
		// Either a concurrent request created the row or the name is taken.
		if existing, getErr := s.store.Profiles().Get(ctx, id); getErr == nil {
			return existing, nil
		}
		if username != fallback {
			p, err = s.Create(ctx, NewProfile{ID: id, Username: fallback})
		}
	}
	return p, err
}

// Sync applies profiles fetched from the account service. Progression fields
// of existing rows are left alone.
func (s *UserService) Sync(ctx context.Context, remote []models.RemoteProfile) (int, error) {
	n := 0
	for _, r := range remote {
		if r.ID == "" || strings.TrimSpace(r.Username) == "" {
			continue
		}
		if _, err := uuid.Parse(r.ID); err != nil {
			log.Printf("⚠️  [USERS] Skipping remote profile %q: id is not a uuid", r.ID)
			continue
		}
		p := &models.Profile{
			ID:        r.ID,
			Username:  strings.TrimSpace(r.Username),
			AvatarURL: r.AvatarURL,
			Level:     1,
			DailyGoal: s.defaultDailyGoal,
			Role:      models.RoleUser,
			CreatedAt: r.CreatedAt,
		}
		if err := s.store.Profiles().Upsert(ctx, p); err != nil {
			if IsConflict(err) {
				log.Printf("⚠️  [USERS] Skipping %s: username %q already taken", r.ID, r.Username)
				continue
			}
			return n, storeErr("upsert profile", err)
		}
		n++
	}
	return n, nil
}

type ProfileUpdate struct {
	Username  *string `json:"username" validate:"omitempty,notblank,max=32"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
	DailyGoal *int64  `json:"daily_goal" validate:"omitempty,min=1,max=100000"`
}

// Update changes the user-editable fields. Progression fields are not
// editable here.
func (s *UserService) Update(ctx context.Context, id string, in ProfileUpdate) (*models.Profile, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	var out *models.Profile
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		p, err := tx.Profiles().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if in.Username != nil {
			p.Username = strings.TrimSpace(*in.Username)
		}
		if in.AvatarURL != nil {
			p.AvatarURL = in.AvatarURL
		}
		if in.DailyGoal != nil {
			p.DailyGoal = *in.DailyGoal
		}
		if err := tx.Profiles().Save(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, storeErr("update profile", err)
	}
	return out, nil
}

func (s *UserService) SetRole(ctx context.Context, id string, role models.Role) (*models.Profile, error) {
	if !role.Valid() {
		return nil, invalid("unknown role %q", role)
	}
	var out *models.Profile
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		p, err := tx.Profiles().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		p.Role = role
		if err := tx.Profiles().Save(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, storeErr("set role", err)
	}
	log.Printf("🛡️ [USERS] %s is now %s", id, role)
	return out, nil
}

// List returns profiles newest first. page starts at 1.
func (s *UserService) List(ctx context.Context, page, size int) ([]models.Profile, error) {
	if page < 1 {
		page = 1
	}
	size = clampLimit(size, defaultPageSize, maxPageSize)
	out, err := s.store.Profiles().List(ctx, store.Page{Limit: size, Offset: (page - 1) * size})
	if err != nil {
		return nil, storeErr("list profiles", err)
	}
	return out, nil
}

// ActivityFeed returns the user's most recent activity, newest first.
func (s *UserService) ActivityFeed(ctx context.Context, id string, limit int) ([]models.ActivityLog, error) {
	limit = clampLimit(limit, defaultFeedLimit, maxFeedLimit)
	out, err := s.store.ActivityLogs().ListByUser(ctx, id, limit)
	if err != nil {
		return nil, storeErr("list activity", err)
	}
	return out, nil
}

func (s *UserService) Badges(ctx context.Context, id string) ([]models.UserBadge, error) {
	return s.badges.Earned(ctx, id)
}

// Overview is the profile with its XP bar and daily goal.
type Overview struct {
	Profile   *models.Profile   `json:"profile"`
	Level     LevelProgress     `json:"level"`
	DailyGoal DailyGoalProgress `json:"daily_goal"`
}

func (s *UserService) Overview(ctx context.Context, id string) (*Overview, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Overview{
		Profile:   p,
		Level:     NewLevelProgress(p.XP, p.Level),
		DailyGoal: NewDailyGoalProgress(p.DailyXP, p.DailyGoal),
	}, nil
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
