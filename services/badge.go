package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"questify/models"
	"questify/store"
	"questify/utils"
)

type BadgeService struct {
	run *runner
}

func NewBadgeService(st store.Store, opts Options) *BadgeService {
	return &BadgeService{run: newRunner(st, opts)}
}

// EvaluateAndAwardBadges awards every badge the user is eligible for and does
// not hold yet. It returns the new badges, ordered by name. The whole
// evaluation is one transaction: a failure awards nothing.
func (s *BadgeService) EvaluateAndAwardBadges(ctx context.Context, userID string) ([]models.Badge, error) {
	if userID == "" {
		return nil, invalid("user id is required")
	}

	var (
		awarded []models.Badge
		logs    []models.ActivityLog
	)
	err := s.run.transact(ctx, "evaluate_badges", func(tx store.Store) error {
		var err error
		awarded, logs, err = s.awardTx(ctx, tx, userID, s.run.clock())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.run.metrics.BadgesAwarded(len(awarded))
	s.run.publish(ctx, logs)
	for _, b := range awarded {
		log.Printf("🎖️ [BADGES] Badge awarded: %s → %s", b.Name, userID)
	}
	return awarded, nil
}

func (s *BadgeService) awardTx(ctx context.Context, tx store.Store, userID string, now time.Time) ([]models.Badge, []models.ActivityLog, error) {
	p, err := tx.Profiles().GetForUpdate(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	eligible, err := tx.Badges().Eligible(ctx, p.XP)
	if err != nil {
		return nil, nil, err
	}
	held, err := tx.UserBadges().HeldBadgeIDs(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	awarded := make([]models.Badge, 0)
	var logs []models.ActivityLog
	for _, b := range eligible {
		if _, ok := held[b.ID]; ok || !b.EligibleAt(p.XP) {
			continue
		}
		created, err := tx.UserBadges().Award(ctx, &models.UserBadge{
			ID:       uuid.NewString(),
			UserID:   userID,
			BadgeID:  b.ID,
			EarnedAt: now,
		})
		if err != nil {
			return nil, nil, err
		}
		if !created {
			continue
		}
		entry := newActivityLog(userID, models.ActionEarnedBadge, b.Name, 0, now)
		if err := tx.ActivityLogs().Append(ctx, &entry); err != nil {
			return nil, nil, err
		}
		awarded = append(awarded, b)
		logs = append(logs, entry)
	}
	return awarded, logs, nil
}

// Earned lists the user's badges with their definitions.
func (s *BadgeService) Earned(ctx context.Context, userID string) ([]models.UserBadge, error) {
	out, err := s.run.store.UserBadges().ListByUser(ctx, userID)
	if err != nil {
		return nil, storeErr("list user badges", err)
	}
	return out, nil
}

type BadgeInput struct {
	Code              string  `json:"code" validate:"omitempty,max=64"`
	Name              string  `json:"name" validate:"notblank,max=100"`
	Description       string  `json:"description" validate:"max=500"`
	Icon              string  `json:"icon" validate:"max=200"`
	RequiredXP        *int64  `json:"required_xp" validate:"omitempty,min=0"`
	RequiredMissionID *string `json:"required_mission_id" validate:"omitempty,uuid"`
}

func (in BadgeInput) apply(b *models.Badge) {
	b.Name = strings.TrimSpace(in.Name)
	b.Code = strings.TrimSpace(in.Code)
	if b.Code == "" {
		b.Code = utils.Slugify(b.Name)
	}
	b.Description = in.Description
	b.Icon = in.Icon
	b.RequiredXP = in.RequiredXP
	b.RequiredMissionID = in.RequiredMissionID
}

func (s *BadgeService) List(ctx context.Context) ([]models.Badge, error) {
	out, err := s.run.store.Badges().List(ctx)
	if err != nil {
		return nil, storeErr("list badges", err)
	}
	return out, nil
}

func (s *BadgeService) Get(ctx context.Context, id string) (*models.Badge, error) {
	b, err := s.run.store.Badges().Get(ctx, id)
	if err != nil {
		return nil, storeErr("get badge", err)
	}
	return b, nil
}

// Create adds a badge definition. The code defaults to a slug of the name.
func (s *BadgeService) Create(ctx context.Context, in BadgeInput) (*models.Badge, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	b := &models.Badge{ID: uuid.NewString(), CreatedAt: s.run.clock()}
	in.apply(b)
	if err := s.run.store.Badges().Create(ctx, b); err != nil {
		return nil, storeErr("create badge", err)
	}
	log.Printf("✅ [BADGES] Created badge %s (%s)", b.Name, b.Code)
	return b, nil
}

func (s *BadgeService) Update(ctx context.Context, id string, in BadgeInput) (*models.Badge, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	b, err := s.run.store.Badges().Get(ctx, id)
	if err != nil {
		return nil, storeErr("get badge", err)
	}
	in.apply(b)
	if err := s.run.store.Badges().Save(ctx, b); err != nil {
		return nil, storeErr("update badge", err)
	}
	return b, nil
}

// Delete removes the badge and revokes it from every holder.
func (s *BadgeService) Delete(ctx context.Context, id string) error {
	return storeErr("delete badge", s.run.store.Badges().Delete(ctx, id))
}

// Upsert creates the badge or overwrites the definition with the same code. Used by
// catalog seeding.
func (s *BadgeService) Upsert(ctx context.Context, in BadgeInput) (*models.Badge, bool, error) {
	if err := validate(in); err != nil {
		return nil, false, err
	}
	var probe models.Badge
	in.apply(&probe)

	existing, err := s.run.store.Badges().List(ctx)
	if err != nil {
		return nil, false, storeErr("list badges", err)
	}
	for i := range existing {
		if existing[i].Code != probe.Code {
			continue
		}
		b := &existing[i]
		in.apply(b)
		if err := s.run.store.Badges().Save(ctx, b); err != nil {
			return nil, false, storeErr("update badge", err)
		}
		return b, false, nil
	}
	b, err := s.Create(ctx, in)
	return b, err == nil, err
}
