package gormstore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"questify/models"
	"questify/store"
)

type badges struct{ db *gorm.DB }

func (r badges) Get(ctx context.Context, id string) (*models.Badge, error) {
	var b models.Badge
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &b, nil
}

func (r badges) List(ctx context.Context) ([]models.Badge, error) {
	var out []models.Badge
	if err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&out).Error; err != nil {
		return nil, TranslateError(err)
	}
	return out, nil
}

func (r badges) Eligible(ctx context.Context, xp int64) ([]models.Badge, error) {
	var out []models.Badge
	err := r.db.WithContext(ctx).
		Where("required_xp IS NULL OR required_xp <= ?", xp).
		Order("name ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return out, nil
}

func (r badges) Create(ctx context.Context, b *models.Badge) error {
	return TranslateError(r.db.WithContext(ctx).Create(b).Error)
}

func (r badges) Save(ctx context.Context, b *models.Badge) error {
	res := r.db.WithContext(ctx).Model(b).Select("*").Omit("created_at").Updates(b)
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes the badge and every award of it.
func (r badges) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("badge_id = ?", id).Delete(&models.UserBadge{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Badge{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return TranslateError(err)
}

type userBadges struct{ db *gorm.DB }

func (r userBadges) HeldBadgeIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.UserBadge{}).
		Where("user_id = ?", userID).
		Pluck("badge_id", &ids).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	held := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		held[id] = struct{}{}
	}
	return held, nil
}

func (r userBadges) Award(ctx context.Context, ub *models.UserBadge) (bool, error) {
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
			DoNothing: true,
		}).
		Create(ub)
	if res.Error != nil {
		return false, TranslateError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r userBadges) ListByUser(ctx context.Context, userID string) ([]models.UserBadge, error) {
	var out []models.UserBadge
	err := r.db.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("earned_at DESC, badge_id ASC").
		Find(&out).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return out, nil
}
