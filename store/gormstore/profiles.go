package gormstore

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"questify/models"
	"questify/store"
)

type profiles struct{ db *gorm.DB }

func (r profiles) Get(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &p, nil
}

func (r profiles) GetForUpdate(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return &p, nil
}

func (r profiles) GetMany(ctx context.Context, ids []string) (map[string]models.Profile, error) {
	out := make(map[string]models.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Profile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, TranslateError(err)
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r profiles) Create(ctx context.Context, p *models.Profile) error {
	return TranslateError(r.db.WithContext(ctx).Create(p).Error)
}

func (r profiles) Upsert(ctx context.Context, p *models.Profile) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "avatar_url", "updated_at"}),
	}).Create(p).Error
	return TranslateError(err)
}

func (r profiles) Save(ctx context.Context, p *models.Profile) error {
	res := r.db.WithContext(ctx).Model(p).Select("*").Omit("created_at").Updates(p)
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r profiles) List(ctx context.Context, page store.Page) ([]models.Profile, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC, id ASC")
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	var out []models.Profile
	if err := q.Find(&out).Error; err != nil {
		return nil, TranslateError(err)
	}
	return out, nil
}

func (r profiles) TopByXP(ctx context.Context, limit int) ([]models.Profile, error) {
	var out []models.Profile
	err := r.db.WithContext(ctx).
		Order("xp DESC, username ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return out, nil
}

func (r profiles) ResetDailyXP(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"daily_xp": 0, "updated_at": time.Now()})
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r profiles) ResetAllDailyXP(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("daily_xp <> 0").
		Updates(map[string]interface{}{"daily_xp": 0, "updated_at": time.Now()})
	if res.Error != nil {
		return 0, TranslateError(res.Error)
	}
	return res.RowsAffected, nil
}
