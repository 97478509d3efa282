package gormstore

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"questify/models"
	"questify/store"
)

type activityLogs struct{ db *gorm.DB }

func (r activityLogs) Append(ctx context.Context, l *models.ActivityLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	return TranslateError(r.db.WithContext(ctx).Create(l).Error)
}

func (r activityLogs) ListByUser(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error) {
	var out []models.ActivityLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return out, nil
}

func (r activityLogs) XPSince(ctx context.Context, since time.Time, limit int) ([]store.XPTotal, error) {
	var out []store.XPTotal
	err := r.db.WithContext(ctx).Model(&models.ActivityLog{}).
		Select("user_id, SUM(xp_gained) AS xp").
		Where("created_at >= ?", since).
		Group("user_id").
		Having("SUM(xp_gained) > 0").
		Order("xp DESC, user_id ASC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return out, nil
}

type missions struct{ db *gorm.DB }

func (r missions) Get(ctx context.Context, id string) (*models.Mission, error) {
	var m models.Mission
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &m, nil
}

type missionProgress struct{ db *gorm.DB }

func (r missionProgress) Get(ctx context.Context, userID, missionID string) (*models.MissionProgress, error) {
	var p models.MissionProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND mission_id = ?", userID, missionID).
		First(&p).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return &p, nil
}

func (r missionProgress) Save(ctx context.Context, p *models.MissionProgress) error {
	err := r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "mission_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "score", "completed_at", "updated_at"}),
		},
		clause.Returning{},
	).Create(p).Error
	return TranslateError(err)
}

func (r missionProgress) ListByUser(ctx context.Context, userID string) ([]models.MissionProgress, error) {
	var out []models.MissionProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC, mission_id ASC").
		Find(&out).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return out, nil
}
