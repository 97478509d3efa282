package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"questify/models"
	"questify/store/gormstore"
)

type ReportService struct {
	DB *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{DB: db}
}

type UserStats struct {
	TotalUsers        int64 `json:"total_users"`
	ActiveUsers       int64 `json:"active_users"`
	CompletedMissions int64 `json:"completed_missions"`
}

// UserStats counts users, users active in the seven days before now, and
// completed missions.
func (s *ReportService) UserStats(ctx context.Context, now time.Time) (*UserStats, error) {
	db := s.DB.WithContext(ctx)
	var st UserStats
	if err := db.Model(&models.Profile{}).Count(&st.TotalUsers).Error; err != nil {
		return nil, storeErr("count users", gormstore.TranslateError(err))
	}
	err := db.Model(&models.Profile{}).
		Where("last_activity > ?", now.AddDate(0, 0, -7)).
		Count(&st.ActiveUsers).Error
	if err != nil {
		return nil, storeErr("count active users", gormstore.TranslateError(err))
	}
	err = db.Model(&models.MissionProgress{}).
		Where("status = ?", models.MissionCompleted).
		Count(&st.CompletedMissions).Error
	if err != nil {
		return nil, storeErr("count completed missions", gormstore.TranslateError(err))
	}
	return &st, nil
}

type MissionStats struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	XPReward        int64  `json:"xp_reward"`
	CompletedCount  int64  `json:"completed_count"`
	InProgressCount int64  `json:"in_progress_count"`
	NotStartedCount int64  `json:"not_started_count"`
	TotalCount      int64  `json:"total_count"`
}

type missionStatusCount struct {
	MissionID string
	Status    models.MissionStatus
	Count     int64
}

// MissionCompletionStats returns progress counts per mission, by status.
func (s *ReportService) MissionCompletionStats(ctx context.Context) ([]MissionStats, error) {
	db := s.DB.WithContext(ctx)

	var missions []models.Mission
	if err := db.Order("name ASC, id ASC").Find(&missions).Error; err != nil {
		return nil, storeErr("list missions", gormstore.TranslateError(err))
	}
	var counts []missionStatusCount
	err := db.Model(&models.MissionProgress{}).
		Select("mission_id, status, COUNT(*) AS count").
		Group("mission_id, status").
		Scan(&counts).Error
	if err != nil {
		return nil, storeErr("count mission progress", gormstore.TranslateError(err))
	}
	return summarizeMissionStats(missions, counts), nil
}

func summarizeMissionStats(missions []models.Mission, counts []missionStatusCount) []MissionStats {
	byID := make(map[string]*MissionStats, len(missions))
	out := make([]MissionStats, len(missions))
	for i, m := range missions {
		out[i] = MissionStats{ID: m.ID, Name: m.Name, XPReward: m.XPReward}
		byID[m.ID] = &out[i]
	}
	for _, c := range counts {
		st, ok := byID[c.MissionID]
		if !ok {
			continue
		}
		switch c.Status {
		case models.MissionCompleted:
			st.CompletedCount += c.Count
		case models.MissionInProgress:
			st.InProgressCount += c.Count
		case models.MissionNotStarted:
			st.NotStartedCount += c.Count
		default:
			continue
		}
		st.TotalCount += c.Count
	}
	return out
}
