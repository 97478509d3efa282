package models

import (
	"time"
)

type MissionStatus string

const (
	MissionNotStarted MissionStatus = "not_started"
	MissionInProgress MissionStatus = "in_progress"
	MissionCompleted  MissionStatus = "completed"
)

func (s MissionStatus) Valid() bool {
	switch s {
	case MissionNotStarted, MissionInProgress, MissionCompleted:
		return true
	}
	return false
}

// MissionProgress tracks one user's state on one mission.
type MissionProgress struct {
	ID          string        `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string        `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_mission,priority:1" json:"user_id"`
	MissionID   string        `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_mission,priority:2;index" json:"mission_id"`
	Status      MissionStatus `gorm:"type:varchar(16);not null;default:'not_started';index" json:"status"`
	Score       int           `gorm:"not null;default:0" json:"score"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`

	Timestamps
}

func (MissionProgress) TableName() string { return "user_progress" }

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
