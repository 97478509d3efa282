package models

import "time"

// Activity action tags.
const (
	ActionReachedLevel     = "reached_level"
	ActionEarnedBadge      = "earned_badge"
	ActionCompletedMission = "completed_mission"
)

// ActivityLog is append-only: never updated after creation.
type ActivityLog struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index:idx_activity_user_created,priority:1" json:"user_id"`
	Action    string    `gorm:"type:varchar(32);not null" json:"action"`
	Detail    string    `json:"detail,omitempty"`
	XPGained  int64     `gorm:"column:xp_gained;not null;default:0" json:"xp_gained"`
	CreatedAt time.Time `gorm:"not null;index:idx_activity_user_created,priority:2;index" json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_logs" }
