package models

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Profile is the per-user progression record. Created once at registration
// (by the profile sync worker or on first authenticated request) and mutated
// by the progression service on every XP-earning event and activity tick.
type Profile struct {
	ID        string  `gorm:"primaryKey;type:uuid" json:"id"`
	Username  string  `gorm:"uniqueIndex;not null" json:"username"`
	AvatarURL *string `json:"avatar_url,omitempty"`

	// Core progression
	XP         int64 `gorm:"column:xp;not null;default:0" json:"xp"`
	DailyXP    int64 `gorm:"column:daily_xp;not null;default:0" json:"daily_xp"`
	DailyGoal  int64 `gorm:"not null;default:50" json:"daily_goal"`
	Level      int   `gorm:"not null;default:1" json:"level"`
	StreakDays int   `gorm:"not null;default:0" json:"streak_days"`

	LastActivity *time.Time `gorm:"index" json:"last_activity,omitempty"`
	Role         Role       `gorm:"type:varchar(16);not null;default:'user'" json:"role"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// RemoteProfile mirrors an account record served by the account service.
// Used by the profile sync worker.
type RemoteProfile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
