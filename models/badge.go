package models

import (
	"time"
)

// Badge is an achievement definition. A nil RequiredXP means no XP gate:
// the badge is eligible for every user who does not hold it yet.
type Badge struct {
	ID                string  `gorm:"primaryKey;type:uuid" json:"id"`
	Code              string  `gorm:"uniqueIndex;not null" json:"code"` // e.g., "first-steps"
	Name              string  `gorm:"not null" json:"name"`
	Description       string  `json:"description,omitempty"`
	Icon              string  `gorm:"type:text" json:"icon"`
	RequiredXP        *int64  `gorm:"column:required_xp;index" json:"required_xp"`
	RequiredMissionID *string `gorm:"type:uuid" json:"required_mission_id,omitempty"` // not used by eligibility yet

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Badge) TableName() string { return "badges" }

// EligibleAt reports whether the badge's XP gate is satisfied by xp.
func (b Badge) EligibleAt(xp int64) bool {
	return b.RequiredXP == nil || *b.RequiredXP <= xp
}

// UserBadge is an awarded badge. At most one per (user, badge).
type UserBadge struct {
	ID       string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge,priority:1" json:"user_id"`
	BadgeID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge,priority:2;index" json:"badge_id"`
	EarnedAt time.Time `gorm:"not null" json:"earned_at"`

	Badge *Badge `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
}

func (UserBadge) TableName() string { return "user_badges" }
