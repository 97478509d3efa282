// models/catalog.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

type SkillTrack struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string  `gorm:"not null" json:"name"`
	Slug        string  `gorm:"uniqueIndex;not null" json:"slug"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	Active      bool    `gorm:"not null;default:true;index" json:"active"`

	Timestamps
}

func (SkillTrack) TableName() string { return "skill_tracks" }

type Mission struct {
	ID            string     `gorm:"primaryKey;type:uuid" json:"id"`
	TrackID       string     `gorm:"type:uuid;not null;index" json:"track_id"`
	Name          string     `gorm:"not null" json:"name"`
	Description   *string    `json:"description,omitempty"`
	Difficulty    Difficulty `gorm:"type:varchar(16);not null;default:'beginner'" json:"difficulty"`
	XPReward      int64      `gorm:"column:xp_reward;not null;default:0" json:"xp_reward"`
	EstimatedTime *string    `json:"estimated_time,omitempty"`
	Published     bool       `gorm:"not null;default:false;index" json:"published"`

	Track *SkillTrack `gorm:"foreignKey:TrackID" json:"skill_track,omitempty"`

	Timestamps
}

func (Mission) TableName() string { return "missions" }

// QuestionOption is one multiple-choice answer.
type QuestionOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionOptions is stored as a jsonb column.
type QuestionOptions []QuestionOption

func (o QuestionOptions) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (o *QuestionOptions) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*o = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for question options", src)
	}
	return json.Unmarshal(raw, o)
}

type Question struct {
	ID            string          `gorm:"primaryKey;type:uuid" json:"id"`
	MissionID     string          `gorm:"type:uuid;not null;index" json:"mission_id"`
	Question      string          `gorm:"not null" json:"question"`
	Options       QuestionOptions `gorm:"type:jsonb" json:"options"`
	CorrectAnswer string          `gorm:"not null" json:"correct_answer"`
	Explanation   *string         `json:"explanation,omitempty"`

	Timestamps
}

func (Question) TableName() string { return "questions" }

type LearningContent struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string  `gorm:"not null" json:"title"`
	Description *string `json:"description,omitempty"`
	ContentType string  `gorm:"type:varchar(32);not null" json:"content_type"`
	URL         *string `json:"url,omitempty"`
	TrackID     *string `gorm:"type:uuid;index" json:"track_id,omitempty"`
	CreatedBy   *string `gorm:"type:uuid" json:"created_by,omitempty"`

	Track *SkillTrack `gorm:"foreignKey:TrackID" json:"skill_track,omitempty"`

	Timestamps
}

func (LearningContent) TableName() string { return "learning_content" }

// All returns every model for AutoMigrate, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Profile{},
		&Badge{},
		&UserBadge{},
		&ActivityLog{},
		&SkillTrack{},
		&Mission{},
		&Question{},
		&MissionProgress{},
		&LearningContent{},
	}
}
