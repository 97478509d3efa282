package services

import (
	"math"

	"questify/models"
)

const (
	// BaseLevelXP is the total XP needed to leave level 1.
	BaseLevelXP int64 = 1000

	// MaxLevel is the highest level whose threshold fits in an int64.
	MaxLevel = 54
)

// XPThreshold returns the total XP at which a profile leaves level: 1000,
// 2000, 4000, ... Levels below 1 are treated as 1; the result saturates at
// math.MaxInt64 from MaxLevel on.
func XPThreshold(level int) int64 {
	if level < 1 {
		level = 1
	}
	if level >= MaxLevel {
		return math.MaxInt64
	}
	return BaseLevelXP << uint(level-1)
}

// LevelForXP returns the level a profile with xp total XP belongs to.
func LevelForXP(xp int64) int {
	level := 1
	for level < MaxLevel && xp >= XPThreshold(level) {
		level++
	}
	return level
}

// advanceLevel raises p.Level while p.XP covers the current threshold and
// returns every level reached, lowest first.
func advanceLevel(p *models.Profile) []int {
	if p.Level < 1 {
		p.Level = 1
	}
	var reached []int
	for p.Level < MaxLevel && p.XP >= XPThreshold(p.Level) {
		p.Level++
		reached = append(reached, p.Level)
	}
	return reached
}

// LevelProgress is the XP bar for one profile.
type LevelProgress struct {
	Level       int   `json:"level"`
	XP          int64 `json:"xp"`
	LevelXP     int64 `json:"level_xp"`
	NextLevelXP int64 `json:"next_level_xp"`
	IntoLevel   int64 `json:"into_level"`
	Needed      int64 `json:"needed"`
	Percent     int   `json:"percent"`
}

func NewLevelProgress(xp int64, level int) LevelProgress {
	if level < 1 {
		level = 1
	}
	var floor int64
	if level > 1 {
		floor = XPThreshold(level - 1)
	}
	next := XPThreshold(level)

	lp := LevelProgress{Level: level, XP: xp, LevelXP: floor, NextLevelXP: next}
	span := next - floor
	lp.IntoLevel = clamp64(xp-floor, 0, span)
	lp.Needed = next - floor - lp.IntoLevel
	if span > 0 {
		lp.Percent = int(math.Round(float64(lp.IntoLevel) / float64(span) * 100))
	}
	return lp
}

// DailyGoalProgress is today's XP against the profile's daily goal.
type DailyGoalProgress struct {
	Current   int64 `json:"current"`
	Target    int64 `json:"target"`
	Remaining int64 `json:"remaining"`
	Percent   int   `json:"percent"`
	Completed bool  `json:"completed"`
}

func NewDailyGoalProgress(dailyXP, goal int64) DailyGoalProgress {
	d := DailyGoalProgress{Current: dailyXP, Target: goal}
	if goal <= 0 {
		d.Percent = 100
		d.Completed = true
		return d
	}
	if dailyXP < goal {
		d.Remaining = goal - dailyXP
	}
	d.Completed = d.Remaining == 0
	pct := math.Round(float64(dailyXP) / float64(goal) * 100)
	d.Percent = int(math.Min(math.Max(pct, 0), 100))
	return d
}

func clamp64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
