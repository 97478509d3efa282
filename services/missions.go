package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"questify/models"
	"questify/store"
)

type MissionService struct {
	run         *runner
	progression *ProgressionService
	badges      *BadgeService
}

func NewMissionService(st store.Store, opts Options, progression *ProgressionService, badges *BadgeService) *MissionService {
	return &MissionService{run: newRunner(st, opts), progression: progression, badges: badges}
}

type ProgressInput struct {
	Status models.MissionStatus `json:"status" validate:"required,oneof=not_started in_progress completed"`
	Score  int                  `json:"score" validate:"min=0"`
}

// CompletionResult is what a progress update changed. Profile, LevelsReached,
// StreakDays and NewBadges are only set on the first completion.
type CompletionResult struct {
	Progress       *models.MissionProgress `json:"progress"`
	FirstCompleted bool                    `json:"first_completed"`
	XPAwarded      int64                   `json:"xp_awarded"`
	Profile        *models.Profile         `json:"profile,omitempty"`
	LevelsReached  []int                   `json:"levels_reached,omitempty"`
	StreakDays     int                     `json:"streak_days,omitempty"`
	NewBadges      []models.Badge          `json:"new_badges,omitempty"`
}

// UpdateProgress records the user's state on a published mission. The first
// transition to completed grants the mission's XP reward, ticks the streak
// and evaluates badges, all in the same transaction. A completed mission
// stays completed; later updates only raise the best score.
func (s *MissionService) UpdateProgress(ctx context.Context, userID, missionID string, in ProgressInput) (*CompletionResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	mission, err := s.run.store.Missions().Get(ctx, missionID)
	if err != nil {
		return nil, storeErr("get mission", err)
	}
	if !mission.Published {
		return nil, storeErr("get mission", store.ErrNotFound)
	}

	var (
		res     *CompletionResult
		outcome StreakOutcome
		logs    []models.ActivityLog
	)
	err = s.run.transact(ctx, "update_mission_progress", func(tx store.Store) error {
		res, logs, outcome = nil, nil, ""
		now := s.run.clock()

		// The profile lock serializes completions of the same user, so it
		// must be held before the progress row is read.
		if _, err := tx.Profiles().GetForUpdate(ctx, userID); err != nil {
			return err
		}
		prev, err := tx.MissionProgress().Get(ctx, userID, missionID)
		if err != nil && !IsNotFound(err) {
			return err
		}

		row := nextProgress(prev, userID, missionID, in, now)
		if err := tx.MissionProgress().Save(ctx, row); err != nil {
			return err
		}
		res = &CompletionResult{Progress: row}

		alreadyDone := prev != nil && prev.Status == models.MissionCompleted
		if row.Status != models.MissionCompleted || alreadyDone {
			return nil
		}

		res.FirstCompleted = true
		res.XPAwarded = mission.XPReward
		entry := newActivityLog(userID, models.ActionCompletedMission, mission.Name, mission.XPReward, now)
		if err := tx.ActivityLogs().Append(ctx, &entry); err != nil {
			return err
		}
		logs = append(logs, entry)

		grant, levelLogs, err := s.progression.grantXPTx(ctx, tx, userID, mission.XPReward, now)
		if err != nil {
			return err
		}
		logs = append(logs, levelLogs...)
		res.LevelsReached = grant.LevelsReached

		res.StreakDays, outcome, err = s.progression.updateStreakTx(ctx, tx, userID, now)
		if err != nil {
			return err
		}

		newBadges, badgeLogs, err := s.badges.awardTx(ctx, tx, userID, now)
		if err != nil {
			return err
		}
		logs = append(logs, badgeLogs...)
		res.NewBadges = newBadges

		res.Profile, err = tx.Profiles().Get(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if res.FirstCompleted {
		m := s.run.metrics
		m.MissionCompleted()
		m.XPGranted(res.XPAwarded)
		m.LevelUps(len(res.LevelsReached))
		m.StreakUpdated(string(outcome))
		m.BadgesAwarded(len(res.NewBadges))
		log.Printf("🏁 [MISSIONS] %s completed %q (+%d XP, streak %d, %d new badges)",
			userID, mission.Name, res.XPAwarded, res.StreakDays, len(res.NewBadges))
	}
	s.run.publish(ctx, logs)
	return res, nil
}

func nextProgress(prev *models.MissionProgress, userID, missionID string, in ProgressInput, now time.Time) *models.MissionProgress {
	row := &models.MissionProgress{
		ID:        uuid.NewString(),
		UserID:    userID,
		MissionID: missionID,
		Status:    in.Status,
		Score:     in.Score,
	}
	if prev == nil {
		if row.Status == models.MissionCompleted {
			row.CompletedAt = &now
		}
		return row
	}

	row.ID = prev.ID
	row.CreatedAt = prev.CreatedAt
	if prev.Status == models.MissionCompleted {
		row.Status = models.MissionCompleted
		row.CompletedAt = prev.CompletedAt
		if prev.Score > row.Score {
			row.Score = prev.Score
		}
		return row
	}
	if row.Status == models.MissionCompleted {
		row.CompletedAt = &now
	}
	return row
}

// Status returns not_started when the user never touched the mission.
func (s *MissionService) Status(ctx context.Context, userID, missionID string) (models.MissionStatus, error) {
	p, err := s.run.store.MissionProgress().Get(ctx, userID, missionID)
	if IsNotFound(err) {
		return models.MissionNotStarted, nil
	}
	if err != nil {
		return "", storeErr("get mission progress", err)
	}
	return p.Status, nil
}

func (s *MissionService) ListProgress(ctx context.Context, userID string) ([]models.MissionProgress, error) {
	out, err := s.run.store.MissionProgress().ListByUser(ctx, userID)
	if err != nil {
		return nil, storeErr("list mission progress", err)
	}
	return out, nil
}
