package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questify/models"
)

func TestTrackInputApply(t *testing.T) {
	var tr models.SkillTrack
	TrackInput{Name: "  Arcane Algorithms  "}.apply(&tr)
	assert.Equal(t, "Arcane Algorithms", tr.Name)
	assert.Equal(t, "arcane-algorithms", tr.Slug)

	inactive := false
	TrackInput{Name: "Potions", Slug: "potions-101", Active: &inactive}.apply(&tr)
	assert.Equal(t, "potions-101", tr.Slug)
	assert.False(t, tr.Active)
}

func TestMissionInputValidation(t *testing.T) {
	valid := MissionInput{TrackID: "4f0c2a6e-1b2d-4e5f-8a9b-0c1d2e3f4a5b", Name: "Loops", XPReward: 150}
	require.NoError(t, validate(valid))

	var m models.Mission
	valid.apply(&m)
	assert.Equal(t, models.DifficultyBeginner, m.Difficulty)

	bad := MissionInput{TrackID: "nope", Name: "", Difficulty: "legendary", XPReward: -1}
	err := validate(bad)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"track_id", "name", "difficulty", "xp_reward"}, fields)
}

func TestQuestionInputCheck(t *testing.T) {
	opts := []models.QuestionOption{{ID: "a", Text: "A loop"}, {ID: "b", Text: "A branch"}}

	tests := []struct {
		name    string
		in      QuestionInput
		wantErr bool
	}{
		{name: "valid", in: QuestionInput{Options: opts, CorrectAnswer: "b"}},
		{name: "unknown answer", in: QuestionInput{Options: opts, CorrectAnswer: "c"}, wantErr: true},
		{name: "duplicate ids", in: QuestionInput{Options: append(opts, models.QuestionOption{ID: "a", Text: "again"}), CorrectAnswer: "a"}, wantErr: true},
		{name: "blank option", in: QuestionInput{Options: []models.QuestionOption{{ID: "a"}, {ID: "b", Text: "x"}}, CorrectAnswer: "a"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.check()
			if tt.wantErr {
				assert.True(t, IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSummarizeMissionStats(t *testing.T) {
	missions := []models.Mission{
		{ID: "m1", Name: "Loops", XPReward: 100},
		{ID: "m2", Name: "Recursion", XPReward: 300},
	}
	counts := []missionStatusCount{
		{MissionID: "m1", Status: models.MissionCompleted, Count: 4},
		{MissionID: "m1", Status: models.MissionInProgress, Count: 2},
		{MissionID: "m1", Status: models.MissionNotStarted, Count: 1},
		{MissionID: "m2", Status: "bogus", Count: 9},
		{MissionID: "gone", Status: models.MissionCompleted, Count: 3},
	}

	stats := summarizeMissionStats(missions, counts)
	require.Len(t, stats, 2)
	assert.Equal(t, MissionStats{
		ID: "m1", Name: "Loops", XPReward: 100,
		CompletedCount: 4, InProgressCount: 2, NotStartedCount: 1, TotalCount: 7,
	}, stats[0])
	assert.Equal(t, int64(0), stats[1].TotalCount)
}
