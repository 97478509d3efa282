package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questify/models"
)

func addMission(env *testEnv, id string, reward int64, published bool) {
	env.db.AddMission(models.Mission{
		ID: id, TrackID: "t1", Name: "Mission " + id,
		Difficulty: models.DifficultyBeginner, XPReward: reward, Published: published,
	})
}

func TestUpdateProgressFirstCompletionRewards(t *testing.T) {
	env := newTestEnv(t)
	env.addBadge(t, "b-first", "First Steps", nil)
	env.addBadge(t, "b-1000", "Adept", xp(1000))
	env.addProfile(t, models.Profile{ID: "u1", XP: 900, StreakDays: 2, LastActivity: at("2024-03-09T10:00:00Z")})
	addMission(env, "m1", 250, true)
	ctx := context.Background()

	res, err := env.missions.UpdateProgress(ctx, "u1", "m1", ProgressInput{Status: models.MissionCompleted, Score: 80})
	require.NoError(t, err)
	assert.True(t, res.FirstCompleted)
	assert.Equal(t, int64(250), res.XPAwarded)
	assert.Equal(t, []int{2}, res.LevelsReached)
	assert.Equal(t, 3, res.StreakDays)
	assert.Equal(t, []string{"Adept", "First Steps"}, badgeNames(res.NewBadges))

	require.NotNil(t, res.Profile)
	assert.Equal(t, int64(1150), res.Profile.XP)
	assert.Equal(t, int64(250), res.Profile.DailyXP)
	assert.Equal(t, 2, res.Profile.Level)

	require.NotNil(t, res.Progress.CompletedAt)
	assert.True(t, res.Progress.CompletedAt.Equal(testNow))

	assert.Equal(t, []string{
		models.ActionCompletedMission,
		models.ActionReachedLevel,
		models.ActionEarnedBadge,
		models.ActionEarnedBadge,
	}, env.sink.actions())
	logs := env.db.ActivityLogs()
	assert.Equal(t, "Mission m1", logs[0].Detail)
	assert.Equal(t, int64(250), logs[0].XPGained)
	assert.Equal(t, 1.0, counterValue(t, env, "questify_missions_completed_total"))
}

func TestUpdateProgressRewardsOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, models.Profile{ID: "u1"})
	addMission(env, "m1", 100, true)
	ctx := context.Background()

	_, err := env.missions.UpdateProgress(ctx, "u1", "m1", ProgressInput{Status: models.MissionInProgress, Score: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(0), env.profile(t, "u1").XP)

	first, err := env.missions.UpdateProgress(ctx, "u1", "m1", ProgressInput{Status: models.MissionCompleted, Score: 60})
	require.NoError(t, err)
	assert.True(t, first.FirstCompleted)

	again, err := env.missions.UpdateProgress(ctx, "u1", "m1", ProgressInput{Status: models.MissionCompleted, Score: 90})
	require.NoError(t, err)
	assert.False(t, again.FirstCompleted)
	assert.Nil(t, again.Profile)
	assert.Equal(t, 90, again.Progress.Score)

	regress, err := env.missions.UpdateProgress(ctx, "u1", "m1", ProgressInput{Status: models.MissionInProgress, Score: 5})
	require.NoError(t, err)
	assert.Equal(t, models.MissionCompleted, regress.Progress.Status)
	assert.Equal(t, 90, regress.Progress.Score)
	assert.Equal(t, first.Progress.ID, regress.Progress.ID)

	assert.Equal(t, int64(100), env.profile(t, "u1").XP)
	assert.Len(t, env.db.ActivityLogs(), 1)

	status, err := env.missions.Status(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MissionCompleted, status)
}

func TestUpdateProgressRejects(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, models.Profile{ID: "u1"})
	addMission(env, "draft", 100, false)
	addMission(env, "m1", 100, true)
	ctx := context.Background()

	_, err := env.missions.UpdateProgress(ctx, "u1", "m1", ProgressInput{Status: "finished"})
	assert.True(t, IsValidation(err))

	_, err = env.missions.UpdateProgress(ctx, "u1", "m1", ProgressInput{Status: models.MissionInProgress, Score: -1})
	assert.True(t, IsValidation(err))

	_, err = env.missions.UpdateProgress(ctx, "u1", "draft", ProgressInput{Status: models.MissionCompleted})
	assert.True(t, IsNotFound(err))

	_, err = env.missions.UpdateProgress(ctx, "u1", "nope", ProgressInput{Status: models.MissionCompleted})
	assert.True(t, IsNotFound(err))

	_, err = env.missions.UpdateProgress(ctx, "ghost", "m1", ProgressInput{Status: models.MissionCompleted})
	assert.True(t, IsNotFound(err))

	rows, err := env.missions.ListProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpdateProgressRollsBackOnBadgeFailure(t *testing.T) {
	env := newTestEnv(t)
	env.addBadge(t, "b-first", "First Steps", nil)
	env.addProfile(t, models.Profile{ID: "u1"})
	addMission(env, "m1", 100, true)
	env.failOn("user_badges.award", 100, errBoom)

	_, err := env.missions.UpdateProgress(context.Background(), "u1", "m1", ProgressInput{Status: models.MissionCompleted})
	require.Error(t, err)

	assert.Equal(t, int64(0), env.profile(t, "u1").XP)
	assert.Empty(t, env.db.ActivityLogs())
	status, err := env.missions.Status(context.Background(), "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MissionNotStarted, status)
}

func TestMissionStatusDefaultsToNotStarted(t *testing.T) {
	env := newTestEnv(t)
	status, err := env.missions.Status(context.Background(), "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MissionNotStarted, status)
}

func TestUpdateProgressLocksProfileBeforeReadingProgress(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, models.Profile{ID: "u1"})
	addMission(env, "m1", 100, true)

	var ops []string
	env.db.FailOn = func(op string) error {
		ops = append(ops, op)
		return nil
	}

	_, err := env.missions.UpdateProgress(context.Background(), "u1", "m1", ProgressInput{Status: models.MissionCompleted})
	require.NoError(t, err)

	first := func(op string) int {
		for i, o := range ops {
			if o == op {
				return i
			}
		}
		return -1
	}
	lock, read := first("profiles.get"), first("user_progress.get")
	require.NotEqual(t, -1, lock)
	require.NotEqual(t, -1, read)
	assert.Less(t, lock, read, "ops: %v", ops)
}

func TestUpdateProgressConcurrentCompletionsRewardOnce(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, models.Profile{ID: "u1"})
	addMission(env, "m1", 300, true)
	ctx := context.Background()

	const workers = 50
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		firsts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.missions.UpdateProgress(ctx, "u1", "m1", ProgressInput{Status: models.MissionCompleted, Score: 10})
			if !assert.NoError(t, err) {
				return
			}
			if res.FirstCompleted {
				mu.Lock()
				firsts++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, firsts)
	p := env.profile(t, "u1")
	assert.Equal(t, int64(300), p.XP)
	assert.Equal(t, 1, p.StreakDays)

	completed := 0
	for _, l := range env.db.ActivityLogs() {
		if l.Action == models.ActionCompletedMission {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
}
