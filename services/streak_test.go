package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questify/models"
)

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestNextStreak(t *testing.T) {
	now := *at("2024-03-10T15:00:00Z")
	counting := StreakPolicy{CountSameDay: true}
	strict := StreakPolicy{}

	tests := []struct {
		name    string
		last    *time.Time
		current int
		policy  StreakPolicy
		want    int
		outcome StreakOutcome
	}{
		{name: "first activity", last: nil, current: 0, policy: counting, want: 1, outcome: StreakStarted},
		{name: "first activity ignores stale count", last: nil, current: 9, policy: counting, want: 1, outcome: StreakStarted},
		{name: "yesterday morning", last: at("2024-03-09T06:00:00Z"), current: 4, policy: counting, want: 5, outcome: StreakExtended},
		{name: "yesterday late night", last: at("2024-03-09T23:59:59Z"), current: 4, policy: strict, want: 5, outcome: StreakExtended},
		{name: "two days ago", last: at("2024-03-08T23:00:00Z"), current: 4, policy: counting, want: 1, outcome: StreakReset},
		{name: "weeks ago", last: at("2024-02-01T12:00:00Z"), current: 30, policy: counting, want: 1, outcome: StreakReset},
		{name: "future activity", last: at("2024-03-12T12:00:00Z"), current: 3, policy: counting, want: 1, outcome: StreakReset},
		{name: "same day counting", last: at("2024-03-10T00:00:01Z"), current: 4, policy: counting, want: 5, outcome: StreakSameDay},
		{name: "same day strict", last: at("2024-03-10T00:00:01Z"), current: 4, policy: strict, want: 4, outcome: StreakSameDay},
		{name: "same day strict from zero", last: at("2024-03-10T10:00:00Z"), current: 0, policy: strict, want: 1, outcome: StreakSameDay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome := NextStreak(tt.last, now, tt.current, tt.policy)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.outcome, outcome)
		})
	}
}

func TestNextStreakUsesLocationForDayBoundaries(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 23:30 UTC on the 9th and 00:30 UTC on the 10th are both the evening
	// of the 9th in New York.
	last := at("2024-03-09T23:30:00Z")
	now := *at("2024-03-10T00:30:00Z")

	got, outcome := NextStreak(last, now, 3, StreakPolicy{Location: time.UTC})
	assert.Equal(t, 4, got)
	assert.Equal(t, StreakExtended, outcome)

	got, outcome = NextStreak(last, now, 3, StreakPolicy{Location: ny})
	assert.Equal(t, 3, got)
	assert.Equal(t, StreakSameDay, outcome)
}

func TestNextStreakAcrossDSTChange(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// clocks jump forward on 2024-03-10 in New York
	last := time.Date(2024, 3, 9, 23, 0, 0, 0, ny)
	now := time.Date(2024, 3, 10, 23, 30, 0, 0, ny)

	got, outcome := NextStreak(&last, now, 2, StreakPolicy{Location: ny})
	assert.Equal(t, 3, got)
	assert.Equal(t, StreakExtended, outcome)
}

func TestUpdateStreak(t *testing.T) {
	ctx := context.Background()

	t.Run("consecutive day extends", func(t *testing.T) {
		env := newTestEnv(t)
		env.addProfile(t, models.Profile{ID: "u1", StreakDays: 6, LastActivity: at("2024-03-09T08:00:00Z")})

		streak, err := env.progression.UpdateStreak(ctx, "u1", testNow)
		require.NoError(t, err)
		assert.Equal(t, 7, streak)

		p := env.profile(t, "u1")
		assert.Equal(t, 7, p.StreakDays)
		require.NotNil(t, p.LastActivity)
		assert.True(t, p.LastActivity.Equal(testNow))
	})

	t.Run("gap resets", func(t *testing.T) {
		env := newTestEnv(t)
		env.addProfile(t, models.Profile{ID: "u1", StreakDays: 6, LastActivity: at("2024-03-07T08:00:00Z")})

		streak, err := env.progression.UpdateStreak(ctx, "u1", testNow)
		require.NoError(t, err)
		assert.Equal(t, 1, streak)
	})

	t.Run("first activity starts", func(t *testing.T) {
		env := newTestEnv(t)
		env.addProfile(t, models.Profile{ID: "u1"})

		streak, err := env.progression.UpdateStreak(ctx, "u1", testNow)
		require.NoError(t, err)
		assert.Equal(t, 1, streak)
		assert.Equal(t, 1.0, counterValue(t, env, "questify_streak_updates_total"))
	})

	t.Run("same day twice counts twice by default", func(t *testing.T) {
		env := newTestEnv(t)
		env.addProfile(t, models.Profile{ID: "u1", StreakDays: 2, LastActivity: at("2024-03-09T08:00:00Z")})

		first, err := env.progression.UpdateStreak(ctx, "u1", testNow)
		require.NoError(t, err)
		second, err := env.progression.UpdateStreak(ctx, "u1", testNow.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 3, first)
		assert.Equal(t, 4, second)
	})

	t.Run("zero time is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		env.addProfile(t, models.Profile{ID: "u1", StreakDays: 2})

		_, err := env.progression.UpdateStreak(ctx, "u1", time.Time{})
		assert.True(t, IsValidation(err))
		assert.Equal(t, 2, env.profile(t, "u1").StreakDays)
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.progression.UpdateStreak(ctx, "ghost", testNow)
		assert.True(t, IsNotFound(err))
	})
}

func TestUpdateStreakStrictSameDay(t *testing.T) {
	env := newTestEnv(t)
	env.progression.streak.CountSameDay = false
	env.addProfile(t, models.Profile{ID: "u1", StreakDays: 2, LastActivity: at("2024-03-09T08:00:00Z")})
	ctx := context.Background()

	first, err := env.progression.UpdateStreak(ctx, "u1", testNow)
	require.NoError(t, err)
	second, err := env.progression.UpdateStreak(ctx, "u1", testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, first)
	assert.Equal(t, 3, second)
}
