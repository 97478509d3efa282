package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questify/models"
)

func TestEnsureCreatesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := uuid.NewString()

	p, err := env.users.Ensure(ctx, id, "merlin")
	require.NoError(t, err)
	assert.Equal(t, "merlin", p.Username)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, int64(0), p.XP)
	assert.Equal(t, int64(50), p.DailyGoal)
	assert.Equal(t, models.RoleUser, p.Role)

	_, err = env.progression.GrantXP(ctx, id, 40, "x")
	require.NoError(t, err)

	again, err := env.users.Ensure(ctx, id, "someone-else")
	require.NoError(t, err)
	assert.Equal(t, "merlin", again.Username)
	assert.Equal(t, int64(40), again.XP)
}

func TestEnsureFallsBackWhenUsernameTaken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Ensure(ctx, uuid.NewString(), "merlin")
	require.NoError(t, err)

	id := "4f0c2a6e-1b2d-4e5f-8a9b-0c1d2e3f4a5b"
	p, err := env.users.Ensure(ctx, id, "merlin")
	require.NoError(t, err)
	assert.Equal(t, "user-4f0c2a6e", p.Username)

	anon, err := env.users.Ensure(ctx, uuid.NewString(), "")
	require.NoError(t, err)
	assert.Contains(t, anon.Username, "user-")
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := uuid.NewString()
	env.addProfile(t, models.Profile{ID: id, Username: "merlin", XP: 500})
	env.addProfile(t, models.Profile{ID: uuid.NewString(), Username: "morgana"})

	name, goal, avatar := " gandalf ", int64(120), "https://cdn.example.com/a.png"
	p, err := env.users.Update(ctx, id, ProfileUpdate{Username: &name, DailyGoal: &goal, AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "gandalf", p.Username)
	assert.Equal(t, int64(120), p.DailyGoal)
	assert.Equal(t, int64(500), p.XP)

	taken := "morgana"
	_, err = env.users.Update(ctx, id, ProfileUpdate{Username: &taken})
	assert.True(t, IsConflict(err))

	negative, bad := int64(-5), "not a url"
	_, err = env.users.Update(ctx, id, ProfileUpdate{DailyGoal: &negative, AvatarURL: &bad})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)

	_, err = env.users.Update(ctx, uuid.NewString(), ProfileUpdate{DailyGoal: &goal})
	assert.True(t, IsNotFound(err))
}

func TestSetRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addProfile(t, models.Profile{ID: "u1"})

	p, err := env.users.SetRole(ctx, "u1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, p.Role)
	assert.Equal(t, models.RoleAdmin, env.profile(t, "u1").Role)

	_, err = env.users.SetRole(ctx, "u1", "wizard")
	assert.True(t, IsValidation(err))
	_, err = env.users.SetRole(ctx, "ghost", models.RoleUser)
	assert.True(t, IsNotFound(err))
}

func TestListProfilesNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	for i, id := range []string{"a", "b", "c"} {
		env.addProfile(t, models.Profile{ID: id, CreatedAt: testNow.Add(time.Duration(i) * time.Minute)})
	}

	page1, err := env.users.List(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "c", page1[0].ID)
	assert.Equal(t, "b", page1[1].ID)

	page2, err := env.users.List(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "a", page2[0].ID)
}

func TestActivityFeed(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, models.Profile{ID: "u1"})
	ctx := context.Background()

	_, err := env.progression.GrantXP(ctx, "u1", 16000, "x")
	require.NoError(t, err)

	feed, err := env.users.ActivityFeed(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, feed, 5)

	short, err := env.users.ActivityFeed(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, short, 2)

	assert.Equal(t, 10, clampLimit(0, defaultFeedLimit, maxFeedLimit))
	assert.Equal(t, 100, clampLimit(5000, defaultFeedLimit, maxFeedLimit))
	assert.Equal(t, 10, clampLimit(-3, defaultFeedLimit, maxFeedLimit))
}

func TestOverview(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, models.Profile{ID: "u1", XP: 1500, DailyXP: 25, DailyGoal: 50})

	o, err := env.users.Overview(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, o.Level.Level)
	assert.Equal(t, 50, o.Level.Percent)
	assert.Equal(t, 50, o.DailyGoal.Percent)
	assert.Equal(t, int64(25), o.DailyGoal.Remaining)
}

func TestSyncRemoteProfiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	const (
		id1 = "8f14e45f-ceea-467a-9af4-5b3c7f6d2a11"
		id2 = "c9f0f895-fb98-4b91-8f6a-3b2f1e0d4c22"
		id3 = "45c48cce-2e2d-4fbd-a1b2-3c4d5e6f7a33"
	)
	env.addProfile(t, models.Profile{ID: id1, Username: "old", XP: 777})

	avatar := "https://cdn.example.com/u1.png"
	n, err := env.users.Sync(ctx, []models.RemoteProfile{
		{ID: id1, Username: "renamed", AvatarURL: &avatar},
		{ID: id2, Username: "newbie"},
		{ID: "", Username: "broken"},
		{ID: id3, Username: "  "},
		{ID: "legacy-42", Username: "legacy"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	u1 := env.profile(t, id1)
	assert.Equal(t, "renamed", u1.Username)
	assert.Equal(t, int64(777), u1.XP)
	require.NotNil(t, u1.AvatarURL)

	u2 := env.profile(t, id2)
	assert.Equal(t, 1, u2.Level)
	assert.Equal(t, int64(50), u2.DailyGoal)

	_, err = env.users.Get(ctx, "legacy-42")
	assert.True(t, IsNotFound(err))
}

func TestSyncSkipsTakenUsernames(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	const (
		owner = "8f14e45f-ceea-467a-9af4-5b3c7f6d2a11"
		other = "c9f0f895-fb98-4b91-8f6a-3b2f1e0d4c22"
		fresh = "45c48cce-2e2d-4fbd-a1b2-3c4d5e6f7a33"
	)
	env.addProfile(t, models.Profile{ID: owner, Username: "ada"})
	env.addProfile(t, models.Profile{ID: other, Username: "grace"})

	n, err := env.users.Sync(ctx, []models.RemoteProfile{
		{ID: other, Username: "ada"},
		{ID: fresh, Username: "ada"},
		{ID: owner, Username: "ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, "grace", env.profile(t, other).Username)
	assert.Equal(t, "ada", env.profile(t, owner).Username)
	_, err = env.users.Get(ctx, fresh)
	assert.True(t, IsNotFound(err))
}
