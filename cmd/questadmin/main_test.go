package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questify/config"
	"questify/models"
	"questify/store"
	"questify/store/memstore"
)

const userID = "8f14e45f-ceea-467a-9af4-5b3c7f6d2a11"

func execute(t *testing.T, st store.Store, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd(func(cfg *config.Config) (*app, error) {
		return newApp(st, cfg), nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedUser(t *testing.T, st store.Store) {
	t.Helper()
	require.NoError(t, st.Profiles().Create(context.Background(), &models.Profile{
		ID: userID, Username: "ada", Level: 1, DailyGoal: 50, Role: models.RoleUser,
	}))
}

func TestParseBadgeSeeds(t *testing.T) {
	f, err := os.Open("testdata/badges.yaml")
	require.NoError(t, err)
	defer f.Close()

	seeds, err := parseBadgeSeeds(f)
	require.NoError(t, err)
	require.Len(t, seeds, 3)
	assert.Equal(t, "first-steps", seeds[0].Code)
	require.NotNil(t, seeds[1].RequiredXP)
	assert.Equal(t, int64(3000), *seeds[1].RequiredXP)
	assert.Nil(t, seeds[2].RequiredXP)

	_, err = parseBadgeSeeds(strings.NewReader(""))
	assert.Error(t, err)
	_, err = parseBadgeSeeds(strings.NewReader("badges: []\n"))
	assert.Error(t, err)
	_, err = parseBadgeSeeds(strings.NewReader("badges:\n  - nme: typo\n"))
	assert.Error(t, err)
}

func TestSeedBadgesIsIdempotent(t *testing.T) {
	st := memstore.Open().Store()

	out, err := execute(t, st, "seed-badges", "testdata/badges.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "3 created, 0 updated")

	out, err = execute(t, st, "seed-badges", "testdata/badges.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "0 created, 3 updated")

	all, err := st.Badges().List(context.Background())
	require.NoError(t, err)
	codes := make([]string, 0, len(all))
	for _, b := range all {
		codes = append(codes, b.Code)
	}
	assert.ElementsMatch(t, []string{"first-steps", "level-climber", "explorer"}, codes)
}

func TestGrantAndEvaluate(t *testing.T) {
	st := memstore.Open().Store()
	seedUser(t, st)
	_, err := execute(t, st, "seed-badges", "testdata/badges.yaml")
	require.NoError(t, err)

	out, err := execute(t, st, "grant-xp", userID, "1200", "--reason", "Backfill")
	require.NoError(t, err)
	assert.Contains(t, out, "xp=1200 level=2")

	out, err = execute(t, st, "evaluate-badges", userID)
	require.NoError(t, err)
	assert.Contains(t, out, "2 badge(s) awarded")

	out, err = execute(t, st, "evaluate-badges", userID)
	require.NoError(t, err)
	assert.Contains(t, out, "0 badge(s) awarded")

	_, err = execute(t, st, "grant-xp", userID, "lots")
	assert.Error(t, err)
	_, err = execute(t, st, "grant-xp", "--", userID, "-10")
	assert.Error(t, err)
}

func TestResetDailyAndSetRole(t *testing.T) {
	st := memstore.Open().Store()
	seedUser(t, st)
	_, err := execute(t, st, "grant-xp", userID, "40")
	require.NoError(t, err)

	out, err := execute(t, st, "reset-daily")
	require.NoError(t, err)
	assert.Contains(t, out, "reset 1 profile(s)")

	p, err := st.Profiles().Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, p.DailyXP)
	assert.Equal(t, int64(40), p.XP)

	out, err = execute(t, st, "set-role", userID, "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "ada is now admin")

	_, err = execute(t, st, "set-role", userID, "root")
	assert.Error(t, err)
	_, err = execute(t, st, "reset-daily", "missing-user")
	assert.Error(t, err)
}

func TestMigrateRequiresDatabase(t *testing.T) {
	_, err := execute(t, memstore.Open().Store(), "migrate")
	assert.Error(t, err)
}
