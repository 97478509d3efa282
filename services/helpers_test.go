package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"questify/metrics"
	"questify/models"
	"questify/store/memstore"
)

var testNow = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu   sync.Mutex
	logs []models.ActivityLog
	err  error
}

func (s *recordingSink) Publish(_ context.Context, l models.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.logs = append(s.logs, l)
	return nil
}

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.logs))
	for _, l := range s.logs {
		out = append(out, l.Action)
	}
	return out
}

type testEnv struct {
	db          *memstore.DB
	sink        *recordingSink
	metrics     *metrics.Recorder
	progression *ProgressionService
	badges      *BadgeService
	missions    *MissionService
	users       *UserService
	leaderboard *LeaderboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := memstore.Open()
	db.Now = func() time.Time { return testNow }

	env := &testEnv{db: db, sink: &recordingSink{}, metrics: metrics.New()}
	opts := Options{
		Sink:    env.sink,
		Metrics: env.metrics,
		Retry:   RetryConfig{MaxAttempts: 3, BackoffBase: time.Millisecond, BackoffMax: 2 * time.Millisecond},
		Streak:  StreakPolicy{Location: time.UTC, CountSameDay: true},
		Now:     func() time.Time { return testNow },
	}
	st := db.Store()
	env.progression = NewProgressionService(st, opts)
	env.badges = NewBadgeService(st, opts)
	env.missions = NewMissionService(st, opts, env.progression, env.badges)
	env.users = NewUserService(st, env.badges, 50)
	env.leaderboard = NewLeaderboardService(st)
	return env
}

func (e *testEnv) addProfile(t *testing.T, p models.Profile) *models.Profile {
	t.Helper()
	if p.Username == "" {
		p.Username = "user-" + p.ID
	}
	if p.Level == 0 {
		p.Level = LevelForXP(p.XP)
	}
	if p.DailyGoal == 0 {
		p.DailyGoal = 50
	}
	if p.Role == "" {
		p.Role = models.RoleUser
	}
	require.NoError(t, e.db.Store().Profiles().Create(context.Background(), &p))
	return &p
}

func (e *testEnv) profile(t *testing.T, id string) *models.Profile {
	t.Helper()
	p, err := e.db.Store().Profiles().Get(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (e *testEnv) addBadge(t *testing.T, id, name string, requiredXP *int64) models.Badge {
	t.Helper()
	b := models.Badge{ID: id, Code: id, Name: name, RequiredXP: requiredXP}
	require.NoError(t, e.db.Store().Badges().Create(context.Background(), &b))
	return b
}

func xp(v int64) *int64 { return &v }

// failOn makes op fail with err for its next n calls.
func (e *testEnv) failOn(op string, n int, err error) *int {
	calls := 0
	e.db.FailOn = func(name string) error {
		if name != op {
			return nil
		}
		calls++
		if calls <= n {
			return err
		}
		return nil
	}
	return &calls
}

// counterValue sums every series of the named counter.
func counterValue(t *testing.T, e *testEnv, name string) float64 {
	t.Helper()
	families, err := e.metrics.Registry().Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

var errBoom = errors.New("boom")
