// Package metrics exposes progression counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "questify"

// Recorder holds the progression counters. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	xpGranted      prometheus.Counter
	levelUps       prometheus.Counter
	badgesAwarded  prometheus.Counter
	streakUpdates  *prometheus.CounterVec
	missionsDone   prometheus.Counter
	dailyResets    *prometheus.CounterVec
	storeRetries   *prometheus.CounterVec
	sinkFailures   prometheus.Counter
	profilesSynced prometheus.Counter
}

// New registers every collector on a fresh registry, plus the Go and process
// collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		xpGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "xp_granted_total",
			Help: "Total XP granted to users.",
		}),
		levelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "level_ups_total",
			Help: "Levels reached across all users.",
		}),
		badgesAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "badges_awarded_total",
			Help: "Badges awarded across all users.",
		}),
		streakUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "streak_updates_total",
			Help: "Streak updates by outcome (started, extended, same_day, reset).",
		}, []string{"outcome"}),
		missionsDone: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "missions_completed_total",
			Help: "First-time mission completions.",
		}),
		dailyResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "daily_xp_resets_total",
			Help: "Daily XP reset runs by result.",
		}, []string{"result"}),
		storeRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "store_retries_total",
			Help: "Store operations retried after a transient failure.",
		}, []string{"op"}),
		sinkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "activity_sink_failures_total",
			Help: "Activity log entries the sink failed to publish.",
		}),
		profilesSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "profiles_synced_total",
			Help: "Profiles upserted from the account service.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.xpGranted, r.levelUps, r.badgesAwarded, r.streakUpdates, r.missionsDone,
		r.dailyResets, r.storeRetries, r.sinkFailures, r.profilesSynced,
	)
	return r
}

// Registry is exposed for tests and custom exporters.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) XPGranted(amount int64) {
	if r == nil || amount <= 0 {
		return
	}
	r.xpGranted.Add(float64(amount))
}

func (r *Recorder) LevelUps(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.levelUps.Add(float64(n))
}

func (r *Recorder) BadgesAwarded(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.badgesAwarded.Add(float64(n))
}

func (r *Recorder) StreakUpdated(outcome string) {
	if r == nil {
		return
	}
	r.streakUpdates.WithLabelValues(outcome).Inc()
}

func (r *Recorder) MissionCompleted() {
	if r == nil {
		return
	}
	r.missionsDone.Inc()
}

func (r *Recorder) DailyReset(err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.dailyResets.WithLabelValues(result).Inc()
}

func (r *Recorder) StoreRetry(op string) {
	if r == nil {
		return
	}
	r.storeRetries.WithLabelValues(op).Inc()
}

func (r *Recorder) SinkFailure() {
	if r == nil {
		return
	}
	r.sinkFailures.Inc()
}

func (r *Recorder) ProfilesSynced(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.profilesSynced.Add(float64(n))
}
