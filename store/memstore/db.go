// Package memstore is an in-memory store.Store used by tests and local runs.
// Transactions serialize on one mutex and roll back by restoring a snapshot.
package memstore

import (
	"context"
	"sync"
	"time"

	"questify/models"
	"questify/store"
)

type tables struct {
	profiles   map[string]models.Profile
	badges     map[string]models.Badge
	userBadges map[string]models.UserBadge // keyed by user id + "/" + badge id
	logs       []models.ActivityLog
	missions   map[string]models.Mission
	progress   map[string]models.MissionProgress // keyed by user id + "/" + mission id
}

func newTables() *tables {
	return &tables{
		profiles:   make(map[string]models.Profile),
		badges:     make(map[string]models.Badge),
		userBadges: make(map[string]models.UserBadge),
		missions:   make(map[string]models.Mission),
		progress:   make(map[string]models.MissionProgress),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.profiles {
		c.profiles[k] = v
	}
	for k, v := range t.badges {
		c.badges[k] = v
	}
	for k, v := range t.userBadges {
		c.userBadges[k] = v
	}
	c.logs = append([]models.ActivityLog(nil), t.logs...)
	for k, v := range t.missions {
		c.missions[k] = v
	}
	for k, v := range t.progress {
		c.progress[k] = v
	}
	return c
}

// DB is the shared state behind every Store handle.
type DB struct {
	mu   sync.Mutex
	data *tables

	// FailOn, when set, is consulted before every repository operation with
	// the operation name (e.g. "profiles.save"); a non-nil result is returned
	// instead of running the operation.
	FailOn func(op string) error

	// Now stamps created/updated times. Defaults to time.Now.
	Now func() time.Time
}

func Open() *DB {
	return &DB{data: newTables(), Now: time.Now}
}

// Store returns a store.Store backed by db.
func (db *DB) Store() store.Store {
	return &Store{db: db}
}

// AddMission seeds a mission; the progression core only reads missions.
func (db *DB) AddMission(m models.Mission) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data.missions[m.ID] = m
}

// ActivityLogs returns a copy of every appended log, oldest first.
func (db *DB) ActivityLogs() []models.ActivityLog {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]models.ActivityLog(nil), db.data.logs...)
}

// UserBadgeCount returns the number of awarded badges across all users.
func (db *DB) UserBadgeCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.data.userBadges)
}

type Store struct {
	db   *DB
	inTx bool
}

// do runs fn under the db lock, unless the handle already holds it.
func (s *Store) do(op string, fn func(t *tables) error) error {
	if !s.inTx {
		s.db.mu.Lock()
		defer s.db.mu.Unlock()
	}
	if s.db.FailOn != nil {
		if err := s.db.FailOn(op); err != nil {
			return err
		}
	}
	return fn(s.db.data)
}

func (s *Store) now() time.Time {
	if s.db.Now != nil {
		return s.db.Now()
	}
	return time.Now()
}

func (s *Store) Profiles() store.Profiles               { return profiles{s} }
func (s *Store) Badges() store.Badges                   { return badges{s} }
func (s *Store) UserBadges() store.UserBadges           { return userBadges{s} }
func (s *Store) ActivityLogs() store.ActivityLogs       { return activityLogs{s} }
func (s *Store) Missions() store.Missions               { return missions{s} }
func (s *Store) MissionProgress() store.MissionProgress { return missionProgress{s} }

func (s *Store) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	snapshot := s.db.data.clone()
	if err := fn(&Store{db: s.db, inTx: true}); err != nil {
		s.db.data = snapshot
		return err
	}
	return nil
}
