// Package gormstore implements store.Store on postgres through gorm.
package gormstore

import (
	"context"
	"database/sql/driver"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"questify/models"
	"questify/store"
)

// Open connects to postgres. Unique violations surface as gorm.ErrDuplicatedKey.
func Open(dsn string, logSQL bool) (*gorm.DB, error) {
	level := logger.Warn
	if logSQL {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}
	return nil
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Profiles() store.Profiles               { return profiles{s.db} }
func (s *Store) Badges() store.Badges                   { return badges{s.db} }
func (s *Store) UserBadges() store.UserBadges           { return userBadges{s.db} }
func (s *Store) ActivityLogs() store.ActivityLogs       { return activityLogs{s.db} }
func (s *Store) Missions() store.Missions               { return missions{s.db} }
func (s *Store) MissionProgress() store.MissionProgress { return missionProgress{s.db} }

func (s *Store) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&Store{db: tx})
		return fnErr
	})
	if err != nil && fnErr == nil {
		// begin or commit failed
		return TranslateError(err)
	}
	return err
}

// kindError tags a driver error with one of the store sentinels.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string        { return e.kind.Error() + ": " + e.cause.Error() }
func (e *kindError) Is(target error) bool { return target == e.kind }
func (e *kindError) Unwrap() error        { return e.cause }

// serialization_failure, deadlock_detected
var retryableCodes = map[string]bool{"40001": true, "40P01": true}

// TranslateError maps gorm and driver errors onto the store sentinels.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &kindError{kind: store.ErrNotFound, cause: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &kindError{kind: store.ErrConflict, cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && retryableCodes[pgErr.Code] {
		return &kindError{kind: store.ErrConnection, cause: err}
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return &kindError{kind: store.ErrConnection, cause: err}
	}
	return err
}
