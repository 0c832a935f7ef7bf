// Package datastore is the optional local journal of submission attempts. It is an
// operator diagnostic only: reads always go to the remote table store.
package datastore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/logger"
)

// Interface abstracts the journal database.
type Interface interface {
	Open() error
	Record(ctx context.Context, s *Submission) error
	List(ctx context.Context, f Filter) ([]Submission, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
	Close() error
}

// DataStore implements Interface on top of a GORM database.
type DataStore struct {
	DB  *gorm.DB
	log logger.Logger
}

// New returns the journal store for the configured driver. The store is not opened.
func New(settings *conf.JournalSettings) (Interface, error) {
	switch settings.Driver {
	case "", "sqlite":
		return &SQLiteStore{Path: settings.Path}, nil
	case "mysql":
		return &MySQLStore{DSN: settings.DSN}, nil
	case "postgres":
		return &PostgresStore{DSN: settings.DSN}, nil
	default:
		return nil, errors.Newf("unsupported journal driver %q", settings.Driver).
			Category(errors.CategoryConfiguration).
			Component("datastore").
			Context("driver", settings.Driver).
			Build()
	}
}

func (ds *DataStore) logger() logger.Logger {
	if ds.log == nil {
		ds.log = logger.Global().Module("datastore")
	}
	return ds.log
}

func (ds *DataStore) ready() error {
	if ds.DB == nil {
		return errors.Newf("journal database is not open").
			Category(errors.CategoryState).
			Component("datastore").
			Build()
	}
	return nil
}

// Record appends s, assigning an id and creation time when missing.
func (ds *DataStore) Record(ctx context.Context, s *Submission) error {
	if err := ds.ready(); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	if err := ds.DB.WithContext(ctx).Create(s).Error; err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "record_submission").
			Context("kind", s.Kind).
			Build()
	}
	return nil
}

// List returns journal entries matching f, oldest first unless f.NewestFirst.
func (ds *DataStore) List(ctx context.Context, f Filter) ([]Submission, error) {
	if err := ds.ready(); err != nil {
		return nil, err
	}

	q := ds.DB.WithContext(ctx).Model(&Submission{})
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.FailedOnly {
		q = q.Where("success = ?", false)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}
	if f.NewestFirst {
		q = q.Order("created_at DESC")
	} else {
		q = q.Order("created_at ASC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []Submission
	if err := q.Find(&out).Error; err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "list_submissions").
			Build()
	}
	return out, nil
}

// Prune deletes entries created before olderThan and returns how many were removed.
func (ds *DataStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	if err := ds.ready(); err != nil {
		return 0, err
	}
	res := ds.DB.WithContext(ctx).Where("created_at < ?", olderThan).Delete(&Submission{})
	if res.Error != nil {
		return 0, errors.New(res.Error).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "prune_submissions").
			Build()
	}
	if res.RowsAffected > 0 {
		ds.logger().Info("journal pruned",
			logger.Int64("deleted", res.RowsAffected),
			logger.Time("older_than", olderThan))
	}
	return res.RowsAffected, nil
}

// Close closes the underlying connection pool.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "close").
			Build()
	}
	ds.DB = nil
	return sqlDB.Close()
}
