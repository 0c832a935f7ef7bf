package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/logger"
)

// slowQueryThreshold marks journal queries logged as slow.
const slowQueryThreshold = 500 * time.Millisecond

func gormConfig(log logger.Logger) *gorm.Config {
	return &gorm.Config{Logger: logger.NewGormLoggerAdapter(log, slowQueryThreshold)}
}

// open connects with dialector and migrates the journal schema.
func (ds *DataStore) open(dialector gorm.Dialector, dbType, connectionInfo string) error {
	log := ds.logger().With(logger.String("db_type", dbType))

	db, err := gorm.Open(dialector, gormConfig(log))
	if err != nil {
		log.Error("failed to open journal database", logger.Error(err))
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "open").
			Context("db_type", dbType).
			Build()
	}
	ds.DB = db
	return performAutoMigration(db, dbType, connectionInfo, log)
}

func performAutoMigration(db *gorm.DB, dbType, connectionInfo string, log logger.Logger) error {
	start := time.Now()
	if err := db.AutoMigrate(&Submission{}); err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "auto_migrate").
			Context("db_type", dbType).
			Build()
	}
	log.Info("journal database ready",
		logger.String("connection", connectionInfo),
		logger.Duration("migration_time", time.Since(start)))
	return nil
}
