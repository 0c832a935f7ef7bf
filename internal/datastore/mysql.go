package datastore

import (
	"gorm.io/driver/mysql"

	"github.com/twdrugfinder/drugfinder/internal/errors"
)

// MySQLStore keeps the journal in a MySQL database.
type MySQLStore struct {
	DataStore
	DSN string // user:pass@tcp(host:3306)/db?parseTime=True
}

// Open connects and migrates the journal table.
func (store *MySQLStore) Open() error {
	if store.DSN == "" {
		return errors.Newf("journal.dsn is required for the mysql journal").
			Category(errors.CategoryConfiguration).
			Component("datastore").
			Build()
	}
	return store.open(mysql.Open(store.DSN), "MySQL", redactDSN(store.DSN))
}
