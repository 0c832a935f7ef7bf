package datastore

import (
	"net/url"
	"regexp"

	"gorm.io/driver/postgres"

	"github.com/twdrugfinder/drugfinder/internal/errors"
)

// PostgresStore keeps the journal in a PostgreSQL database.
type PostgresStore struct {
	DataStore
	DSN string // URL or key=value form
}

// Open connects and migrates the journal table.
func (store *PostgresStore) Open() error {
	if store.DSN == "" {
		return errors.Newf("journal.dsn is required for the postgres journal").
			Category(errors.CategoryConfiguration).
			Component("datastore").
			Build()
	}
	return store.open(postgres.Open(store.DSN), "PostgreSQL", redactDSN(store.DSN))
}

var (
	kvPassword    = regexp.MustCompile(`(?i)(password=)\S+`)
	mysqlPassword = regexp.MustCompile(`^([^:@/]+):[^@]*@`)
)

// redactDSN hides the password of a connection string before it is logged.
func redactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
		return u.String()
	}
	dsn = kvPassword.ReplaceAllString(dsn, "${1}***")
	return mysqlPassword.ReplaceAllString(dsn, "${1}:***@")
}
