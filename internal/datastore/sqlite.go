package datastore

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"

	"github.com/twdrugfinder/drugfinder/internal/errors"
)

// SQLiteStore keeps the journal in a local SQLite file.
type SQLiteStore struct {
	DataStore
	Path string // file path, or ":memory:"
}

// Open creates the database file and its directory when missing.
func (store *SQLiteStore) Open() error {
	if store.Path == "" {
		return errors.Newf("journal.path is required for the sqlite journal").
			Category(errors.CategoryConfiguration).
			Component("datastore").
			Build()
	}

	if store.Path != ":memory:" {
		if dir := filepath.Dir(store.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return errors.New(err).
					Category(errors.CategoryFileIO).
					Component("datastore").
					Context("path", store.Path).
					Build()
			}
		}
	}

	return store.open(sqlite.Open(store.Path), "SQLite", store.Path)
}
