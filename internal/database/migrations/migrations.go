// Package migrations holds the embedded schema and applies it with
// golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var schemaFiles embed.FS

// ErrSchemaNewer is returned when the database was migrated by a newer build.
var ErrSchemaNewer = errors.New("database schema is newer than this build")

// ErrSchemaDirty is returned when a previous migration stopped halfway.
var ErrSchemaDirty = errors.New("database schema is dirty")

// Status describes where a database stands against the embedded schema.
// Version is 0 for a database that was never migrated.
type Status struct {
	Version uint
	Latest  uint
	Dirty   bool
}

// Current reports whether the database is at the latest schema.
func (s Status) Current() bool {
	return !s.Dirty && s.Version == s.Latest
}

func (s Status) String() string {
	switch {
	case s.Dirty:
		return fmt.Sprintf("version %d (dirty)", s.Version)
	case s.Version == 0:
		return fmt.Sprintf("not migrated (latest %d)", s.Latest)
	case s.Version == s.Latest:
		return fmt.Sprintf("version %d (current)", s.Version)
	default:
		return fmt.Sprintf("version %d (latest %d)", s.Version, s.Latest)
	}
}

// ReadStatus reports the schema version of db without changing it.
func ReadStatus(db *sql.DB) (Status, error) {
	m, err := newMigrate(db)
	if err != nil {
		return Status{}, err
	}
	// m is not closed: that would close db, which the caller owns.
	return readStatus(m)
}

// MigrateUp brings db to the latest schema. A dirty database or one migrated
// by a newer build is left alone and reported as an error.
func MigrateUp(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}

	st, err := readStatus(m)
	if err != nil {
		return err
	}
	if st.Dirty {
		return fmt.Errorf("%w at version %d", ErrSchemaDirty, st.Version)
	}
	if st.Version > st.Latest {
		return fmt.Errorf("%w: version %d, build supports %d", ErrSchemaNewer, st.Version, st.Latest)
	}
	if st.Version == st.Latest {
		return nil
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func readStatus(m *migrate.Migrate) (Status, error) {
	latest, err := latestVersion()
	if err != nil {
		return Status{}, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{Latest: latest}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("reading schema version: %w", err)
	}
	return Status{Version: version, Latest: latest, Dirty: dirty}, nil
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(schemaFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("reading embedded schema: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating sqlite3 migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating migrate instance: %w", err)
	}
	return m, nil
}

// latestVersion walks the embedded files to the last version.
func latestVersion() (uint, error) {
	src, err := iofs.New(schemaFiles, "files")
	if err != nil {
		return 0, fmt.Errorf("reading embedded schema: %w", err)
	}
	defer src.Close()
	return lastVersion(src)
}

func lastVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("no schema files: %w", err)
	}
	for {
		next, err := src.Next(v)
		if err != nil {
			return v, nil
		}
		v = next
	}
}
