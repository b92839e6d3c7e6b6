package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"buylog/internal/config"
	"buylog/internal/database/migrations"
	"buylog/internal/feed"
)

// DatabaseFile is the name of the database file under the storage data_dir.
const DatabaseFile = "buylog.db"

// NewDatabaseFromConfig opens the database backing the given storage config.
// The "file" storage type keeps its credential in plain files but still
// records notifications here.
func NewDatabaseFromConfig(cfg config.StorageConfig, clock feed.Clock) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite", "file":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for %s storage", cfg.Type)
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteDatabase(filepath.Join(cfg.DataDir, DatabaseFile), clock)
	case "memory":
		return NewSQLiteDatabase(":memory:", clock)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// ReadSchemaStatus reports the schema version of the database file backing
// cfg without migrating it. ok is false when there is no file to inspect.
func ReadSchemaStatus(cfg config.StorageConfig) (st migrations.Status, ok bool, err error) {
	if cfg.Type != "sqlite" && cfg.Type != "file" {
		return migrations.Status{}, false, nil
	}
	path := filepath.Join(cfg.DataDir, DatabaseFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return migrations.Status{}, false, nil
	}

	db, err := OpenConnection(path)
	if err != nil {
		return migrations.Status{}, false, err
	}
	defer db.Close()

	st, err = migrations.ReadStatus(db)
	if err != nil {
		return migrations.Status{}, false, err
	}
	return st, true, nil
}
