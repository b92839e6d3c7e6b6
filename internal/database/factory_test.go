package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"buylog/internal/config"
	"buylog/internal/database/migrations"
)

func TestNewDatabaseFromConfig(t *testing.T) {
	t.Run("memory database", func(t *testing.T) {
		cfg := config.StorageConfig{Type: "memory"}
		got, err := NewDatabaseFromConfig(cfg, nil)

		if err != nil {
			t.Errorf("NewDatabaseFromConfig() unexpected error: %v", err)
			return
		}

		if got == nil {
			t.Error("NewDatabaseFromConfig() returned nil")
		}

		if got != nil {
			got.Close()
		}
	})

	for _, typ := range []string{"sqlite", "file"} {
		t.Run(typ+" storage creates database file", func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "nested", "db")
			cfg := config.StorageConfig{Type: typ, DataDir: dir}
			got, err := NewDatabaseFromConfig(cfg, nil)
			if err != nil {
				t.Fatalf("NewDatabaseFromConfig() unexpected error: %v", err)
			}
			defer got.Close()

			if _, err := os.Stat(filepath.Join(dir, DatabaseFile)); err != nil {
				t.Errorf("database file not created: %v", err)
			}
		})
	}

	t.Run("sqlite database without data_dir", func(t *testing.T) {
		cfg := config.StorageConfig{Type: "sqlite"}
		got, err := NewDatabaseFromConfig(cfg, nil)

		if err == nil {
			t.Error("NewDatabaseFromConfig() expected error for missing data_dir, got nil")
		}

		if got != nil {
			t.Error("NewDatabaseFromConfig() should return nil on error")
			got.Close()
		}
	})

	t.Run("unknown storage type", func(t *testing.T) {
		cfg := config.StorageConfig{Type: "unknown"}
		got, err := NewDatabaseFromConfig(cfg, nil)

		if err == nil {
			t.Error("NewDatabaseFromConfig() expected error for unknown type, got nil")
		}

		if got != nil {
			t.Error("NewDatabaseFromConfig() should return nil on error")
			got.Close()
		}
	})
}

func TestReadSchemaStatus(t *testing.T) {
	dir := t.TempDir()
	cfg := config.StorageConfig{Type: "sqlite", DataDir: dir}

	if _, ok, err := ReadSchemaStatus(cfg); err != nil || ok {
		t.Fatalf("ReadSchemaStatus() before open = ok %v, err %v; want no database", ok, err)
	}
	if _, ok, err := ReadSchemaStatus(config.StorageConfig{Type: "memory"}); err != nil || ok {
		t.Errorf("ReadSchemaStatus(memory) = ok %v, err %v; want no database", ok, err)
	}

	db, err := NewDatabaseFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewDatabaseFromConfig() error = %v", err)
	}
	own, err := db.SchemaStatus()
	db.Close()
	if err != nil {
		t.Fatalf("SchemaStatus() error = %v", err)
	}
	if !own.Current() {
		t.Errorf("SchemaStatus() = %+v, want current", own)
	}

	st, ok, err := ReadSchemaStatus(cfg)
	if err != nil || !ok {
		t.Fatalf("ReadSchemaStatus() = ok %v, err %v", ok, err)
	}
	if st != own {
		t.Errorf("ReadSchemaStatus() = %+v, want %+v", st, own)
	}
}

func TestNewDatabaseFromConfig_RefusesNewerSchema(t *testing.T) {
	cfg := config.StorageConfig{Type: "sqlite", DataDir: t.TempDir()}
	db, err := NewDatabaseFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewDatabaseFromConfig() error = %v", err)
	}
	if _, err := db.db.Exec("UPDATE schema_migrations SET version = 999"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := NewDatabaseFromConfig(cfg, nil); !errors.Is(err, migrations.ErrSchemaNewer) {
		t.Errorf("NewDatabaseFromConfig() error = %v, want ErrSchemaNewer", err)
	}
}
