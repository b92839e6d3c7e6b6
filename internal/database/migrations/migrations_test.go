package migrations

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func migrated(t *testing.T) *sql.DB {
	t.Helper()
	db := openTestDB(t)
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	return db
}

func TestMigrateUp_CreatesTables(t *testing.T) {
	db := migrated(t)

	for _, table := range []string{"items", "notifications", "schema_migrations"} {
		var name string
		if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name); err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrateUp_Twice(t *testing.T) {
	db := migrated(t)
	if err := MigrateUp(db); err != nil {
		t.Fatalf("second MigrateUp() error = %v", err)
	}
	st, err := ReadStatus(db)
	if err != nil {
		t.Fatalf("ReadStatus() error = %v", err)
	}
	if !st.Current() {
		t.Errorf("ReadStatus() = %+v, want current", st)
	}
}

func TestReadStatus(t *testing.T) {
	fresh, err := ReadStatus(openTestDB(t))
	if err != nil {
		t.Fatalf("ReadStatus(fresh) error = %v", err)
	}
	if fresh.Version != 0 || fresh.Latest == 0 || fresh.Current() {
		t.Errorf("ReadStatus(fresh) = %+v, want version 0 and a latest version", fresh)
	}

	st, err := ReadStatus(migrated(t))
	if err != nil {
		t.Fatalf("ReadStatus(migrated) error = %v", err)
	}
	if st.Version != fresh.Latest || st.Dirty {
		t.Errorf("ReadStatus(migrated) = %+v, want version %d", st, fresh.Latest)
	}
}

func TestMigrateUp_RefusesBrokenSchemas(t *testing.T) {
	tests := []struct {
		name    string
		update  string
		wantErr error
	}{
		{"dirty", "UPDATE schema_migrations SET dirty = 1", ErrSchemaDirty},
		{"newer", "UPDATE schema_migrations SET version = 999, dirty = 0", ErrSchemaNewer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := migrated(t)
			if _, err := db.Exec(tt.update); err != nil {
				t.Fatal(err)
			}

			if err := MigrateUp(db); !errors.Is(err, tt.wantErr) {
				t.Errorf("MigrateUp() error = %v, want %v", err, tt.wantErr)
			}
			st, err := ReadStatus(db)
			if err != nil {
				t.Fatalf("ReadStatus() error = %v", err)
			}
			if st.Current() {
				t.Errorf("ReadStatus() = %+v, should not be current", st)
			}
		})
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		st   Status
		want string
	}{
		{Status{Version: 0, Latest: 1}, "not migrated (latest 1)"},
		{Status{Version: 1, Latest: 1}, "version 1 (current)"},
		{Status{Version: 1, Latest: 3}, "version 1 (latest 3)"},
		{Status{Version: 2, Latest: 1, Dirty: true}, "version 2 (dirty)"},
	}
	for _, tt := range tests {
		if got := tt.st.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSchema_Constraints(t *testing.T) {
	tests := []struct {
		name  string
		stmts []string
	}{
		{"read flag is boolean", []string{
			`INSERT INTO notifications (id, type, payload, timestamp, read) VALUES ('n-1', 'POST_LIKED', '{}', '2024-01-15T10:30:00Z', 2)`,
		}},
		{"item keys are unique", []string{
			`INSERT INTO items (key, value, updated_at) VALUES ('auth_token', 'a', '2024-01-15T10:30:00Z')`,
			`INSERT INTO items (key, value, updated_at) VALUES ('auth_token', 'b', '2024-01-15T10:30:00Z')`,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := migrated(t)
			last := len(tt.stmts) - 1
			for _, q := range tt.stmts[:last] {
				if _, err := db.Exec(q); err != nil {
					t.Fatalf("setup %q: %v", q, err)
				}
			}
			if _, err := db.Exec(tt.stmts[last]); err == nil {
				t.Error("insert succeeded, want constraint violation")
			}
		})
	}
}
