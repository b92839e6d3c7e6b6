package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"buylog/internal/database/migrations"
	"buylog/internal/feed"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase keeps the local key/value items (the stored credential) and
// the notification feed in one SQLite file.
type SQLiteDatabase struct {
	db    *sql.DB
	path  string
	clock feed.Clock
}

var _ feed.NotificationStore = (*SQLiteDatabase)(nil)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// NewSQLiteDatabase opens the database at path and migrates it to the latest
// schema. path can be a file path or ":memory:" for in-memory database.
// clock may be nil to use the real clock.
func NewSQLiteDatabase(path string, clock feed.Clock) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	if clock == nil {
		clock = feed.RealClock{}
	}
	return &SQLiteDatabase{db: db, path: path, clock: clock}, nil
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	// Other processes read the credential while we write it.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// SchemaStatus reports the schema version the database is at.
func (s *SQLiteDatabase) SchemaStatus() (migrations.Status, error) {
	return migrations.ReadStatus(s.db)
}

// Path returns the file the database was opened from.
func (s *SQLiteDatabase) Path() string {
	return s.path
}

func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}

// Item operations

func (s *SQLiteDatabase) GetItem(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM items WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("getting item %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteDatabase) SetItem(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO items (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.clock.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("setting item %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteDatabase) RemoveItem(key string) error {
	if _, err := s.db.Exec("DELETE FROM items WHERE key = ?", key); err != nil {
		return fmt.Errorf("removing item %s: %w", key, err)
	}
	return nil
}

// Notification operations

func (s *SQLiteDatabase) InsertNotification(n feed.Notification) error {
	_, err := s.db.Exec(
		"INSERT INTO notifications (id, type, payload, timestamp, read) VALUES (?, ?, ?, ?, ?)",
		n.ID, n.Type, n.Payload, n.Timestamp.UTC().Format(timeLayout), n.Read)
	if err != nil {
		return fmt.Errorf("inserting notification %s: %w", n.ID, err)
	}
	return nil
}

// ListNotifications returns up to limit notifications, newest first.
// A limit <= 0 returns all of them.
func (s *SQLiteDatabase) ListNotifications(limit int) ([]feed.Notification, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		"SELECT id, type, payload, timestamp, read FROM notifications ORDER BY timestamp DESC, rowid DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var result []feed.Notification
	for rows.Next() {
		var (
			n  feed.Notification
			ts string
		)
		if err := rows.Scan(&n.ID, &n.Type, &n.Payload, &ts, &n.Read); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		n.Timestamp, err = time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing notification %s timestamp: %w", n.ID, err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return result, nil
}

// MarkNotificationRead reports whether a notification with id existed.
func (s *SQLiteDatabase) MarkNotificationRead(id string) (bool, error) {
	res, err := s.db.Exec("UPDATE notifications SET read = 1 WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("marking notification %s read: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return n > 0, nil
}

func (s *SQLiteDatabase) DeleteNotifications() error {
	if _, err := s.db.Exec("DELETE FROM notifications"); err != nil {
		return fmt.Errorf("deleting notifications: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) CountUnreadNotifications() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM notifications WHERE read = 0").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}
