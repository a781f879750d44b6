package localdb

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

var DBClient *sql.DB

// SetupDB opens (or creates) the sqlite database and ensures the schema.
func SetupDB(dbPath string) (*sql.DB, error) {
	if DBClient != nil {
		return DBClient, nil
	}

	// WAL plus a busy timeout so command handlers and scheduler tasks
	// don't trip over each other's writes.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// sqlite is a single writer; keep one connection so per-room draw
	// runs serialize their statements.
	db.SetMaxOpenConns(1)

	DBClient = db

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS rooms (
		id INTEGER PRIMARY KEY,
		channel_id INTEGER NOT NULL DEFAULT -1,
		autodraw_weekday INTEGER NOT NULL DEFAULT -1,
		autodraw_hour INTEGER NOT NULL DEFAULT -1
	)`); err != nil {
		return nil, fmt.Errorf("failed to create rooms table: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY
	)`); err != nil {
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS enrollments (
		room_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		PRIMARY KEY (room_id, user_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`); err != nil {
		return nil, fmt.Errorf("failed to create enrollments table: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		name TEXT NOT NULL,
		first INTEGER NOT NULL DEFAULT 0,
		room_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`); err != nil {
		return nil, fmt.Errorf("failed to create entries table: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS entry_hist (
		name TEXT NOT NULL,
		won INTEGER NOT NULL DEFAULT 0,
		room_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return nil, fmt.Errorf("failed to create entry_hist table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_entries_room ON entries(room_id)`); err != nil {
		return nil, fmt.Errorf("failed to create entries index: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_entry_hist_room ON entry_hist(room_id)`); err != nil {
		return nil, fmt.Errorf("failed to create entry_hist index: %w", err)
	}

	return db, nil
}

// GetDB returns the current database connection.
func GetDB() *sql.DB {
	return DBClient
}
