// Package database is the sole writer of the mirrored forum's relational
// store. All channel/thread/post writes go through its idempotent upsert
// helpers, keyed by Discord IDs.
package database

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
)

var (
	// ErrNotFound is returned when a row looked up by ID does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownParent is returned when a write references a parent row
	// (channel for a thread, thread for a post) that does not exist.
	ErrUnknownParent = errors.New("unknown parent record")
)

// Store wraps the SQLite connection used for the mirrored forum data.
type Store struct {
	db *sqlx.DB
}

// InitDB opens (and creates, if necessary) the forum database at dbPath.
func InitDB(dbPath string) (*Store, error) {
	// Ensure the directory for the database file exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &Store{db: db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("Successfully connected to the database at", dbPath)
	return store, nil
}

// createTables creates the forum schema if it doesn't already exist.
func (s *Store) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS channels (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			description TEXT,
			position INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS threads (
			id TEXT PRIMARY KEY,
			channel_id TEXT NOT NULL REFERENCES channels(id),
			slug TEXT NOT NULL,
			title TEXT NOT NULL,
			author_alias TEXT NOT NULL,
			body_html TEXT NOT NULL,
			tags TEXT,
			reply_count INTEGER NOT NULL DEFAULT 0,
			rank INTEGER NOT NULL DEFAULT 0,
			published INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS posts (
			id TEXT PRIMARY KEY,
			thread_id TEXT NOT NULL REFERENCES threads(id),
			author_alias TEXT NOT NULL,
			body_html TEXT NOT NULL,
			reply_to_id TEXT,
			reply_to_author_alias TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sync_state (
			key_name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_threads_channel_created ON threads(channel_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_threads_channel_rank ON threads(channel_id, rank);`,
		`CREATE INDEX IF NOT EXISTS idx_posts_thread_created ON posts(thread_id, created_at);`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
