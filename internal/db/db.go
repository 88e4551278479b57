// Package db manages the usage database.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

// New opens the database at path, creating the file, its directory and the
// schema as needed.
func New(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx := context.Background()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	if err := db.configure(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.createSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if err := db.FixLegacyTimeFormats(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to fix legacy time formats: %w", err)
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) configure(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-16000", // 16MB cache
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (db *DB) createSchema(ctx context.Context) error {
	if err := db.createUsagesTable(ctx); err != nil {
		return err
	}
	if err := db.createProvidersTable(ctx); err != nil {
		return err
	}
	return db.createLLMsTable(ctx)
}

func (db *DB) createUsagesTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS llm_usages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT,
		provider TEXT NOT NULL,
		model_name TEXT NOT NULL,
		input_token INTEGER NOT NULL DEFAULT 0,
		output_token INTEGER NOT NULL DEFAULT 0,
		total_token INTEGER NOT NULL DEFAULT 0,
		input_token_cost INTEGER NOT NULL DEFAULT 0,
		output_token_cost INTEGER NOT NULL DEFAULT 0,
		total_token_cost INTEGER NOT NULL DEFAULT 0,
		ts TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_llm_usages_ts ON llm_usages(ts);
	CREATE INDEX IF NOT EXISTS idx_llm_usages_series ON llm_usages(model_name, provider);
	`
	_, err := db.ExecContext(ctx, query)
	return err
}

func (db *DB) createProvidersTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS llm_providers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		api_base TEXT NOT NULL DEFAULT '',
		api_key TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);
	`
	_, err := db.ExecContext(ctx, query)
	return err
}

func (db *DB) createLLMsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS llms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		provider TEXT NOT NULL,
		cost_per_million_input INTEGER NOT NULL DEFAULT 0,
		cost_per_million_output INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		UNIQUE(name, provider)
	);
	`
	_, err := db.ExecContext(ctx, query)
	return err
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}

// Vacuum performs database maintenance to reclaim space.
func (db *DB) Vacuum(ctx context.Context) error {
	_, err := db.ExecContext(ctx, "VACUUM")
	return err
}
