// Package sqlite implements the relational store on an embedded SQLite
// database. It backs single-binary deployments and the test suites.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/adanyl0v/go-task-delivery/internal/storage"
)

type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the database at path, enables WAL and foreign
// keys and applies pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// Pragmas are per connection and ":memory:" databases are per
	// connection too, so keep exactly one.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		_, err = db.ExecContext(ctx, pragma)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to exec %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	_, err = s.Migrate(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies every migration newer than the recorded schema version.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)")
	if err != nil {
		return 0, fmt.Errorf("failed to create schema_version: %w", err)
	}

	var current int
	err = tx.GetContext(ctx, &current, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		_, err = tx.ExecContext(ctx, m.sql)
		if err != nil {
			return 0, fmt.Errorf("failed to apply migration v%d: %w", m.version, err)
		}
		_, err = tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", m.version)
		if err != nil {
			return 0, fmt.Errorf("failed to record migration v%d: %w", m.version, err)
		}
		current = m.version
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("failed to commit migrations: %w", err)
	}
	return current, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE,
			code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
			isConstraint(code) && strings.Contains(sqliteErr.Error(), "UNIQUE"):
			return fmt.Errorf("%w: %s", storage.ErrAlreadyExists, sqliteErr.Error())
		case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY,
			isConstraint(code) && strings.Contains(sqliteErr.Error(), "FOREIGN KEY"):
			return fmt.Errorf("%w: %s", storage.ErrReferenceNotFound, sqliteErr.Error())
		}
	}
	return err
}

// isConstraint reports whether a (possibly extended) result code is a
// constraint violation.
func isConstraint(code int) bool {
	return code&0xff == sqlite3.SQLITE_CONSTRAINT
}
