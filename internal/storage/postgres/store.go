// Package postgres implements the relational store on top of a pgx pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrationLockID serializes concurrent migrators across instances.
const migrationLockID = 7_031_202_401

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Migrate applies every migration newer than the recorded schema version.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	const createSchemaVersionQuery = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
)
`
	_, err = tx.Exec(ctx, createSchemaVersionQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to create schema_version: %w", err)
	}

	var current int
	err = tx.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		_, err = tx.Exec(ctx, m.sql)
		if err != nil {
			return 0, fmt.Errorf("failed to apply migration v%d: %w", m.version, err)
		}
		_, err = tx.Exec(ctx, "INSERT INTO schema_version (version) VALUES ($1)", m.version)
		if err != nil {
			return 0, fmt.Errorf("failed to record migration v%d: %w", m.version, err)
		}
		current = m.version
	}

	err = tx.Commit(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to commit migrations: %w", err)
	}
	return current, nil
}
