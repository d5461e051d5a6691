package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/adanyl0v/go-task-delivery/internal/models"
	"github.com/adanyl0v/go-task-delivery/internal/storage"
)

type userRow struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Password  string    `db:"password"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	const insertUserQuery = `
INSERT INTO users (username, password, role, created_at)
VALUES (?, ?, ?, ?)
RETURNING id
`
	err := s.db.GetContext(
		ctx,
		&user.ID,
		insertUserQuery,
		user.Username,
		user.PasswordHash,
		string(user.Role),
		user.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", mapError(err))
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const selectUserByUsernameQuery = `
SELECT id, username, password, role, created_at
FROM users
WHERE username = ?
`
	var row userRow
	err := s.db.GetContext(ctx, &row, selectUserByUsernameQuery, username)
	if err != nil {
		return nil, fmt.Errorf("failed to select user by username: %w", mapError(err))
	}
	return &models.User{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.Password,
		Role:         models.Role(row.Role),
		CreatedAt:    row.CreatedAt,
	}, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET password = ? WHERE id = ?", passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update user password: %w", mapError(err))
	}
	return requireAffected(res, "failed to update user password")
}

func requireAffected(res interface{ RowsAffected() (int64, error) }, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", msg, storage.ErrNotFound)
	}
	return nil
}
