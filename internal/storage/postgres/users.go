package postgres

import (
	"context"
	"fmt"

	"github.com/adanyl0v/go-task-delivery/internal/models"
	"github.com/adanyl0v/go-task-delivery/internal/storage"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	const insertUserQuery = `
INSERT INTO users (username,
                   password,
                   role,
                   created_at)
VALUES ($1, $2, $3, $4)
RETURNING id
`
	err := s.pool.QueryRow(
		ctx,
		insertUserQuery,
		user.Username,
		user.PasswordHash,
		string(user.Role),
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", mapError(err))
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const selectUserByUsernameQuery = `
SELECT id,
       username,
       password,
       role,
       created_at
FROM users
WHERE username = $1
`
	var (
		user models.User
		role string
	)
	err := s.pool.QueryRow(
		ctx,
		selectUserByUsernameQuery,
		username,
	).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&role,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to select user by username: %w", mapError(err))
	}
	user.Role = models.Role(role)
	return &user, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	const updateUserPasswordQuery = `
UPDATE users
SET password = $1
WHERE id = $2
`
	tag, err := s.pool.Exec(
		ctx,
		updateUserPasswordQuery,
		passwordHash,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user password: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update user password: %w", storage.ErrNotFound)
	}
	return nil
}
