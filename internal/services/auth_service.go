package services

import (
	"context"
	"errors"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-delivery/internal/models"
	"github.com/adanyl0v/go-task-delivery/internal/storage"
)

type authServiceImpl struct {
	logger     zerolog.Logger
	users      UserRepository
	tokens     TokenService
	hashParams *argon2id.Params
}

func NewAuthService(
	logger zerolog.Logger,
	users UserRepository,
	tokens TokenService,
) AuthService {
	return newAuthService(logger, users, tokens, argon2id.DefaultParams)
}

func newAuthService(
	logger zerolog.Logger,
	users UserRepository,
	tokens TokenService,
	hashParams *argon2id.Params,
) *authServiceImpl {
	return &authServiceImpl{
		logger:     logger,
		users:      users,
		tokens:     tokens,
		hashParams: hashParams,
	}
}

func (s *authServiceImpl) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	role := params.Role
	if role == "" {
		role = models.RoleMember
	}
	if !role.IsValid() {
		s.logger.Error().
			Str("role", string(role)).
			Msg("invalid role")
		return nil, ErrInvalidRole
	}

	passwordHash, err := argon2id.CreateHash(params.Password, s.hashParams)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}

	user := &models.User{
		Username:     params.Username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	err = s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			s.logger.Error().
				Str("username", user.Username).
				Msg("user with this username already exists")
			return nil, ErrUserAlreadyExists
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("registered user")
	return user, nil
}

func (s *authServiceImpl) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	user, err := s.users.GetUserByUsername(ctx, params.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Error().
				Str("username", params.Username).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("username", params.Username).
			Msg("failed to select user by username")
		return nil, err
	}
	s.logger.Debug().
		Int64("user_id", user.ID).
		Msg("selected user")

	match, err := comparePassword(params.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to compare password")
		return nil, err
	} else if !match {
		s.logger.Error().Msg("passwords do not match")
		return nil, ErrUserPasswordMismatch
	}

	if isLegacyHash(user.PasswordHash) {
		s.upgradePasswordHash(ctx, user, params.Password)
	}

	accessToken, expiresAt, err := s.tokens.Issue(user.Identity())
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to issue access token")
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Msg("logged in")
	return &LoginResult{
		User:                 user,
		AccessToken:          accessToken,
		AccessTokenExpiresAt: expiresAt,
	}, nil
}

// upgradePasswordHash re-hashes a bcrypt password with argon2id. The
// login already succeeded, so failures are only logged.
func (s *authServiceImpl) upgradePasswordHash(ctx context.Context, user *models.User, password string) {
	passwordHash, err := argon2id.CreateHash(password, s.hashParams)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Msg("failed to hash password")
		return
	}

	err = s.users.UpdateUserPassword(ctx, user.ID, passwordHash)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Int64("user_id", user.ID).
			Msg("failed to upgrade legacy password hash")
		return
	}
	user.PasswordHash = passwordHash

	s.logger.Info().
		Int64("user_id", user.ID).
		Msg("upgraded legacy password hash")
}
