package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/adanyl0v/go-task-delivery/internal/models"
)

type tokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type tokenServiceImpl struct {
	issuer     string
	signingKey []byte
	now        func() time.Time
}

// NewTokenService refuses to build a service without a signing key.
func NewTokenService(issuer string, signingKey []byte) (TokenService, error) {
	return newTokenService(issuer, signingKey, time.Now)
}

func newTokenService(issuer string, signingKey []byte, now func() time.Time) (*tokenServiceImpl, error) {
	if len(signingKey) == 0 {
		return nil, errors.New("jwt signing key is empty")
	}
	return &tokenServiceImpl{
		issuer:     issuer,
		signingKey: signingKey,
		now:        now,
	}, nil
}

func (s *tokenServiceImpl) Issue(identity models.Identity) (string, time.Time, error) {
	tokenUUID, err := uuid.NewRandom()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate id: %w", err)
	}

	now := s.now()
	expiresAt := jwt.NewNumericDate(now.Add(TokenTTL))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Username: identity.Username,
		Role:     string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenUUID.String(),
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(identity.ID, 10),
			ExpiresAt: expiresAt,
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt.Time, nil
}

func (s *tokenServiceImpl) Verify(token string) (*models.Identity, error) {
	t, err := jwt.ParseWithClaims(
		token,
		&tokenClaims{},
		func(token *jwt.Token) (any, error) {
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := t.Claims.(*tokenClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrInvalidToken)
	}
	// A token is valid strictly before its expiry instant.
	if !s.now().Before(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, jwt.ErrTokenExpired)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject: %w", ErrInvalidToken, err)
	}
	role := models.Role(claims.Role)
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return &models.Identity{
		ID:       id,
		Username: claims.Username,
		Role:     role,
	}, nil
}
