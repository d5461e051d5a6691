package services

import (
	"errors"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// isLegacyHash reports whether the hash was produced by bcrypt, which
// older deployments used before argon2id.
func isLegacyHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

func comparePassword(password, hash string) (bool, error) {
	if isLegacyHash(hash) {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return err == nil, err
	}
	return argon2id.ComparePasswordAndHash(password, hash)
}
