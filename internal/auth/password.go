package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/webatelier/platform/internal/errors"
)

const minPasswordLength = 8

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(plain string) (string, error) {
	if len(plain) < minPasswordLength {
		return "", errors.InvalidInput("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Internal("hash password", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a stored hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
