package helpers

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the work factor the user store has always used;
// raising it only affects newly stored hashes.
const bcryptCost = 10

var ErrEmptyPassword = errors.New("password must not be empty")

// HashPassword hashes the plain text password using bcrypt.
// Hashing an empty password is a programmer error and is rejected.
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword compares a bcrypt hash with a plain password
func CheckPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
