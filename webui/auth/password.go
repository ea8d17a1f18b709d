// Package auth protects the control endpoints with HTTP basic auth. The
// configured password is bcrypt-hashed once at startup and the plaintext is
// not kept.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost bounds
const (
	// DefaultCost keeps verification near 250ms on a desktop CPU and under a
	// second on a Raspberry Pi class board
	DefaultCost = 12

	MinCost = 10
	MaxCost = 31
)

// Password errors
var (
	ErrEmptyPassword    = errors.New("auth: password cannot be empty")
	ErrPasswordMismatch = errors.New("auth: password does not match")
	ErrInvalidHash      = errors.New("auth: invalid password hash")
)

// HashPassword hashes password at DefaultCost.
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, DefaultCost)
}

// HashPasswordWithCost hashes password at cost, which must be within
// MinCost..MaxCost.
func HashPasswordWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if cost < MinCost || cost > MaxCost {
		return "", bcrypt.InvalidCostError(cost)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares password with hash in constant time. Every
// failure other than an empty input is reported as ErrPasswordMismatch.
func VerifyPassword(password, hash string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if hash == "" {
		return ErrInvalidHash
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

// IsValidHash reports whether hash is a well-formed bcrypt hash.
func IsValidHash(hash string) bool {
	_, err := bcrypt.Cost([]byte(hash))
	return err == nil
}
