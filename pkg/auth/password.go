package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	apperrors "learnboard/pkg/errors"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// PasswordHasher hashes passwords with bcrypt over a SHA-256 pre-hash, so
// inputs longer than bcrypt's 72 byte limit are not truncated.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher. A cost of zero selects bcrypt's default.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// ValidatePassword enforces the length bounds on a plain password.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return apperrors.NewValidationError(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if n > MaxPasswordLength {
		return apperrors.NewValidationError(fmt.Sprintf("Password must not exceed %d characters", MaxPasswordLength))
	}
	return nil
}

// Hash validates and hashes a plain password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword(prehash(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash.
func (h *PasswordHasher) Verify(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(password)) == nil
}

func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}
