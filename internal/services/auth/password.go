package auth

import (
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

type PasswordPolicy struct {
	MinSize int
	Cost    int
}

func (p PasswordPolicy) Validate(password, email string) error {
	minSize := p.MinSize
	if minSize <= 0 {
		minSize = 8
	}
	if len(password) < minSize {
		return fmt.Errorf("%w: password should be at least %d characters", ErrInvalidPassword, minSize)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password should be at most %d bytes", ErrInvalidPassword, maxPasswordBytes)
	}
	if email != "" && strings.Contains(strings.ToLower(password), strings.ToLower(email)) {
		return fmt.Errorf("%w: password should not contain e-mail", ErrInvalidPassword)
	}
	return nil
}

func (p PasswordPolicy) Hash(password string) (string, error) {
	cost := p.Cost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NormalizeEmail validates a bare address and lower-cases it.
func NormalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidInput
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed || addr.Name != "" {
		return "", fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	return strings.ToLower(addr.Address), nil
}
