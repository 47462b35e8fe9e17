package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Tanmay692004/techwithtim-tutorial/internal/domain/model"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrSessionNotFound   = errors.New("session not found")
	ErrRefreshNotFound   = errors.New("refresh token not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrBadCredentials    = errors.New("bad credentials")
	ErrVerifyBadToken    = errors.New("bad verification token")
	ErrAlreadyVerified   = errors.New("user already verified")
)

type SessionRecord struct {
	SID       string
	UserID    uuid.UUID
	ExpiresAt time.Time
}

type AccessClaims struct {
	UserID    uuid.UUID
	SID       string
	ExpiresAt time.Time
}

type VerifyClaims struct {
	UserID uuid.UUID
	Email  string
}

type AuthResult struct {
	AccessToken   string
	RefreshToken  string
	AccessExpires time.Time
	User          model.User
}
