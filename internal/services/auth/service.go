package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tanmay692004/techwithtim-tutorial/internal/domain/model"
)

const (
	MinRefreshTTL = time.Hour
	MaxRefreshTTL = 90 * 24 * time.Hour
)

// dummyHash keeps login timing flat when the email is unknown.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z1nLMdVBt2D5n0nZ9CTtRm6G"

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord, refreshToken string) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (SessionRecord, error)
	RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, sid string) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}

type UserStore interface {
	Create(ctx context.Context, user model.User) (model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Update(ctx context.Context, user model.User) (model.User, error)
}

type Config struct {
	RefreshTTL time.Duration
	Password   PasswordPolicy
}

type Service struct {
	jwt        *JWTManager
	sessions   SessionStore
	users      UserStore
	sender     VerifySender
	password   PasswordPolicy
	refreshTTL time.Duration
	now        func() time.Time
}

func NewService(jwtManager *JWTManager, sessions SessionStore, users UserStore, cfg Config) *Service {
	refreshTTL := cfg.RefreshTTL
	if refreshTTL < MinRefreshTTL {
		refreshTTL = MinRefreshTTL
	}
	if refreshTTL > MaxRefreshTTL {
		refreshTTL = MaxRefreshTTL
	}

	return &Service{
		jwt:        jwtManager,
		sessions:   sessions,
		users:      users,
		sender:     NewLogVerifySender(nil),
		password:   cfg.Password,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (s *Service) AttachVerifySender(sender VerifySender) {
	if sender != nil {
		s.sender = sender
	}
}

func (s *Service) Register(ctx context.Context, email, password string) (model.User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return model.User{}, err
	}
	hashed, err := s.PreparePassword(password, normalized)
	if err != nil {
		return model.User{}, err
	}

	if _, err := s.users.GetByEmail(ctx, normalized); err == nil {
		return model.User{}, ErrUserAlreadyExists
	} else if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, fmt.Errorf("lookup user by email: %w", err)
	}

	user, err := s.users.Create(ctx, model.User{
		ID:             uuid.New(),
		Email:          normalized,
		HashedPassword: hashed,
		IsActive:       true,
	})
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return model.User{}, ErrUserAlreadyExists
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// PreparePassword validates a candidate password for the given email and
// returns its bcrypt hash.
func (s *Service) PreparePassword(password, email string) (string, error) {
	if err := s.password.Validate(password, email); err != nil {
		return "", err
	}
	return s.password.Hash(password)
}

func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return AuthResult{}, ErrBadCredentials
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			CheckPassword(dummyHash, password)
			return AuthResult{}, ErrBadCredentials
		}
		return AuthResult{}, fmt.Errorf("lookup user by email: %w", err)
	}
	if !CheckPassword(user.HashedPassword, password) || !user.IsActive {
		return AuthResult{}, ErrBadCredentials
	}

	return s.issueForUser(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return AuthResult{}, ErrInvalidInput
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("get refresh token session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return AuthResult{}, ErrUnauthorized
	}

	user, err := s.activeUser(ctx, session.UserID)
	if err != nil {
		return AuthResult{}, err
	}

	newRefreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	newExpiresAt := s.now().Add(s.refreshTTL)
	if err := s.sessions.RotateRefresh(ctx, session.SID, refreshToken, newRefreshToken, newExpiresAt); err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(session.UserID, session.SID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  newRefreshToken,
		AccessExpires: accessExpires,
		User:          user,
	}, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteSession(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	return nil
}

// RequestVerify hands a verification token to the sender when the address
// belongs to an active, unverified user. Unknown addresses are not reported.
func (s *Service) RequestVerify(ctx context.Context, email string) error {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user by email: %w", err)
	}
	if !user.IsActive || user.IsVerified {
		return nil
	}

	token, err := s.jwt.GenerateVerifyToken(user.ID, user.Email)
	if err != nil {
		return fmt.Errorf("generate verify token: %w", err)
	}
	if err := s.sender.SendVerifyToken(ctx, user, token); err != nil {
		return fmt.Errorf("send verify token: %w", err)
	}
	return nil
}

func (s *Service) Verify(ctx context.Context, token string) (model.User, error) {
	claims, err := s.jwt.ParseVerifyToken(token)
	if err != nil {
		return model.User{}, ErrVerifyBadToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, ErrVerifyBadToken
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	if !strings.EqualFold(user.Email, claims.Email) {
		return model.User{}, ErrVerifyBadToken
	}
	if user.IsVerified {
		return model.User{}, ErrAlreadyVerified
	}

	user.IsVerified = true
	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return model.User{}, fmt.Errorf("mark user verified: %w", err)
	}
	return updated, nil
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (AccessClaims, error) {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return AccessClaims{}, ErrUnauthorized
		}
		return AccessClaims{}, fmt.Errorf("get session: %w", err)
	}

	if session.UserID != claims.UserID {
		return AccessClaims{}, ErrUnauthorized
	}
	if s.now().After(session.ExpiresAt) {
		return AccessClaims{}, ErrUnauthorized
	}

	return claims, nil
}

// ResolveUser maps a bearer token to the current active user.
func (s *Service) ResolveUser(ctx context.Context, accessToken string) (Identity, model.User, error) {
	claims, err := s.ValidateAccessToken(ctx, accessToken)
	if err != nil {
		return Identity{}, model.User{}, err
	}

	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return Identity{}, model.User{}, err
	}

	return Identity{
		UserID:      user.ID,
		SID:         claims.SID,
		Email:       user.Email,
		IsSuperuser: user.IsSuperuser,
		IsVerified:  user.IsVerified,
	}, user, nil
}

func (s *Service) activeUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, ErrUnauthorized
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return model.User{}, ErrUnauthorized
	}
	return user, nil
}

func (s *Service) issueForUser(ctx context.Context, user model.User) (AuthResult, error) {
	sessionID, err := NewSessionID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session id: %w", err)
	}
	refreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	session := SessionRecord{
		SID:       sessionID,
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	if err := s.sessions.Create(ctx, session, refreshToken); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(user.ID, sessionID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpires: accessExpires,
		User:          user,
	}, nil
}
