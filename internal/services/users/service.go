package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Tanmay692004/techwithtim-tutorial/internal/domain/model"
	authsvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/auth"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already exists")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserHasPosts    = errors.New("user has posts")
)

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user model.User) (model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PostCounter interface {
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type PasswordPreparer interface {
	PreparePassword(password, email string) (string, error)
}

// Patch carries optional changes. Flag fields are honoured only by Update.
type Patch struct {
	Email       *string
	Password    *string
	IsActive    *bool
	IsSuperuser *bool
	IsVerified  *bool
}

type Service struct {
	users     UserStore
	posts     PostCounter
	passwords PasswordPreparer
}

func NewService(users UserStore, posts PostCounter, passwords PasswordPreparer) *Service {
	return &Service{
		users:     users,
		posts:     posts,
		passwords: passwords,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (model.User, error) {
	if id == uuid.Nil {
		return model.User{}, ErrValidation
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *Service) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateMe applies a self-service patch: only email and password change.
func (s *Service) UpdateMe(ctx context.Context, id uuid.UUID, patch Patch) (model.User, error) {
	return s.apply(ctx, id, Patch{Email: patch.Email, Password: patch.Password})
}

// Update applies a superuser patch, flags included.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (model.User, error) {
	return s.apply(ctx, id, patch)
}

// Delete removes a user that owns no posts.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.posts.CountByUser(ctx, id)
	if err != nil {
		return fmt.Errorf("count user posts: %w", err)
	}
	if count > 0 {
		return ErrUserHasPosts
	}

	if err := s.users.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, model.ErrConstraint):
			return ErrUserHasPosts
		case errors.Is(err, model.ErrNotFound):
			return ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *Service) apply(ctx context.Context, id uuid.UUID, patch Patch) (model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	if patch.Email != nil {
		email, err := authsvc.NormalizeEmail(*patch.Email)
		if err != nil {
			return model.User{}, fmt.Errorf("%w: invalid email address", ErrValidation)
		}
		if !strings.EqualFold(email, user.Email) {
			existing, err := s.users.GetByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != user.ID:
				return model.User{}, ErrEmailTaken
			case err != nil && !errors.Is(err, model.ErrNotFound):
				return model.User{}, fmt.Errorf("lookup user by email: %w", err)
			}
			user.Email = email
			user.IsVerified = false
		}
	}

	if patch.Password != nil {
		hashed, err := s.passwords.PreparePassword(*patch.Password, user.Email)
		if err != nil {
			if errors.Is(err, authsvc.ErrInvalidPassword) {
				return model.User{}, fmt.Errorf("%w: %v", ErrInvalidPassword, err)
			}
			return model.User{}, err
		}
		user.HashedPassword = hashed
	}

	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	if patch.IsSuperuser != nil {
		user.IsSuperuser = *patch.IsSuperuser
	}
	if patch.IsVerified != nil {
		user.IsVerified = *patch.IsVerified
	}

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrConflict):
			return model.User{}, ErrEmailTaken
		case errors.Is(err, model.ErrNotFound):
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}
