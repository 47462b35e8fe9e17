package users

import (
	"context"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Tanmay692004/techwithtim-tutorial/internal/domain/model"
	authsvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/auth"
)

func TestDeleteRejectsUserWithPosts(t *testing.T) {
	store := newFakeUserStore()
	user := store.seed(gofakeit.Email())
	svc := NewService(store, fakePostCounter{user.ID: 2}, fakePreparer{})

	err := svc.Delete(context.Background(), user.ID)
	require.ErrorIs(t, err, ErrUserHasPosts)

	_, err = store.GetByID(context.Background(), user.ID)
	require.NoError(t, err, "user must survive a rejected delete")
}

func TestDeleteRemovesUserWithoutPosts(t *testing.T) {
	store := newFakeUserStore()
	user := store.seed(gofakeit.Email())
	svc := NewService(store, fakePostCounter{}, fakePreparer{})

	require.NoError(t, svc.Delete(context.Background(), user.ID))

	_, err := svc.Get(context.Background(), user.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMapsForeignKeyRace(t *testing.T) {
	store := newFakeUserStore()
	user := store.seed(gofakeit.Email())
	store.deleteErr = model.ErrConstraint
	svc := NewService(store, fakePostCounter{}, fakePreparer{})

	require.ErrorIs(t, svc.Delete(context.Background(), user.ID), ErrUserHasPosts)
}

func TestUpdateMeChangesEmailAndResetsVerification(t *testing.T) {
	store := newFakeUserStore()
	user := store.seed("old@example.com")
	user.IsVerified = true
	store.users[user.ID] = user
	svc := NewService(store, fakePostCounter{}, fakePreparer{})

	email := "New@Example.com"
	superuser := true
	updated, err := svc.UpdateMe(context.Background(), user.ID, Patch{Email: &email, IsSuperuser: &superuser})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", updated.Email)
	require.False(t, updated.IsVerified)
	require.False(t, updated.IsSuperuser, "self-service patch must not grant flags")
}

func TestUpdateRejectsTakenEmail(t *testing.T) {
	store := newFakeUserStore()
	first := store.seed("first@example.com")
	store.seed("second@example.com")
	svc := NewService(store, fakePostCounter{}, fakePreparer{})

	email := "SECOND@example.com"
	_, err := svc.Update(context.Background(), first.ID, Patch{Email: &email})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdateHashesPasswordAndSetsFlags(t *testing.T) {
	store := newFakeUserStore()
	user := store.seed(gofakeit.Email())
	svc := NewService(store, fakePostCounter{}, fakePreparer{})

	password := "brand-new-pass"
	active := false
	updated, err := svc.Update(context.Background(), user.ID, Patch{Password: &password, IsActive: &active})
	require.NoError(t, err)
	require.Equal(t, "hashed:brand-new-pass", updated.HashedPassword)
	require.False(t, updated.IsActive)

	short := "x"
	_, err = svc.UpdateMe(context.Background(), user.ID, Patch{Password: &short})
	require.ErrorIs(t, err, ErrInvalidPassword)
}

func TestGetUnknownUser(t *testing.T) {
	svc := NewService(newFakeUserStore(), fakePostCounter{}, fakePreparer{})

	_, err := svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), uuid.Nil)
	require.ErrorIs(t, err, ErrValidation)
}

type fakePreparer struct{}

func (fakePreparer) PreparePassword(password, _ string) (string, error) {
	if len(password) < 8 {
		return "", authsvc.ErrInvalidPassword
	}
	return "hashed:" + password, nil
}

type fakePostCounter map[uuid.UUID]int

func (f fakePostCounter) CountByUser(_ context.Context, userID uuid.UUID) (int, error) {
	return f[userID], nil
}

type fakeUserStore struct {
	users     map[uuid.UUID]model.User
	deleteErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]model.User)}
}

func (f *fakeUserStore) seed(email string) model.User {
	user := model.User{ID: uuid.New(), Email: strings.ToLower(email), IsActive: true}
	f.users[user.ID] = user
	return user
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (f *fakeUserStore) List(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, user)
	}
	return out, nil
}

func (f *fakeUserStore) Update(_ context.Context, user model.User) (model.User, error) {
	if _, ok := f.users[user.ID]; !ok {
		return model.User{}, model.ErrNotFound
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserStore) Delete(_ context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.users[id]; !ok {
		return model.ErrNotFound
	}
	delete(f.users, id)
	return nil
}
