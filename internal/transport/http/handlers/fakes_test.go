package handlers

import (
	"context"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/Tanmay692004/techwithtim-tutorial/internal/domain/model"
	redrepo "github.com/Tanmay692004/techwithtim-tutorial/internal/repo/redis"
	authsvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/auth"
	"github.com/Tanmay692004/techwithtim-tutorial/internal/services/mediahost"
)

type memoryStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
	posts []model.Post
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[uuid.UUID]model.User)}
}

func (m *memoryStore) Create(_ context.Context, user model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return model.User{}, model.ErrConflict
		}
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryStore) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return user, nil
}

func (m *memoryStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (m *memoryStore) List(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, user)
	}
	return out, nil
}

func (m *memoryStore) Update(_ context.Context, user model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return model.User{}, model.ErrNotFound
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.UserID == id {
			return model.ErrConstraint
		}
	}
	if _, ok := m.users[id]; !ok {
		return model.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memoryStore) CountByUser(_ context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, p := range m.posts {
		if p.UserID == userID {
			count++
		}
	}
	return count, nil
}

// postStore exposes the post half of memoryStore under the method names the
// posts service expects.
type postStore struct {
	*memoryStore
}

func (p postStore) Create(_ context.Context, post model.Post) (model.Post, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posts = append(p.posts, post)
	return post, nil
}

func (p postStore) GetByID(_ context.Context, id uuid.UUID) (model.Post, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, post := range p.posts {
		if post.ID == id {
			return post, nil
		}
	}
	return model.Post{}, model.ErrNotFound
}

func (p postStore) ListNewestFirst(_ context.Context) ([]model.Post, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Post, len(p.posts))
	copy(out, p.posts)
	sortNewestFirst(out)
	return out, nil
}

func (p postStore) Delete(_ context.Context, id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, post := range p.posts {
		if post.ID == id {
			p.posts = append(p.posts[:i], p.posts[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

type stubHost struct {
	status int
}

func (s stubHost) Upload(_ context.Context, file *os.File, fileName string, _ mediahost.UploadOptions) (mediahost.UploadResult, error) {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return mediahost.UploadResult{}, err
	}
	if s.status != http.StatusOK {
		return mediahost.UploadResult{}, &mediahost.UploadError{Op: "upload", StatusCode: s.status, Message: "rejected"}
	}
	return mediahost.UploadResult{
		URL:        "https://media.example/" + fileName,
		Name:       fileName,
		StatusCode: http.StatusOK,
	}, nil
}

func newTestAuthService(t *testing.T, store *memoryStore) *authsvc.Service {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return authsvc.NewService(
		authsvc.NewJWTManager("test-secret", 15*time.Minute, time.Hour),
		redrepo.NewSessionRepo(client),
		store,
		authsvc.Config{
			RefreshTTL: 24 * time.Hour,
			Password:   authsvc.PasswordPolicy{MinSize: 8, Cost: bcrypt.MinCost},
		},
	)
}

func sortNewestFirst(posts []model.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID.String() > posts[j].ID.String()
	})
}
