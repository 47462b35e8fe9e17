package posts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tanmay692004/techwithtim-tutorial/internal/domain/enums"
	"github.com/Tanmay692004/techwithtim-tutorial/internal/domain/model"
	"github.com/Tanmay692004/techwithtim-tutorial/internal/pkg/validate"
	"github.com/Tanmay692004/techwithtim-tutorial/internal/services/mediahost"
)

// TempFilePattern names spooled uploads so the cleanup job can find them.
const TempFilePattern = "upload-*"

const unknownEmail = "Unknown"

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("post not found")
	ErrForbidden  = errors.New("not the post owner")
	ErrUpstream   = errors.New("media upload failed")
)

// RateLimitError is returned when the caller exhausted an upload window.
type RateLimitError struct {
	RetryAfterSec int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("upload rate limited, retry after %ds", e.RetryAfterSec)
}

// PostStore persists posts. ListNewestFirst must order by creation time
// descending, ties broken by id descending; Feed relies on it.
type PostStore interface {
	Create(ctx context.Context, post model.Post) (model.Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Post, error)
	ListNewestFirst(ctx context.Context) ([]model.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserDirectory interface {
	List(ctx context.Context) ([]model.User, error)
}

type UploadLimiter interface {
	AllowUpload(ctx context.Context, userID uuid.UUID) (int64, bool, error)
}

type Config struct {
	TempDir string
	Tag     string
}

type UploadInput struct {
	UserID      uuid.UUID
	Caption     string
	FileName    string
	ContentType string
	Body        io.Reader
}

// PostView is a feed entry as seen by one caller.
type PostView struct {
	model.Post
	Email   string
	IsOwner bool
}

type Service struct {
	posts   PostStore
	users   UserDirectory
	host    mediahost.Host
	limiter UploadLimiter
	cfg     Config
	now     func() time.Time
}

func NewService(posts PostStore, users UserDirectory, host mediahost.Host, cfg Config) *Service {
	if strings.TrimSpace(cfg.Tag) == "" {
		cfg.Tag = "backend-upload"
	}
	return &Service{
		posts: posts,
		users: users,
		host:  host,
		cfg:   cfg,
		now:   time.Now,
	}
}

func (s *Service) AttachRateLimiter(limiter UploadLimiter) {
	s.limiter = limiter
}

// Upload spools the body to a temp file, hands it to the media host and
// records the post. Nothing is persisted unless the host answers 200.
func (s *Service) Upload(ctx context.Context, in UploadInput) (model.Post, error) {
	if in.UserID == uuid.Nil || in.Body == nil || !validate.Required(in.FileName) {
		return model.Post{}, ErrValidation
	}
	if s.host == nil {
		return model.Post{}, fmt.Errorf("%w: media host is not configured", ErrUpstream)
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.AllowUpload(ctx, in.UserID)
		if err != nil {
			return model.Post{}, fmt.Errorf("check upload rate: %w", err)
		}
		if !allowed {
			return model.Post{}, &RateLimitError{RetryAfterSec: retryAfter}
		}
	}

	fileName := filepath.Base(in.FileName)
	tmp, err := os.CreateTemp(s.cfg.TempDir, TempFilePattern+filepath.Ext(fileName))
	if err != nil {
		return model.Post{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, in.Body); err != nil {
		return model.Post{}, fmt.Errorf("spool upload: %w", err)
	}

	result, err := s.host.Upload(ctx, tmp, fileName, mediahost.UploadOptions{
		UseUniqueFileName: true,
		Tags:              []string{s.cfg.Tag},
		ContentType:       in.ContentType,
	})
	if err != nil {
		return model.Post{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if result.StatusCode != http.StatusOK {
		return model.Post{}, fmt.Errorf("%w: media host answered %d", ErrUpstream, result.StatusCode)
	}

	created, err := s.posts.Create(ctx, model.Post{
		ID:        uuid.New(),
		UserID:    in.UserID,
		Caption:   in.Caption,
		URL:       result.URL,
		FileType:  enums.MediaKindFromContentType(in.ContentType),
		FileName:  result.Name,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return model.Post{}, fmt.Errorf("create post: %w", err)
	}

	return created, nil
}

// Feed returns every post newest first, annotated for the caller.
func (s *Service) Feed(ctx context.Context, callerID uuid.UUID) ([]PostView, error) {
	posts, err := s.posts.ListNewestFirst(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	emails := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		emails[u.ID] = u.Email
	}

	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		email, ok := emails[p.UserID]
		if !ok {
			email = unknownEmail
		}
		views = append(views, PostView{
			Post:    p,
			Email:   email,
			IsOwner: p.UserID == callerID,
		})
	}

	return views, nil
}

func (s *Service) Delete(ctx context.Context, callerID, postID uuid.UUID) error {
	if postID == uuid.Nil {
		return ErrValidation
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get post: %w", err)
	}
	if post.UserID != callerID {
		return ErrForbidden
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}
