package mediahost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// ObjectStore hosts media in an S3-compatible bucket.
type ObjectStore struct {
	client    *minio.Client
	bucket    string
	publicURL string

	ensureOnce sync.Once
	ensureErr  error
}

func NewObjectStore(client *minio.Client, bucket, publicURL string) *ObjectStore {
	return &ObjectStore{
		client:    client,
		bucket:    strings.TrimSpace(bucket),
		publicURL: strings.TrimRight(strings.TrimSpace(publicURL), "/"),
	}
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if s.bucket == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	s.ensureOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.ensureErr = err
			return
		}
		if exists {
			return
		}
		s.ensureErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	})

	if s.ensureErr != nil {
		return fmt.Errorf("ensure s3 bucket %q: %w", s.bucket, s.ensureErr)
	}

	return nil
}

func (s *ObjectStore) Upload(ctx context.Context, file *os.File, fileName string, opts UploadOptions) (UploadResult, error) {
	if file == nil {
		return UploadResult{}, &UploadError{Op: "prepare upload", Err: errors.New("file is nil")}
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return UploadResult{}, &UploadError{Op: "ensure bucket", StatusCode: statusOf(err), Err: err}
	}

	info, err := file.Stat()
	if err != nil {
		return UploadResult{}, &UploadError{Op: "stat file", Err: err}
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return UploadResult{}, &UploadError{Op: "rewind file", Err: err}
	}

	key := objectKey(fileName, opts.UseUniqueFileName)
	putOpts := minio.PutObjectOptions{ContentType: opts.ContentType}
	if len(opts.Tags) > 0 {
		putOpts.UserTags = make(map[string]string, len(opts.Tags))
		for _, tag := range opts.Tags {
			putOpts.UserTags[tag] = "true"
		}
	}

	uploaded, err := s.client.PutObject(ctx, s.bucket, key, file, info.Size(), putOpts)
	if err != nil {
		return UploadResult{}, &UploadError{Op: "put object", StatusCode: statusOf(err), Err: err}
	}

	return UploadResult{
		URL:        s.publicURL + "/" + s.bucket + "/" + key,
		Name:       key,
		FileID:     uploaded.ETag,
		StatusCode: http.StatusOK,
	}, nil
}

func objectKey(fileName string, unique bool) string {
	base := filepath.Base(strings.TrimSpace(fileName))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	if !unique {
		return base
	}
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return stem + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10] + ext
}

func statusOf(err error) int {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode
}
