package mediahost

import (
	"context"
	"fmt"
	"os"
)

// Host uploads a local file to remote media storage.
type Host interface {
	Upload(ctx context.Context, file *os.File, fileName string, opts UploadOptions) (UploadResult, error)
}

type UploadOptions struct {
	UseUniqueFileName bool
	Tags              []string
	ContentType       string
}

type UploadResult struct {
	URL        string
	Name       string
	FileID     string
	StatusCode int
}

// UploadError reports a failed upload. StatusCode is zero when no HTTP
// response was received.
type UploadError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *UploadError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("media host %s: status %d: %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("media host %s: %s", e.Op, msg)
}

func (e *UploadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
