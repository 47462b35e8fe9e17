package cleanup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Job removes spooled upload files left behind by crashed processes.
type Job struct {
	dir        string
	pattern    string
	staleAfter time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

func NewTempUploadSweep(dir, pattern string, staleAfter time.Duration, logger *zap.Logger) *Job {
	if staleAfter <= 0 {
		staleAfter = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		dir:        dir,
		pattern:    pattern,
		staleAfter: staleAfter,
		now:        time.Now,
		logger:     logger,
	}
}

// Run removes stale matches in the configured directory. Without a dedicated
// directory there is nothing the job owns, so it does nothing.
func (j *Job) Run(ctx context.Context) error {
	if j.dir == "" {
		j.logger.Debug("temp upload sweep skipped, no upload directory configured")
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(j.dir, j.pattern))
	if err != nil {
		return fmt.Errorf("glob temp uploads: %w", err)
	}

	cutoff := j.now().Add(-j.staleAfter)
	removed := 0
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			j.logger.Warn("failed to remove stale temp upload", zap.Error(err), zap.String("path", path))
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.Info("cleanup stale temp uploads completed", zap.Int("deleted", removed))
	}
	return nil
}
