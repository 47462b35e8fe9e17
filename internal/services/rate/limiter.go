package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type window struct {
	name   string
	length time.Duration
	limit  int
}

// Limiter applies fixed per-user windows to uploads. A limit of zero
// disables the window.
type Limiter struct {
	store   WindowStore
	windows []window
}

func NewLimiter(store WindowStore, perMinute, per10Sec int) *Limiter {
	l := &Limiter{store: store}
	if perMinute > 0 {
		l.windows = append(l.windows, window{name: "min", length: time.Minute, limit: perMinute})
	}
	if per10Sec > 0 {
		l.windows = append(l.windows, window{name: "10s", length: 10 * time.Second, limit: per10Sec})
	}
	return l
}

// AllowUpload counts one upload attempt and reports how many seconds the
// caller must wait when any window is exhausted.
func (l *Limiter) AllowUpload(ctx context.Context, userID uuid.UUID) (int64, bool, error) {
	if userID == uuid.Nil {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, w := range l.windows {
		count, ttl, err := l.store.IncrementWindow(ctx, uploadKey(w.name, userID), w.length)
		if err != nil {
			return 0, false, err
		}
		if count > int64(w.limit) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}
	return 0, true, nil
}

func uploadKey(window string, userID uuid.UUID) string {
	return "rate:uploads:" + window + ":" + userID.String()
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 1
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	return max(sec, 1)
}
