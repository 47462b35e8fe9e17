package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/auth"
)

func TestSessionRepoRotateAndDelete(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewSessionRepo(client)
	ctx := context.Background()

	userID := uuid.New()
	session := authsvc.SessionRecord{SID: "sid-1", UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Create(ctx, session, "refresh-1"); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := repo.GetByRefreshToken(ctx, "refresh-1")
	if err != nil {
		t.Fatalf("get by refresh: %v", err)
	}
	if got.SID != "sid-1" || got.UserID != userID {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := repo.RotateRefresh(ctx, "sid-1", "refresh-1", "refresh-2", time.Now().Add(2*time.Hour)); err != nil {
		t.Fatalf("rotate refresh: %v", err)
	}
	if _, err := repo.GetByRefreshToken(ctx, "refresh-1"); !errors.Is(err, authsvc.ErrRefreshNotFound) {
		t.Fatalf("old refresh token should be gone, got err=%v", err)
	}
	if mr.TTL(sessionKey("sid-1")) <= time.Hour {
		t.Fatalf("session ttl should be extended on rotation")
	}

	if err := repo.DeleteSession(ctx, "sid-1"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := repo.GetSession(ctx, "sid-1"); !errors.Is(err, authsvc.ErrSessionNotFound) {
		t.Fatalf("session should be gone, got err=%v", err)
	}
	if mr.Exists(refreshKey(tokenDigest("refresh-2"))) {
		t.Fatalf("refresh token should be removed with its session")
	}
}

func TestSessionRepoDeleteAllForUser(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewSessionRepo(client)
	ctx := context.Background()

	userID := uuid.New()
	for _, sid := range []string{"a", "b"} {
		rec := authsvc.SessionRecord{SID: sid, UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}
		if err := repo.Create(ctx, rec, "refresh-"+sid); err != nil {
			t.Fatalf("create session %s: %v", sid, err)
		}
	}

	if err := repo.DeleteAllForUser(ctx, userID); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	for _, sid := range []string{"a", "b"} {
		if _, err := repo.GetSession(ctx, sid); !errors.Is(err, authsvc.ErrSessionNotFound) {
			t.Fatalf("session %s should be gone, got err=%v", sid, err)
		}
	}
}

func TestSessionRepoRejectsNilUser(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewSessionRepo(client)

	err := repo.Create(context.Background(), authsvc.SessionRecord{SID: "x", ExpiresAt: time.Now().Add(time.Hour)}, "r")
	if !errors.Is(err, authsvc.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRateRepoWindowExpires(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewRateRepo(client)
	ctx := context.Background()

	for want := int64(1); want <= 2; want++ {
		count, ttl, err := repo.IncrementWindow(ctx, "rate:test", 10*time.Second)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if count != want || ttl <= 0 {
			t.Fatalf("unexpected window state: count=%d ttl=%s", count, ttl)
		}
	}

	mr.FastForward(11 * time.Second)

	count, _, err := repo.IncrementWindow(ctx, "rate:test", 10*time.Second)
	if err != nil {
		t.Fatalf("increment after expiry: %v", err)
	}
	if count != 1 {
		t.Fatalf("window should restart, got count=%d", count)
	}
}

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
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
	return mr, client
}

func TestSessionRepoStoresRefreshDigestOnly(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewSessionRepo(client)

	rec := authsvc.SessionRecord{SID: "sid-d", UserID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Create(context.Background(), rec, "plain-refresh"); err != nil {
		t.Fatalf("create session: %v", err)
	}

	for _, key := range mr.Keys() {
		if strings.Contains(key, "plain-refresh") {
			t.Fatalf("raw refresh token leaked into key %q", key)
		}
	}
	if got, _ := mr.Get(sessionRefreshKey("sid-d")); got != tokenDigest("plain-refresh") {
		t.Fatalf("unexpected refresh pointer: %q", got)
	}
}
