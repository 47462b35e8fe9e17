package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/auth"
)

// Key layout:
//
//	auth:session:<sid>        hash  user_id, expires_at
//	auth:refresh:<sha256>     hash  user_id, expires_at, sid
//	auth:session:<sid>:rt     string  sha256 of the live refresh token
//	auth:user:<uuid>:sessions set of sids
//
// Refresh tokens are stored by digest only.
const keyspace = "auth:"

type SessionRepo struct {
	client *goredis.Client
}

func NewSessionRepo(client *goredis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func (r *SessionRepo) Create(ctx context.Context, session authsvc.SessionRecord, refreshToken string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(session.SID) == "" || strings.TrimSpace(refreshToken) == "" || session.UserID == uuid.Nil {
		return authsvc.ErrInvalidInput
	}

	pipe := r.client.TxPipeline()
	writeSession(ctx, pipe, session, tokenDigest(refreshToken))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create redis session: %w", err)
	}
	return nil
}

func (r *SessionRepo) GetSession(ctx context.Context, sid string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}

	session, found, err := r.loadHash(ctx, sessionKey(sid))
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("get session hash: %w", err)
	}
	if !found {
		return authsvc.SessionRecord{}, authsvc.ErrSessionNotFound
	}
	session.SID = sid
	return session, nil
}

func (r *SessionRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}

	session, found, err := r.loadHash(ctx, refreshKey(tokenDigest(refreshToken)))
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("get refresh hash: %w", err)
	}
	if !found || session.SID == "" {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}
	return session, nil
}

// RotateRefresh swaps the refresh token of a session and moves every key of
// the session to the new expiry.
func (r *SessionRepo) RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(newRefreshToken) == "" {
		return authsvc.ErrInvalidInput
	}

	session, err := r.GetByRefreshToken(ctx, oldRefreshToken)
	if err != nil {
		return err
	}
	if sid != "" && sid != session.SID {
		return authsvc.ErrRefreshNotFound
	}
	session.ExpiresAt = expiresAt

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, refreshKey(tokenDigest(oldRefreshToken)))
	writeSession(ctx, pipe, session, tokenDigest(newRefreshToken))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	return nil
}

func (r *SessionRepo) DeleteSession(ctx context.Context, sid string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" {
		return nil
	}

	session, found, err := r.loadHash(ctx, sessionKey(sid))
	if err != nil {
		return fmt.Errorf("load session for delete: %w", err)
	}
	digest, err := r.client.Get(ctx, sessionRefreshKey(sid)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("load session refresh pointer: %w", err)
	}

	pipe := r.client.TxPipeline()
	dropSession(ctx, pipe, sid, digest)
	if found {
		pipe.SRem(ctx, userSessionsKey(session.UserID), sid)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteAllForUser ends every session of the user in one transaction.
func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID == uuid.Nil {
		return authsvc.ErrInvalidInput
	}

	sids, err := r.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	digests := make([]string, len(sids))
	if len(sids) > 0 {
		keys := make([]string, len(sids))
		for i, sid := range sids {
			keys[i] = sessionRefreshKey(sid)
		}
		values, err := r.client.MGet(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("load refresh pointers: %w", err)
		}
		for i, v := range values {
			if s, ok := v.(string); ok {
				digests[i] = s
			}
		}
	}

	pipe := r.client.TxPipeline()
	for i, sid := range sids {
		dropSession(ctx, pipe, sid, digests[i])
	}
	pipe.Del(ctx, userSessionsKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (r *SessionRepo) loadHash(ctx context.Context, key string) (authsvc.SessionRecord, bool, error) {
	values, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return authsvc.SessionRecord{}, false, err
	}
	if len(values) == 0 {
		return authsvc.SessionRecord{}, false, nil
	}
	session, err := parseSessionRecord(values)
	if err != nil {
		return authsvc.SessionRecord{}, false, err
	}
	return session, true, nil
}

func writeSession(ctx context.Context, pipe goredis.Pipeliner, session authsvc.SessionRecord, digest string) {
	ttl := ttlFor(session.ExpiresAt)
	userID := session.UserID.String()
	expires := session.ExpiresAt.Unix()

	pipe.HSet(ctx, sessionKey(session.SID), "user_id", userID, "expires_at", expires)
	pipe.Expire(ctx, sessionKey(session.SID), ttl)

	pipe.HSet(ctx, refreshKey(digest), "user_id", userID, "expires_at", expires, "sid", session.SID)
	pipe.Expire(ctx, refreshKey(digest), ttl)

	pipe.Set(ctx, sessionRefreshKey(session.SID), digest, ttl)
	pipe.SAdd(ctx, userSessionsKey(session.UserID), session.SID)
	pipe.Expire(ctx, userSessionsKey(session.UserID), ttl)
}

func dropSession(ctx context.Context, pipe goredis.Pipeliner, sid, digest string) {
	pipe.Del(ctx, sessionKey(sid), sessionRefreshKey(sid))
	if digest != "" {
		pipe.Del(ctx, refreshKey(digest))
	}
}

func parseSessionRecord(values map[string]string) (authsvc.SessionRecord, error) {
	userID, err := uuid.Parse(values["user_id"])
	if err != nil || userID == uuid.Nil {
		return authsvc.SessionRecord{}, authsvc.ErrUnauthorized
	}
	expiresUnix, err := strconv.ParseInt(values["expires_at"], 10, 64)
	if err != nil {
		return authsvc.SessionRecord{}, authsvc.ErrUnauthorized
	}

	return authsvc.SessionRecord{
		SID:       strings.TrimSpace(values["sid"]),
		UserID:    userID,
		ExpiresAt: time.Unix(expiresUnix, 0).UTC(),
	}, nil
}

func ttlFor(expiresAt time.Time) time.Duration {
	if ttl := time.Until(expiresAt); ttl > 0 {
		return ttl
	}
	return time.Second
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func sessionKey(sid string) string        { return keyspace + "session:" + sid }
func sessionRefreshKey(sid string) string { return keyspace + "session:" + sid + ":rt" }
func refreshKey(digest string) string     { return keyspace + "refresh:" + digest }

func userSessionsKey(userID uuid.UUID) string {
	return keyspace + "user:" + userID.String() + ":sessions"
}
