// Package session resolves opaque session ids to inventory actors. Sessions
// are issued by whatever signs users in; this service only reads them, plus
// the CLI's session:issue for operators.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNoSession = errors.New("session not found")

// AppSessionStore keeps one JSON blob per session plus a per-actor index set.
type AppSessionStore struct {
	rdb redis.Cmdable
	ttl time.Duration
	now func() time.Time
}

func NewAppSessionStore(rdb redis.Cmdable, ttl time.Duration) *AppSessionStore {
	return &AppSessionStore{rdb: rdb, ttl: ttl, now: time.Now}
}

type AppSession struct {
	UserID    string `json:"uid"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

func (as AppSession) expired(at time.Time) bool {
	return as.ExpiresAt > 0 && at.Unix() >= as.ExpiresAt
}

func sessionKey(id string) string     { return fmt.Sprintf("inv:sess:%s", id) }
func actorIndexKey(uid string) string { return fmt.Sprintf("inv:user_sessions:%s", uid) }

// Issue stores a new session for userID and returns its id.
func (s *AppSessionStore) Issue(ctx context.Context, userID string) (string, error) {
	id := uuid.NewString()
	now := s.now()
	blob, err := json.Marshal(AppSession{UserID: userID, IssuedAt: now.Unix(), ExpiresAt: now.Add(s.ttl).Unix()})
	if err != nil {
		return "", err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(id), blob, s.ttl)
	pipe.SAdd(ctx, actorIndexKey(userID), id)
	pipe.Expire(ctx, actorIndexKey(userID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return id, nil
}

// Get returns ErrNoSession for unknown, expired or unreadable ids.
func (s *AppSessionStore) Get(ctx context.Context, id string) (*AppSession, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrNoSession
	case err != nil:
		return nil, err
	}
	var as AppSession
	if err := json.Unmarshal(raw, &as); err != nil || as.UserID == "" {
		return nil, ErrNoSession
	}
	if as.expired(s.now()) {
		return nil, ErrNoSession
	}
	return &as, nil
}

func (s *AppSessionStore) Delete(ctx context.Context, id string) error {
	as, err := s.Get(ctx, id)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, actorIndexKey(as.UserID), id)
	_, err = pipe.Exec(ctx)
	return err
}

// RevokeAllForUser drops every session of userID and reports how many there were.
func (s *AppSessionStore) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	ids, err := s.rdb.SMembers(ctx, actorIndexKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	pipe := s.rdb.TxPipeline()
	for _, sid := range ids {
		pipe.Del(ctx, sessionKey(sid))
	}
	pipe.Del(ctx, actorIndexKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(ids), nil
}
