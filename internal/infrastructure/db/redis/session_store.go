package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

// SessionStore keeps sessions in Redis so they survive a restart of the API.
// Key format: session:<session_id>
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Save writes s with the given time-to-live.
func (st *SessionStore) Save(ctx context.Context, s *domain.Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return storeErr("save session", st.client.Set(ctx, sessionKey(s.ID), raw, ttl).Err())
}

// Find loads a session. Erased or expired sessions yield domain.ErrSessionNotFound.
func (st *SessionStore) Find(ctx context.Context, sessionID string) (*domain.Session, error) {
	raw, err := st.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, storeErr("find session", err)
	}

	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Delete erases a session. Deleting a missing session is not an error.
func (st *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return storeErr("delete session", st.client.Del(ctx, sessionKey(sessionID)).Err())
}

func sessionKey(id string) string {
	return "session:" + id
}
