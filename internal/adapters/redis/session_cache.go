package redis

// Package redis provides the Redis-backed persisted-session slot used for
// cold-start session restore.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/larderhq/larder-go/internal/domain/auth"
	apperrors "github.com/larderhq/larder-go/internal/errors"
	"github.com/larderhq/larder-go/internal/ports"
)

const defaultSessionKey = "larder:session"

// SessionCache persists the most recent session in a single Redis slot so a
// restarted agent cold-starts with the last known session. TTL follows the
// session's token expiry.
type SessionCache struct {
	client redis.UniversalClient
	key    string
}

// NewSessionCache creates a session cache on the default key.
func NewSessionCache(client redis.UniversalClient) *SessionCache {
	return NewSessionCacheWithKey(client, defaultSessionKey)
}

// NewSessionCacheWithKey creates a session cache on a custom key.
func NewSessionCacheWithKey(client redis.UniversalClient, key string) *SessionCache {
	if key == "" {
		key = defaultSessionKey
	}
	return &SessionCache{client: client, key: key}
}

// Save stores the session with a TTL matching its remaining lifetime.
// Already-expired sessions are rejected rather than written with no TTL.
func (c *SessionCache) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	ttl := sess.TTL(time.Now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return c.client.Set(ctx, c.key, data, ttl).Err()
}

// Load returns the cached session, or a typed not-found error when the slot
// is empty or the cached session has expired.
func (c *SessionCache) Load(ctx context.Context) (domainauth.Session, error) {
	data, err := c.client.Get(ctx, c.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, apperrors.NotFound("no cached session")
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}

	// Redis TTL should have evicted an expired session already; double-check
	// and clear the slot if it has not.
	if sess.Expired(time.Now()) {
		if clearErr := c.Clear(ctx); clearErr != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", clearErr)
		}
		return domainauth.Session{}, apperrors.NotFound("cached session expired")
	}

	return sess, nil
}

// Clear empties the session slot.
func (c *SessionCache) Clear(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}

var _ ports.SessionCache = (*SessionCache)(nil)
