package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSessionPrefix namespaces revoked token ids.
const DefaultSessionPrefix = "session:revoked:"

// SessionStore keeps revoked token ids until they would have expired anyway.
type SessionStore struct {
	Cli    redis.Cmdable
	Prefix string
}

// NewSessionStore creates a SessionStore.
func NewSessionStore(cli redis.Cmdable, prefix string) *SessionStore {
	if prefix == "" {
		prefix = DefaultSessionPrefix
	}
	return &SessionStore{Cli: cli, Prefix: prefix}
}

func (s *SessionStore) key(tokenID string) string {
	return s.Prefix + tokenID
}

// Revoke marks tokenID as revoked for ttl.
func (s *SessionStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.Cli.Set(ctx, s.key(tokenID), "1", ttl).Err()
}

// IsRevoked reports whether tokenID was revoked. One read per call.
func (s *SessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.Cli.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
