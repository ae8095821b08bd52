package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// SessionRevocations remembers logged-out session ids until their tokens expire.
type SessionRevocations struct {
	client *redisv9.Client
}

func NewSessionRevocations(client *redisv9.Client) *SessionRevocations {
	return &SessionRevocations{client: client}
}

func (s *SessionRevocations) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.key(sessionID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis revoke session failed: %w", err)
	}
	return nil
}

func (s *SessionRevocations) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check revoked session failed: %w", err)
	}
	return exists > 0, nil
}

func (s *SessionRevocations) key(sessionID string) string {
	return fmt.Sprintf("shop:session:revoked:%s", sessionID)
}
