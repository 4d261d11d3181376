// Package session keeps server-side login sessions in Redis.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"finance_tracker/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store binds session ids to user ids
type Store interface {
	Create(ctx context.Context, userID uint, ttl time.Duration) (string, error)
	Lookup(ctx context.Context, sessionID string) (uint, error)
	Revoke(ctx context.Context, sessionID string) error
}

// RedisStore keeps one key per session, expiring with the session
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis backed session store
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func key(sessionID string) string {
	return "session:" + sessionID
}

// Create opens a session for userID that expires after ttl
func (s *RedisStore) Create(ctx context.Context, userID uint, ttl time.Duration) (string, error) {
	id := uuid.NewString()
	if err := s.rdb.Set(ctx, key(id), strconv.FormatUint(uint64(userID), 10), ttl).Err(); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// Lookup returns the user bound to a live session, or domain.ErrUnauthenticated
func (s *RedisStore) Lookup(ctx context.Context, sessionID string) (uint, error) {
	val, err := s.rdb.Get(ctx, key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrUnauthenticated
	}
	if err != nil {
		return 0, fmt.Errorf("lookup session: %w", err)
	}
	userID, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("lookup session: corrupt value: %w", err)
	}
	return uint(userID), nil
}

// Revoke ends a session. Revoking an unknown session is not an error.
func (s *RedisStore) Revoke(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
