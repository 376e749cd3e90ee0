package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisTokenStore keeps the token slot under a single Redis key.
type RedisTokenStore struct {
	client redis.Cmdable
	key    string
}

// NewRedisTokenStore returns a store writing to "<prefix>:<slot>".
func NewRedisTokenStore(client redis.Cmdable, prefix, slot string) *RedisTokenStore {
	if prefix == "" {
		prefix = "vidfriends"
	}
	return &RedisTokenStore{client: client, key: prefix + ":" + slotOrDefault(slot)}
}

// Key is the Redis key holding the token.
func (s *RedisTokenStore) Key() string {
	return s.key
}

// Save stores or replaces the token. The key never expires; only Clear removes it.
func (s *RedisTokenStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Load returns the stored token, or an empty string when the key is absent.
func (s *RedisTokenStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return token, nil
}

// Clear deletes the key. Deleting an absent key is not an error.
func (s *RedisTokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.key, err)
	}
	return nil
}
