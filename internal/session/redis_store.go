package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "lark:session:"

// RedisStore keeps session state in Redis so it survives process restarts
// and is shared across instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, sessionID, field string) (string, error) {
	value, err := s.client.Get(ctx, redisKey(sessionID, field)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, sessionID, field, value string, ttl time.Duration) error {
	return s.client.Set(ctx, redisKey(sessionID, field), value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for _, field := range fields {
		keys = append(keys, redisKey(sessionID, field))
	}
	return s.client.Del(ctx, keys...).Err()
}

func redisKey(sessionID, field string) string {
	return redisKeyPrefix + sessionID + ":" + field
}
