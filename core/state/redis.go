package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/quizbot/core/cache"
)

const (
	stateField = "state"
	tempPrefix = "t:"
)

type redisManager struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisManager stores each user's conversation as one Redis hash.
// A positive ttl is refreshed on every write.
func NewRedisManager(client redis.Cmdable, ttl time.Duration) Manager {
	return &redisManager{client: client, ttl: ttl}
}

func (m *redisManager) key(userID int64) string {
	return cache.UserKey("state", userID)
}

func (m *redisManager) write(ctx context.Context, userID int64, field, value string) error {
	key := m.key(userID)
	if err := m.client.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("state: hset %s: %w", key, err)
	}
	if m.ttl > 0 {
		if err := m.client.Expire(ctx, key, m.ttl).Err(); err != nil {
			return fmt.Errorf("state: expire %s: %w", key, err)
		}
	}
	return nil
}

func (m *redisManager) read(ctx context.Context, userID int64, field string) (string, bool, error) {
	key := m.key(userID)
	v, err := m.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("state: hget %s: %w", key, err)
	}
	return v, true, nil
}

func (m *redisManager) GetState(ctx context.Context, userID int64) (State, error) {
	v, ok, err := m.read(ctx, userID, stateField)
	if err != nil || !ok {
		return StateIdle, err
	}
	return State(v), nil
}

func (m *redisManager) SetState(ctx context.Context, userID int64, st State) error {
	return m.write(ctx, userID, stateField, string(st))
}

func (m *redisManager) SetTemp(ctx context.Context, userID int64, key, value string) error {
	return m.write(ctx, userID, tempPrefix+key, value)
}

func (m *redisManager) GetTemp(ctx context.Context, userID int64, key string) (string, bool, error) {
	return m.read(ctx, userID, tempPrefix+key)
}

func (m *redisManager) Clear(ctx context.Context, userID int64) error {
	key := m.key(userID)
	if err := m.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("state: del %s: %w", key, err)
	}
	return nil
}
