package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/quizbot/core/cache"
	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/quiz"
)

const updateAttempts = 3

// RedisRepository stores each session as a JSON string.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

var _ quiz.SessionRepository = (*RedisRepository)(nil)

// NewRedisRepository creates a repository; a positive ttl is refreshed on every write.
func NewRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	return &RedisRepository{client: client, ttl: ttl}
}

func sessionKey(userID int64) string {
	return cache.UserKey("session", userID)
}

func (r *RedisRepository) Create(ctx context.Context, s *quiz.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	key := sessionKey(s.UserID)
	if err := r.client.Set(ctx, key, string(data), r.ttl).Err(); err != nil {
		logger.Error(ctx, "store", "session.create",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("session: set %s: %w", key, err)
	}
	return nil
}

func (r *RedisRepository) Get(ctx context.Context, userID int64) (*quiz.Session, error) {
	return r.get(ctx, r.client, userID)
}

func (r *RedisRepository) get(ctx context.Context, c redis.Cmdable, userID int64) (*quiz.Session, error) {
	key := sessionKey(userID)
	raw, err := c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, quiz.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: get %s: %w", key, err)
	}
	var s quiz.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		logger.Warn(ctx, "store", "session.decode",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("session: decode %s: %w", key, err)
	}
	return &s, nil
}

// Update runs fn inside an optimistic WATCH transaction and retries on conflicts.
func (r *RedisRepository) Update(ctx context.Context, userID int64, fn func(*quiz.Session) error) (*quiz.Session, error) {
	key := sessionKey(userID)
	var out *quiz.Session
	txf := func(tx *redis.Tx) error {
		s, err := r.get(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("session: marshal: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(data), r.ttl)
			return nil
		})
		if err == nil {
			out = s
		}
		return err
	}

	for i := 0; i < updateAttempts; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			logger.Debug(ctx, "store", "session.update.retry", slog.Int("attempt", i+1))
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("session: update %s: too many conflicts", key)
}

func (r *RedisRepository) Delete(ctx context.Context, userID int64) error {
	key := sessionKey(userID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("session: del %s: %w", key, err)
	}
	return nil
}
