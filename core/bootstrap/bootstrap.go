package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/quizbot/core/cache"
	coreconfig "github.com/m3rciful/quizbot/core/config"
	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/state"
	"github.com/m3rciful/quizbot/quiz"
	"github.com/m3rciful/quizbot/session"
)

// Options control the bootstrap pipeline.
type Options struct {
	Config *coreconfig.Config

	LoggerInit   func(*coreconfig.Config) error
	ConnectRedis func(context.Context, coreconfig.RedisConfig) (*redis.Client, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Sessions quiz.SessionRepository
	States   state.Manager
	// Redis is nil for the memory backend.
	Redis *redis.Client
}

// Close releases the Redis connection, if any.
func (r *Result) Close() error {
	if r == nil || r.Redis == nil {
		return nil
	}
	return r.Redis.Close()
}

// Run initializes the logger and the session backend selected by sessions.backend.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	cfg := opts.Config

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	ttl := time.Duration(cfg.Sessions.TTLMinutes) * time.Minute

	res := &Result{}
	switch cfg.Sessions.Backend {
	case coreconfig.BackendRedis:
		connect := opts.ConnectRedis
		if connect == nil {
			connect = cache.NewRedisClient
		}
		client, err := connect(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: redis initialization failed: %w", err)
		}
		res.Redis = client
		res.Sessions = session.NewRedisRepository(client, ttl)
		res.States = state.NewRedisManager(client, ttl)
	case coreconfig.BackendMemory, "":
		res.Sessions = session.NewMemoryRepository(ttl)
		res.States = state.NewMemoryManager(ttl)
	default:
		return nil, fmt.Errorf("bootstrap: unknown sessions backend %q", cfg.Sessions.Backend)
	}

	logger.Info(ctx, "app", "sessions.backend",
		slog.String("backend", cfg.Sessions.Backend),
		slog.Duration("ttl", ttl),
	)
	return res, nil
}
