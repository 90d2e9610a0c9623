package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/quizbot/core/config"
	"github.com/m3rciful/quizbot/core/state"
	"github.com/m3rciful/quizbot/session"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunMemoryBackend(t *testing.T) {
	cfg := &coreconfig.Config{Sessions: coreconfig.SessionsConfig{Backend: coreconfig.BackendMemory, TTLMinutes: 5}}

	res, err := Run(context.Background(), Options{Config: cfg, LoggerInit: noLogger})
	require.NoError(t, err)
	assert.IsType(t, &session.MemoryRepository{}, res.Sessions)
	assert.NotNil(t, res.States)
	assert.Nil(t, res.Redis)
	assert.NoError(t, res.Close())

	uid := int64(7)
	require.NoError(t, res.States.SetState(context.Background(), uid, state.State("quiz")))
	got, err := res.States.GetState(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, state.State("quiz"), got)
}

func TestRunRedisBackend(t *testing.T) {
	cfg := &coreconfig.Config{
		Sessions: coreconfig.SessionsConfig{Backend: coreconfig.BackendRedis},
		Redis:    coreconfig.RedisConfig{Addr: "127.0.0.1:0"},
	}

	var gotAddr string
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	res, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noLogger,
		ConnectRedis: func(_ context.Context, rc coreconfig.RedisConfig) (*redis.Client, error) {
			gotAddr = rc.Addr
			return client, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", gotAddr)
	assert.Same(t, client, res.Redis)
	assert.IsType(t, &session.RedisRepository{}, res.Sessions)
	assert.NoError(t, res.Close())
}

func TestRunFailures(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return boom },
	})
	assert.ErrorIs(t, err, boom)

	_, err = Run(context.Background(), Options{
		Config:     &coreconfig.Config{Sessions: coreconfig.SessionsConfig{Backend: coreconfig.BackendRedis}},
		LoggerInit: noLogger,
		ConnectRedis: func(context.Context, coreconfig.RedisConfig) (*redis.Client, error) {
			return nil, boom
		},
	})
	assert.ErrorIs(t, err, boom)

	_, err = Run(context.Background(), Options{
		Config:     &coreconfig.Config{Sessions: coreconfig.SessionsConfig{Backend: "etcd"}},
		LoggerInit: noLogger,
	})
	assert.Error(t, err)
}
