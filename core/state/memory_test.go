package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryManagerDefaults(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager(0)

	st, err := m.GetState(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, st)

	_, ok, err := m.GetTemp(ctx, 1, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryManagerStateAndTemp(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager(0)

	require.NoError(t, m.SetState(ctx, 1, State("quiz")))
	require.NoError(t, SetTempInt64(ctx, m, 1, "category", 23))
	require.NoError(t, m.SetTemp(ctx, 1, "broken", "x1"))

	st, err := m.GetState(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, State("quiz"), st)

	v, ok, err := GetTempInt64(ctx, m, 1, "category")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(23), v)

	_, ok, err = GetTempInt64(ctx, m, 1, "broken")
	require.NoError(t, err)
	assert.False(t, ok, "unparsable values are reported as absent")

	// users are isolated
	st, err = m.GetState(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, st)

	require.NoError(t, m.Clear(ctx, 1))
	st, err = m.GetState(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, st)
	_, ok, _ = m.GetTemp(ctx, 1, "category")
	assert.False(t, ok)
}

func TestMemoryManagerTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryManager(time.Minute).(*memoryManager)
	m.now = func() time.Time { return now }

	require.NoError(t, m.SetState(ctx, 1, State("quiz")))
	require.NoError(t, m.SetTemp(ctx, 1, "k", "v"))

	now = now.Add(59 * time.Second)
	st, _ := m.GetState(ctx, 1)
	assert.Equal(t, State("quiz"), st)

	now = now.Add(2 * time.Minute)
	st, _ = m.GetState(ctx, 1)
	assert.Equal(t, StateIdle, st)

	// writing after expiry starts from a clean session
	require.NoError(t, m.SetState(ctx, 1, State("selecting")))
	_, ok, _ := m.GetTemp(ctx, 1, "k")
	assert.False(t, ok)
}

func TestMemoryManagerConcurrentUse(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager(0)

	var wg sync.WaitGroup
	for i := int64(0); i < 32; i++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			_ = m.SetState(ctx, uid, State("quiz"))
			_ = SetTempInt64(ctx, m, uid, "n", uid)
			_, _ = m.GetState(ctx, uid)
		}(i)
	}
	wg.Wait()

	for i := int64(0); i < 32; i++ {
		v, ok, err := GetTempInt64(ctx, m, i, "n")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}
