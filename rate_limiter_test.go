package rest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateStore_CountsPerKey(t *testing.T) {
	store := NewMemoryRateStore()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		count, remaining, err := store.Incr(ctx, "1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, count)
		assert.Greater(t, remaining, time.Duration(0))
	}

	// A different key has its own counter.
	count, _, err := store.Incr(ctx, "5.6.7.8", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryRateStore_WindowReset(t *testing.T) {
	store := NewMemoryRateStore()
	ctx := context.Background()

	count, _, err := store.Incr(ctx, "key", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, _, err = store.Incr(ctx, "key", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	time.Sleep(30 * time.Millisecond)

	count, _, err = store.Incr(ctx, "key", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "counter must restart after the window passes")
}

func TestMemoryRateStore_SweepsExpiredCounters(t *testing.T) {
	store := NewMemoryRateStore()
	ctx := context.Background()

	_, _, err := store.Incr(ctx, "short-a", 10*time.Millisecond)
	require.NoError(t, err)
	_, _, err = store.Incr(ctx, "short-b", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	time.Sleep(20 * time.Millisecond)

	// Any increment evicts the dead counters.
	_, _, err = store.Incr(ctx, "fresh", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryRateStore_ConcurrentIncrements(t *testing.T) {
	store := NewMemoryRateStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.Incr(ctx, "shared", time.Minute)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, _, err := store.Incr(ctx, "shared", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(51), count, "no increment may be lost under concurrency")
}

func TestAdmit(t *testing.T) {
	store := NewMemoryRateStore()
	ctx := context.Background()
	limit := RateLimit{Max: 2, Window: time.Minute}

	t.Run("admits until the ceiling", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			decision, err := admit(ctx, store, "client", limit)
			require.NoError(t, err)
			assert.True(t, decision.Allowed)
			assert.Zero(t, decision.RetryAfterSeconds)
		}
	})

	t.Run("rejects the request after the ceiling with a retry hint", func(t *testing.T) {
		decision, err := admit(ctx, store, "client", limit)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, int64(3), decision.Count)
		assert.Greater(t, decision.RetryAfterSeconds, 0)
	})

	t.Run("other keys remain unaffected", func(t *testing.T) {
		decision, err := admit(ctx, store, "other-client", limit)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	})
}
