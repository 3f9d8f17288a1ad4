package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *InMemoryIdempotencyStore {
	t.Helper()
	store := NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("fresh key is accepted", func(t *testing.T) {
		fresh, err := store.MarkProcessed(ctx, "bulk-upload:warehouses:u1:digest-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh)
	})

	t.Run("repeat inside the window is rejected", func(t *testing.T) {
		key := "bulk-upload:warehouses:u1:digest-2"

		fresh, err := store.MarkProcessed(ctx, key, time.Hour)
		require.NoError(t, err)
		require.True(t, fresh)

		fresh, err = store.MarkProcessed(ctx, key, time.Hour)
		require.NoError(t, err)
		assert.False(t, fresh, "identical submission inside the window must be flagged")
	})

	t.Run("key is accepted again after the window passes", func(t *testing.T) {
		key := "bulk-upload:warehouses:u1:digest-3"

		fresh, err := store.MarkProcessed(ctx, key, 10*time.Millisecond)
		require.NoError(t, err)
		require.True(t, fresh)

		time.Sleep(20 * time.Millisecond)

		fresh, err = store.MarkProcessed(ctx, key, 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, fresh)
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "never-seen")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "seen", time.Hour)
	require.NoError(t, err)

	processed, err = store.IsProcessed(ctx, "seen")
	require.NoError(t, err)
	assert.True(t, processed)

	_, err = store.MarkProcessed(ctx, "expiring", 10*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	processed, err = store.IsProcessed(ctx, "expiring")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestInMemoryIdempotencyStore_DropExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short-1", 10*time.Millisecond)
	_, _ = store.MarkProcessed(ctx, "short-2", 10*time.Millisecond)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)

	time.Sleep(20 * time.Millisecond)
	store.dropExpired()

	store.mu.RLock()
	remaining := len(store.deadlines)
	store.mu.RUnlock()
	assert.Equal(t, 1, remaining, "only the unexpired key should survive the sweep")

	processed, err := store.IsProcessed(ctx, "long")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentSubmissions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const workers = 100
	var wg sync.WaitGroup
	results := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fresh, err := store.MarkProcessed(ctx, "same-digest", time.Hour)
			results <- err == nil && fresh
		}()
	}
	wg.Wait()
	close(results)

	accepted := 0
	for fresh := range results {
		if fresh {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted, "exactly one of the racing submissions may win")
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
