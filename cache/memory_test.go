// Package cache_test contains tests for the cache package.
package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/cqrsbus/cache"
)

func newMemory(t *testing.T) *cache.Memory {
	t.Helper()

	store, err := cache.NewMemory(cache.MemoryConfig{CleanupInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(store.Stop)

	return store
}

func TestMemoryPutGet(t *testing.T) {
	store := newMemory(t)
	ctx := t.Context()

	require.NoError(t, store.Put(ctx, "balance:A1", 100.00, time.Minute))

	value, hit, err := store.Get(ctx, "balance:A1")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, 100.00, value)

	_, hit, err = store.Get(ctx, "balance:A2")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryTTLExpiry(t *testing.T) {
	store := newMemory(t)
	ctx := t.Context()

	require.NoError(t, store.Put(ctx, "balance:A1", 100.00, 20*time.Millisecond))

	_, hit, err := store.Get(ctx, "balance:A1")
	require.NoError(t, err)
	require.True(t, hit)

	time.Sleep(40 * time.Millisecond)

	_, hit, err = store.Get(ctx, "balance:A1")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryNoTTL(t *testing.T) {
	store := newMemory(t)
	ctx := t.Context()

	require.NoError(t, store.Put(ctx, "balance:A1", 100.00, 0))

	time.Sleep(30 * time.Millisecond)

	_, hit, err := store.Get(ctx, "balance:A1")
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestMemoryEvict(t *testing.T) {
	store := newMemory(t)
	ctx := t.Context()

	require.NoError(t, store.Put(ctx, "balance:A1", 100.00, time.Minute))
	require.NoError(t, store.Evict(ctx, "balance:A1"))

	_, hit, err := store.Get(ctx, "balance:A1")
	require.NoError(t, err)
	assert.False(t, hit)

	// Evicting an absent key is a no-op.
	require.NoError(t, store.Evict(ctx, "balance:A1"))
}

func TestMemoryClear(t *testing.T) {
	store := newMemory(t)
	ctx := t.Context()

	require.NoError(t, store.Put(ctx, "balance:A1", 100.00, time.Minute))
	require.NoError(t, store.Put(ctx, "balance:A2", 250.00, time.Minute))
	require.Equal(t, 2, store.Len())

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryJanitorSweepsExpired(t *testing.T) {
	store := newMemory(t)
	ctx := t.Context()

	require.NoError(t, store.Put(ctx, "balance:A1", 100.00, 15*time.Millisecond))

	assert.Eventually(t, func() bool {
		return store.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestJSONCodecRoundTrip(t *testing.T) {
	codec := cache.JSONCodec()

	data, err := codec.Marshal(map[string]any{"balance": 100.00})
	require.NoError(t, err)

	value, err := codec.Unmarshal(data)
	require.NoError(t, err)

	decoded, ok := value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 100.00, decoded["balance"])
}
