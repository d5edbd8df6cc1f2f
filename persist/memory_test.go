package persist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/tiered-cache/types"
)

func TestMemoryTier_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryTier(0)

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", "v1"))
	require.NoError(t, m.Set(ctx, "k", "v2"))

	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)
	assert.EqualValues(t, 3, m.Used())

	require.NoError(t, m.Remove(ctx, "k"))
	require.NoError(t, m.Remove(ctx, "k"), "remove is idempotent")
	assert.EqualValues(t, 0, m.Used())
}

func TestMemoryTier_Quota(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryTier(10)

	require.NoError(t, m.Set(ctx, "a", "1234")) // 5
	require.NoError(t, m.Set(ctx, "b", "1234")) // 10

	err := m.Set(ctx, "c", "1")
	assert.ErrorIs(t, err, types.ErrQuotaExceeded)
	_, ok, _ := m.Get(ctx, "c")
	assert.False(t, ok, "rejected write leaves nothing behind")

	// Overwriting with a same-size value fits.
	require.NoError(t, m.Set(ctx, "a", "abcd"))
	// Growing an existing value past the quota does not.
	assert.ErrorIs(t, m.Set(ctx, "a", "abcde"), types.ErrQuotaExceeded)

	require.NoError(t, m.Remove(ctx, "b"))
	require.NoError(t, m.Set(ctx, "c", "1"))
	assert.EqualValues(t, 7, m.Used())
}

func TestMemoryTier_KeysSorted(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryTier(0)
	for _, k := range []string{"cache_b", "other", "cache_a"} {
		require.NoError(t, m.Set(ctx, k, "x"))
	}

	keys, err := m.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cache_a", "cache_b", "other"}, keys)

	m.Wipe()
	keys, err = m.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.EqualValues(t, 0, m.Used())
}

func TestMemoryTier_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemoryTier(0)

	var serr *types.StorageError
	assert.ErrorAs(t, m.Set(ctx, "k", "v"), &serr)
	assert.Equal(t, "set", serr.Op)
	assert.ErrorIs(t, serr, context.Canceled)

	_, _, err := m.Get(ctx, "k")
	assert.ErrorAs(t, err, &serr)
	_, err = m.Keys(ctx)
	assert.ErrorAs(t, err, &serr)
	assert.ErrorAs(t, m.Remove(ctx, "k"), &serr)
}
