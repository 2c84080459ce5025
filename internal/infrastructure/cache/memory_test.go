package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motointel/backend/internal/domain"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", time.Hour))

	got, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache()

	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err := c.Get(ctx, "key")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	exists, err := c.Exists(ctx, "key")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", time.Hour))
	require.NoError(t, c.Delete(ctx, "key"))

	_, err := c.Get(ctx, "key")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCacheSizeAndClear(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, time.Hour))
	require.NoError(t, c.Set(ctx, "b", 2, time.Hour))
	assert.Equal(t, 2, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCacheStoresStructuredValues(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	rows := []domain.ExchangeRate{{FromCurrency: "EUR", ToCurrency: "TRY"}}
	require.NoError(t, c.Set(ctx, "rates", rows, time.Hour))

	got, err := c.Get(ctx, "rates")
	require.NoError(t, err)

	typed, ok := got.([]domain.ExchangeRate)
	require.True(t, ok, "value must come back with its concrete type")
	assert.Equal(t, rows, typed)
}
