package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motointel/backend/internal/domain"
	"github.com/motointel/backend/internal/infrastructure/cache"
)

// countingSource is a RateSource that counts provider fetches
type countingSource struct {
	rows  []domain.ExchangeRate
	err   error
	calls int
}

func (s *countingSource) FetchRates(ctx context.Context, base string, symbols []string) ([]domain.ExchangeRate, error) {
	s.calls++
	return s.rows, s.err
}

func TestCachedSourceReusesFetch(t *testing.T) {
	source := &countingSource{rows: []domain.ExchangeRate{
		row("EUR", "TRY", 47.12, time.Hour),
	}}
	cached := NewCachedSource(source, cache.NewMemoryCache(), time.Hour)

	ctx := context.Background()
	first, err := cached.FetchRates(ctx, "EUR", []string{"TRY"})
	require.NoError(t, err)
	second, err := cached.FetchRates(ctx, "EUR", []string{"TRY"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.calls)
}

func TestCachedSourceKeyIncludesBaseAndSymbols(t *testing.T) {
	source := &countingSource{rows: []domain.ExchangeRate{
		row("EUR", "TRY", 47.12, time.Hour),
	}}
	cached := NewCachedSource(source, cache.NewMemoryCache(), time.Hour)

	ctx := context.Background()
	_, err := cached.FetchRates(ctx, "EUR", []string{"TRY"})
	require.NoError(t, err)
	_, err = cached.FetchRates(ctx, "EUR", []string{"TRY", "GBP"})
	require.NoError(t, err)

	assert.Equal(t, 2, source.calls)
}

func TestCachedSourceExpiry(t *testing.T) {
	source := &countingSource{rows: []domain.ExchangeRate{
		row("EUR", "TRY", 47.12, time.Hour),
	}}
	cached := NewCachedSource(source, cache.NewMemoryCache(), 10*time.Millisecond)

	ctx := context.Background()
	_, err := cached.FetchRates(ctx, "EUR", []string{"TRY"})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = cached.FetchRates(ctx, "EUR", []string{"TRY"})
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestCachedSourcePropagatesProviderError(t *testing.T) {
	source := &countingSource{err: errors.New("provider down")}
	cached := NewCachedSource(source, cache.NewMemoryCache(), time.Hour)

	_, err := cached.FetchRates(context.Background(), "EUR", []string{"TRY"})
	assert.Error(t, err)
	// Failures are not cached; the next run retries the provider
	_, err = cached.FetchRates(context.Background(), "EUR", []string{"TRY"})
	assert.Error(t, err)
	assert.Equal(t, 2, source.calls)
}
