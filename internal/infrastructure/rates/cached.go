package rates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/motointel/backend/internal/domain"
)

// CachedSource wraps a RateSource with a TTL cache so repeated runs
// within the TTL reuse one provider fetch
type CachedSource struct {
	source domain.RateSource
	cache  domain.CacheRepository
	ttl    time.Duration
}

// NewCachedSource creates a caching wrapper around a rate source
func NewCachedSource(source domain.RateSource, cache domain.CacheRepository, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedSource{source: source, cache: cache, ttl: ttl}
}

// FetchRates returns cached rows when fresh, otherwise fetches and caches
func (s *CachedSource) FetchRates(ctx context.Context, base string, symbols []string) ([]domain.ExchangeRate, error) {
	key := cacheKey(base, symbols)

	if value, err := s.cache.Get(ctx, key); err == nil {
		if rows, ok := value.([]domain.ExchangeRate); ok {
			return rows, nil
		}
	}

	rows, err := s.source.FetchRates(ctx, base, symbols)
	if err != nil {
		return nil, err
	}

	// A cache failure only costs a refetch next run
	_ = s.cache.Set(ctx, key, rows, s.ttl)

	return rows, nil
}

func cacheKey(base string, symbols []string) string {
	return fmt.Sprintf("rates:%s:%s",
		strings.ToUpper(base), strings.ToUpper(strings.Join(symbols, ",")))
}
