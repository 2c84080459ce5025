package domain

import (
	"context"
	"time"
)

// RateLookup resolves the most recent direct exchange rate for a pair at
// or before asOf. Implementations must be safe for concurrent readers; the
// engine treats the rate set as a frozen snapshot for one run.
type RateLookup interface {
	Lookup(from, to string, asOf time.Time) (ExchangeRate, error)
}

// RateSource is the external rate provider collaborator: it supplies the
// current set of exchange rates before a run starts
type RateSource interface {
	FetchRates(ctx context.Context, base string, symbols []string) ([]ExchangeRate, error)
}

// ProductSource supplies crawled product records for one site
type ProductSource interface {
	Load(ctx context.Context, site string) ([]ProductRecord, error)
}

// ComparisonSink receives the engine's outputs; persistence and reporting
// live behind it, outside this core
type ComparisonSink interface {
	WriteComparisons(ctx context.Context, records []ComparisonRecord) error
	WriteDiagnostics(ctx context.Context, diag *RunDiagnostics) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
