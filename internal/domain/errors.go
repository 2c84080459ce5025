package domain

import "errors"

var (
	// ErrMalformedPrice is returned when a price string cannot be parsed
	// under the source site's declared locale
	ErrMalformedPrice = errors.New("malformed price for declared locale")

	// ErrMissingRate is returned when no exchange rate (direct or
	// invertible) exists for a currency pair
	ErrMissingRate = errors.New("no exchange rate for currency pair")

	// ErrStaleRate is returned when the freshest available rate is older
	// than the configured staleness window
	ErrStaleRate = errors.New("exchange rate older than staleness window")

	// ErrInvalidConfig is returned for invalid weights/thresholds at startup
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidRecord is returned when a product record violates its
	// input invariants (empty name, negative price)
	ErrInvalidRecord = errors.New("invalid product record")

	// ErrDeadlineExceeded is returned when the run deadline expires
	// between comparison batches
	ErrDeadlineExceeded = errors.New("run deadline exceeded")

	// ErrRateAPIFailure is returned when the exchange-rate API request fails
	ErrRateAPIFailure = errors.New("exchange rate API request failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
