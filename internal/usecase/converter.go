package usecase

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/motointel/backend/internal/domain"
)

// ConverterConfig holds configuration for the currency converter
type ConverterConfig struct {
	// StalenessWindow is the maximum allowed age of a rate relative to
	// the conversion's as-of time
	StalenessWindow time.Duration

	// AllowStaleRates overrides the staleness check; conversions then
	// proceed on whatever freshest rate exists
	AllowStaleRates bool

	EnableDebugLogging bool
}

// Converter converts monetary amounts between currencies against a
// read-only rate snapshot. Lookups never mutate state, so one converter
// can serve all comparator workers of a run without locking.
type Converter struct {
	rates              domain.RateLookup
	stalenessWindow    time.Duration
	allowStaleRates    bool
	enableDebugLogging bool
}

// NewConverter creates a converter over the given rate snapshot
func NewConverter(rates domain.RateLookup, config ConverterConfig) *Converter {
	window := config.StalenessWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Converter{
		rates:              rates,
		stalenessWindow:    window,
		allowStaleRates:    config.AllowStaleRates,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Convert expresses amount in toCurrency using the most recent rate at or
// before asOf. Same-currency conversions return the amount unchanged with
// a synthetic rate of 1.0 and perform no lookup. When only the reverse
// pair is cached the rate is applied inverted; that path is deliberate,
// not incidental.
func (c *Converter) Convert(
	amount decimal.Decimal,
	fromCurrency, toCurrency string,
	asOf time.Time,
) (decimal.Decimal, domain.RateRef, error) {
	fromCurrency = strings.ToUpper(fromCurrency)
	toCurrency = strings.ToUpper(toCurrency)

	if fromCurrency == toCurrency {
		return amount, domain.RateRef{
			FromCurrency: fromCurrency,
			ToCurrency:   toCurrency,
			Rate:         decimal.NewFromInt(1),
			UpdatedAt:    asOf,
			Synthetic:    true,
		}, nil
	}

	rate, inverted, err := c.resolve(fromCurrency, toCurrency, asOf)
	if err != nil {
		return decimal.Zero, domain.RateRef{}, err
	}

	if age := asOf.Sub(rate.UpdatedAt); age > c.stalenessWindow && !c.allowStaleRates {
		return decimal.Zero, domain.RateRef{}, fmt.Errorf("%w: %s->%s rate from %s is %s old (window %s)",
			domain.ErrStaleRate, fromCurrency, toCurrency,
			rate.UpdatedAt.Format(time.RFC3339), age, c.stalenessWindow)
	}

	var converted decimal.Decimal
	if inverted {
		// Divide by the cached reverse rate rather than multiplying by a
		// pre-rounded reciprocal
		converted = amount.Div(rate.Rate)
	} else {
		converted = amount.Mul(rate.Rate)
	}

	ref := domain.RateRef{
		FromCurrency: rate.FromCurrency,
		ToCurrency:   rate.ToCurrency,
		Rate:         rate.Rate,
		UpdatedAt:    rate.UpdatedAt,
		Source:       rate.Source,
		Inverted:     inverted,
	}

	if c.enableDebugLogging {
		log.Printf("[CONVERT] %s %s -> %s %s (rate %s, inverted=%v, updated %s)",
			amount, fromCurrency, converted, toCurrency, rate.Rate, inverted,
			rate.UpdatedAt.Format(time.RFC3339))
	}

	return converted, ref, nil
}

// resolve finds a usable rate: direct pair first, then the cached inverse
func (c *Converter) resolve(from, to string, asOf time.Time) (domain.ExchangeRate, bool, error) {
	rate, err := c.rates.Lookup(from, to, asOf)
	if err == nil {
		return rate, false, nil
	}

	inverse, invErr := c.rates.Lookup(to, from, asOf)
	if invErr == nil && inverse.Rate.IsPositive() {
		return inverse, true, nil
	}

	return domain.ExchangeRate{}, false, fmt.Errorf("%w: %s->%s (no direct or invertible rate at %s)",
		domain.ErrMissingRate, from, to, asOf.Format(time.RFC3339))
}
