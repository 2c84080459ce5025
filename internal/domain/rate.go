package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is one row from the external rate provider. Read-only to
// the comparison core for the duration of a run.
type ExchangeRate struct {
	FromCurrency string          `json:"fromCurrency"`
	ToCurrency   string          `json:"toCurrency"`
	Rate         decimal.Decimal `json:"rate"` // must be > 0
	UpdatedAt    time.Time       `json:"updatedAt"`
	Source       string          `json:"source"`
}

// RateRef records which rate a conversion actually used, for auditability.
// Inverted is set when only the reverse pair was cached and 1/rate was
// applied; Synthetic is set for same-currency conversions (rate 1.0, no
// lookup performed).
type RateRef struct {
	FromCurrency string          `json:"fromCurrency"`
	ToCurrency   string          `json:"toCurrency"`
	Rate         decimal.Decimal `json:"rate"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Source       string          `json:"source"`
	Inverted     bool            `json:"inverted,omitempty"`
	Synthetic    bool            `json:"synthetic,omitempty"`
}
