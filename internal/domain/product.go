package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents product availability as reported by the source site
type Status string

const (
	StatusInStock      Status = "in_stock"
	StatusOutOfStock   Status = "out_of_stock"
	StatusPreOrder     Status = "pre_order"
	StatusDiscontinued Status = "discontinued"
	StatusUnknown      Status = "unknown"
)

// Site describes a crawled source site: its declared price locale drives
// number parsing and its language selects the stopword list
type Site struct {
	Name     string `json:"name" mapstructure:"name"`
	Locale   string `json:"locale" mapstructure:"locale"`     // "uk" or "tr"
	Language string `json:"language" mapstructure:"language"` // "en" or "tr"
	Currency string `json:"currency" mapstructure:"currency"` // default ISO code for the site
}

// ProductRecord is a raw crawled listing as supplied by an external crawler.
// RawPrice is the price text as scraped; when present it takes precedence
// over Price and is parsed under the site's declared locale.
type ProductRecord struct {
	SourceSite    string          `json:"sourceSite"`
	RawName       string          `json:"rawName"`
	Brand         string          `json:"brand,omitempty"`
	Model         string          `json:"model,omitempty"`
	Category      string          `json:"category,omitempty"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice,omitempty"` // before discount, zero if none
	RawPrice      string          `json:"rawPrice,omitempty"`
	Currency      string          `json:"currency"`
	Status        Status          `json:"status,omitempty"`
	URL           string          `json:"url"`
	ExtractedAt   time.Time       `json:"extractedAt"`
}

// HasDiscount reports whether the listing shows a pre-discount price above
// the current price
func (p ProductRecord) HasDiscount() bool {
	return p.OriginalPrice.IsPositive() && p.OriginalPrice.GreaterThan(p.Price)
}

// DiscountPct returns the discount percentage, or zero when no discount
func (p ProductRecord) DiscountPct() decimal.Decimal {
	if !p.HasDiscount() {
		return decimal.Zero
	}
	return p.OriginalPrice.Sub(p.Price).
		Div(p.OriginalPrice).
		Mul(decimal.NewFromInt(100))
}

// NormalizedRecord is the comparable form of a ProductRecord. Immutable
// once produced; created per comparison run and never persisted here.
type NormalizedRecord struct {
	ProductRecord

	NormalizedName string          `json:"normalizedName"`
	Tokens         []string        `json:"tokens"` // sorted, deduplicated, stopwords removed
	ParsedPrice    decimal.Decimal `json:"parsedPrice"`
}
