package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestHasDiscount(t *testing.T) {
	tests := []struct {
		name     string
		price    decimal.Decimal
		original decimal.Decimal
		want     bool
	}{
		{"original above current", decimal.NewFromInt(200), decimal.NewFromInt(250), true},
		{"no original price", decimal.NewFromInt(200), decimal.Zero, false},
		{"original equals current", decimal.NewFromInt(200), decimal.NewFromInt(200), false},
		{"original below current", decimal.NewFromInt(250), decimal.NewFromInt(200), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ProductRecord{Price: tt.price, OriginalPrice: tt.original}
			if got := rec.HasDiscount(); got != tt.want {
				t.Errorf("HasDiscount() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscountPct(t *testing.T) {
	rec := ProductRecord{
		Price:         decimal.NewFromInt(200),
		OriginalPrice: decimal.NewFromInt(250),
	}
	if got := rec.DiscountPct().String(); got != "20" {
		t.Errorf("DiscountPct() = %s, want 20", got)
	}

	noDiscount := ProductRecord{Price: decimal.NewFromInt(200)}
	if got := noDiscount.DiscountPct(); !got.IsZero() {
		t.Errorf("DiscountPct() = %s, want 0 without a discount", got)
	}
}
