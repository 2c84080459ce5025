package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/motointel/backend/internal/domain"
)

func makeListing(url, name, brand, model string, price float64, currency string, tokens ...string) domain.NormalizedRecord {
	rec := domain.NormalizedRecord{
		NormalizedName: name,
		Tokens:         tokens,
		ParsedPrice:    decimal.NewFromFloat(price),
	}
	rec.URL = url
	rec.Brand = brand
	rec.Model = model
	rec.Currency = currency
	rec.SourceSite = "test"
	return rec
}

func testComparator(workers int, lookup domain.RateLookup) *Comparator {
	matcher := NewMatcher(MatchConfig{BrandModelOverride: true})
	converter := NewConverter(lookup, ConverterConfig{StalenessWindow: 24 * time.Hour})
	return NewComparator(matcher, converter, ComparatorConfig{
		ReferenceCurrency: "EUR",
		Workers:           workers,
		BatchSize:         2,
	})
}

func TestCompareMarketsBestMatch(t *testing.T) {
	source := []domain.NormalizedRecord{
		makeListing("https://eu.example/k6", "agv k6 helmet", "agv", "k6", 300, "EUR", "agv", "helmet", "k6"),
	}
	target := []domain.NormalizedRecord{
		makeListing("https://tr.example/k6", "agv k6 helmet", "agv", "k6", 250, "EUR", "agv", "helmet", "k6"),
		makeListing("https://tr.example/other", "chain oil", "", "", 10, "EUR", "chain", "oil"),
	}

	c := testComparator(2, &stubRates{})
	diag := domain.NewRunDiagnostics("test")
	records, err := c.CompareMarkets(context.Background(), source, target, asOf, diag)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.ProductB.URL != "https://tr.example/k6" {
		t.Errorf("matched %s, want the k6 target", rec.ProductB.URL)
	}
	if rec.DifferentialPct.Round(2).String() != "-16.67" {
		t.Errorf("differential = %s, want -16.67", rec.DifferentialPct.Round(2))
	}
	if diag.Compared != len(source)*len(target) {
		t.Errorf("Compared = %d, want %d", diag.Compared, len(source)*len(target))
	}
}

func TestCompareMarketsTieBreakByURL(t *testing.T) {
	source := []domain.NormalizedRecord{
		makeListing("https://eu.example/k6", "agv k6 helmet", "agv", "k6", 300, "EUR", "agv", "helmet", "k6"),
	}
	// Identical listings at two URLs: lexicographic URL order decides
	target := []domain.NormalizedRecord{
		makeListing("https://tr.example/b-k6", "agv k6 helmet", "agv", "k6", 250, "EUR", "agv", "helmet", "k6"),
		makeListing("https://tr.example/a-k6", "agv k6 helmet", "agv", "k6", 250, "EUR", "agv", "helmet", "k6"),
	}

	c := testComparator(4, &stubRates{})
	diag := domain.NewRunDiagnostics("test")
	records, err := c.CompareMarkets(context.Background(), source, target, asOf, diag)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].ProductB.URL != "https://tr.example/a-k6" {
		t.Errorf("tie broke to %s, want https://tr.example/a-k6", records[0].ProductB.URL)
	}
}

func TestCompareMarketsAmbiguousReported(t *testing.T) {
	// Same brand, no models: lands between the thresholds and must be
	// surfaced for review, not silently dropped
	source := []domain.NormalizedRecord{
		makeListing("https://eu.example/corsa", "agv corsa", "agv", "", 300, "EUR", "agv", "corsa"),
	}
	target := []domain.NormalizedRecord{
		makeListing("https://tr.example/corsa", "agv corsa", "agv", "", 250, "EUR", "agv", "corsa"),
	}

	c := testComparator(1, &stubRates{})
	diag := domain.NewRunDiagnostics("test")
	records, err := c.CompareMarkets(context.Background(), source, target, asOf, diag)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 0 {
		t.Fatalf("got %d records, want 0 (pair is ambiguous)", len(records))
	}
	if len(diag.Ambiguous) != 1 {
		t.Fatalf("got %d ambiguous candidates, want 1", len(diag.Ambiguous))
	}
	if diag.Ambiguous[0].Classification != domain.ClassAmbiguous {
		t.Errorf("classification = %v, want AMBIGUOUS", diag.Ambiguous[0].Classification)
	}
	if diag.CountsByKind[domain.KindAmbiguous] != 1 {
		t.Errorf("ambiguous count = %d, want 1", diag.CountsByKind[domain.KindAmbiguous])
	}
}

func TestCompareMarketsSkipsFailedConversions(t *testing.T) {
	source := []domain.NormalizedRecord{
		makeListing("https://eu.example/k6", "agv k6 helmet", "agv", "k6", 300, "GBP", "agv", "helmet", "k6"),
	}
	target := []domain.NormalizedRecord{
		makeListing("https://tr.example/k6", "agv k6 helmet", "agv", "k6", 8500, "TRY", "agv", "helmet", "k6"),
	}

	t.Run("missing rate", func(t *testing.T) {
		c := testComparator(1, &stubRates{})
		diag := domain.NewRunDiagnostics("test")
		records, err := c.CompareMarkets(context.Background(), source, target, asOf, diag)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 0 {
			t.Fatalf("got %d records, want 0", len(records))
		}
		if len(diag.SkippedPairs) != 1 || diag.SkippedPairs[0].Kind != domain.KindMissingRate {
			t.Errorf("skipped pairs = %+v, want one missing_rate entry", diag.SkippedPairs)
		}
		if diag.CountsByKind[domain.KindMissingRate] != 1 {
			t.Errorf("missing_rate count = %d, want 1", diag.CountsByKind[domain.KindMissingRate])
		}
	})

	t.Run("stale rate", func(t *testing.T) {
		lookup := &stubRates{rows: []domain.ExchangeRate{
			rate("GBP", "EUR", 1.15, 48*time.Hour),
			rate("TRY", "EUR", 0.031, 48*time.Hour),
		}}
		c := testComparator(1, lookup)
		diag := domain.NewRunDiagnostics("test")
		records, err := c.CompareMarkets(context.Background(), source, target, asOf, diag)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 0 {
			t.Fatalf("got %d records, want 0 (rate is stale, never defaulted to 1.0)", len(records))
		}
		if len(diag.SkippedPairs) != 1 || diag.SkippedPairs[0].Kind != domain.KindStaleRate {
			t.Errorf("skipped pairs = %+v, want one stale_rate entry", diag.SkippedPairs)
		}
	})
}

func TestCompareMarketsSharedTargetFlagged(t *testing.T) {
	source := []domain.NormalizedRecord{
		makeListing("https://eu.example/k6-v1", "agv k6 helmet", "agv", "k6", 300, "EUR", "agv", "helmet", "k6"),
		makeListing("https://eu.example/k6-v2", "agv k6 helmet", "agv", "k6", 310, "EUR", "agv", "helmet", "k6"),
	}
	target := []domain.NormalizedRecord{
		makeListing("https://tr.example/k6", "agv k6 helmet", "agv", "k6", 250, "EUR", "agv", "helmet", "k6"),
	}

	c := testComparator(2, &stubRates{})
	diag := domain.NewRunDiagnostics("test")
	records, err := c.CompareMarkets(context.Background(), source, target, asOf, diag)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (shared target is allowed, not deduplicated)", len(records))
	}
	for _, rec := range records {
		found := false
		for _, reason := range rec.Reasons {
			if reason == "target is best match for 2 source records" {
				found = true
			}
		}
		if !found {
			t.Errorf("record %s -> %s missing shared-target reason: %v",
				rec.ProductA.URL, rec.ProductB.URL, rec.Reasons)
		}
	}
}

func TestCompareMarketsDeterministicAcrossWorkerCounts(t *testing.T) {
	var source, target []domain.NormalizedRecord
	for i := 0; i < 7; i++ {
		source = append(source, makeListing(
			fmt.Sprintf("https://eu.example/p%d", i),
			fmt.Sprintf("agv k%d helmet", i), "agv", fmt.Sprintf("k%d", i),
			100+float64(i), "EUR",
			"agv", "helmet", fmt.Sprintf("k%d", i)))
	}
	for i := 0; i < 5; i++ {
		target = append(target, makeListing(
			fmt.Sprintf("https://tr.example/p%d", i),
			fmt.Sprintf("agv k%d kask", i), "agv", fmt.Sprintf("k%d", i),
			90+float64(i), "EUR",
			"agv", "kask", fmt.Sprintf("k%d", i)))
	}

	var baseline []domain.ComparisonRecord
	for _, workers := range []int{1, 2, 8} {
		c := testComparator(workers, &stubRates{})
		diag := domain.NewRunDiagnostics("test")
		records, err := c.CompareMarkets(context.Background(), source, target, asOf, diag)
		if err != nil {
			t.Fatalf("workers=%d unexpected error: %v", workers, err)
		}
		if baseline == nil {
			baseline = records
			continue
		}
		if !reflect.DeepEqual(records, baseline) {
			t.Errorf("workers=%d output differs from single-worker baseline", workers)
		}
	}
}

func TestCompareMarketsDeadline(t *testing.T) {
	var source []domain.NormalizedRecord
	for i := 0; i < 50; i++ {
		source = append(source, makeListing(
			fmt.Sprintf("https://eu.example/p%d", i), "agv k6 helmet", "agv", "k6",
			100, "EUR", "agv", "helmet", "k6"))
	}
	target := []domain.NormalizedRecord{
		makeListing("https://tr.example/k6", "agv k6 helmet", "agv", "k6", 90, "EUR", "agv", "helmet", "k6"),
	}

	matcher := NewMatcher(MatchConfig{BrandModelOverride: true})
	converter := NewConverter(&stubRates{}, ConverterConfig{StalenessWindow: 24 * time.Hour})
	c := NewComparator(matcher, converter, ComparatorConfig{
		ReferenceCurrency: "EUR",
		Workers:           1,
		BatchSize:         1,
		Deadline:          time.Nanosecond,
	})

	diag := domain.NewRunDiagnostics("test")
	records, err := c.CompareMarkets(context.Background(), source, target, asOf, diag)
	if !errors.Is(err, domain.ErrDeadlineExceeded) {
		t.Fatalf("error = %v, want ErrDeadlineExceeded", err)
	}
	if len(records) >= len(source) {
		t.Errorf("got %d records for %d sources, want a partial result", len(records), len(source))
	}
}

func TestCompareMarketsContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := []domain.NormalizedRecord{
		makeListing("https://eu.example/k6", "agv k6 helmet", "agv", "k6", 100, "EUR", "agv", "helmet", "k6"),
	}

	c := testComparator(1, &stubRates{})
	diag := domain.NewRunDiagnostics("test")
	_, err := c.CompareMarkets(ctx, source, nil, asOf, diag)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
