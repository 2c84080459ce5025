package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/motointel/backend/config"
	"github.com/motointel/backend/internal/domain"
	"github.com/motointel/backend/internal/infrastructure/cache"
	"github.com/motointel/backend/internal/infrastructure/productio"
	"github.com/motointel/backend/internal/infrastructure/rates"
	"github.com/motointel/backend/internal/usecase"
)

func main() {
	// Load configuration; invalid weights/thresholds abort before any
	// processing
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting MotoIntel compare run")
	log.Printf("Source site: %s, target site: %s", cfg.Run.SourceSite, cfg.Run.TargetSite)
	log.Printf("Reference currency: %s, workers: %d", cfg.Run.ReferenceCurrency, cfg.Run.Workers)

	ctx := context.Background()

	sourceSite := cfg.SiteByName(cfg.Run.SourceSite)
	targetSite := cfg.SiteByName(cfg.Run.TargetSite)

	// Load crawler output (the crawling itself happens upstream)
	store := productio.NewStore(cfg.Run.ProductDir, cfg.Run.OutputDir)

	sourceRecords, err := store.Load(ctx, sourceSite.Name)
	if err != nil {
		log.Fatalf("Failed to load source market: %v", err)
	}
	targetRecords, err := store.Load(ctx, targetSite.Name)
	if err != nil {
		log.Fatalf("Failed to load target market: %v", err)
	}
	log.Printf("Loaded %d source and %d target records", len(sourceRecords), len(targetRecords))

	// Fetch exchange rates up front; the engine only sees the frozen
	// snapshot
	rateClient := rates.NewClient(cfg.Rates.BaseURL, cfg.Rates.RequestsPerHour)
	if cfg.Run.EnableDebugLogging {
		rateClient.SetDebug(true)
		log.Printf("Rate client debug mode enabled")
	}
	rateSource := rates.NewCachedSource(rateClient, cache.NewMemoryCache(), cfg.Rates.CacheTTL)
	symbols := currenciesOf(sourceRecords, targetRecords, sourceSite, targetSite, cfg.Run.ReferenceCurrency)
	rows, err := rateSource.FetchRates(ctx, cfg.Run.ReferenceCurrency, symbols)
	if err != nil {
		log.Fatalf("Failed to fetch exchange rates: %v", err)
	}
	snapshot, err := rates.NewSnapshot(rows)
	if err != nil {
		log.Fatalf("Failed to build rate snapshot: %v", err)
	}
	log.Printf("Rate snapshot holds %d currency pairs", snapshot.Pairs())

	engine := buildEngine(cfg, snapshot)

	records, diag, runErr := engine.Run(ctx,
		usecase.MarketInput{Site: sourceSite, Records: sourceRecords},
		usecase.MarketInput{Site: targetSite, Records: targetRecords},
		time.Now().UTC(),
	)
	if runErr != nil {
		if errors.Is(runErr, domain.ErrDeadlineExceeded) {
			log.Printf("WARNING: run deadline exceeded, results are partial: %v", runErr)
		} else {
			log.Fatalf("Comparison run failed: %v", runErr)
		}
	}

	if err := store.WriteComparisons(ctx, records); err != nil {
		log.Fatalf("Failed to write comparisons: %v", err)
	}
	if err := store.WriteDiagnostics(ctx, diag); err != nil {
		log.Fatalf("Failed to write diagnostics: %v", err)
	}

	log.Printf("Run %s: %d comparisons, %d ambiguous for review, counts=%v",
		diag.RunID, len(records), len(diag.Ambiguous), diag.CountsByKind)
}

// buildEngine wires the comparison core from configuration
func buildEngine(cfg *config.Config, snapshot *rates.Snapshot) *usecase.Engine {
	normalizer := usecase.NewNormalizer(usecase.NormalizerConfig{
		KnownBrands:        cfg.Normalize.KnownBrands,
		EnableDebugLogging: cfg.Run.EnableDebugLogging,
	})

	matcher := usecase.NewMatcher(usecase.MatchConfig{
		TokenWeight:        cfg.Matching.TokenWeight,
		AgreementWeight:    cfg.Matching.AgreementWeight,
		EditWeight:         cfg.Matching.EditWeight,
		MatchThreshold:     cfg.Matching.MatchThreshold,
		AmbiguousThreshold: cfg.Matching.AmbiguousThreshold,
		BrandModelOverride: cfg.Matching.BrandModelOverride,
		EnableDebugLogging: cfg.Run.EnableDebugLogging,
	})

	converter := usecase.NewConverter(snapshot, usecase.ConverterConfig{
		StalenessWindow:    cfg.Rates.StalenessWindow,
		AllowStaleRates:    cfg.Rates.AllowStaleRates,
		EnableDebugLogging: cfg.Run.EnableDebugLogging,
	})

	comparator := usecase.NewComparator(matcher, converter, usecase.ComparatorConfig{
		ReferenceCurrency:  cfg.Run.ReferenceCurrency,
		Workers:            cfg.Run.Workers,
		BatchSize:          cfg.Run.BatchSize,
		Deadline:           cfg.Run.Deadline,
		EnableDebugLogging: cfg.Run.EnableDebugLogging,
	})

	return usecase.NewEngine(normalizer, comparator, cfg.Run.EnableDebugLogging)
}

// currenciesOf collects the distinct non-reference currencies seen in the
// loaded records plus the sites' defaults
func currenciesOf(
	source, target []domain.ProductRecord,
	sourceSite, targetSite domain.Site,
	reference string,
) []string {
	seen := map[string]bool{reference: true}
	var symbols []string
	add := func(code string) {
		if code == "" || seen[code] {
			return
		}
		seen[code] = true
		symbols = append(symbols, code)
	}

	add(sourceSite.Currency)
	add(targetSite.Currency)
	for _, rec := range source {
		add(rec.Currency)
	}
	for _, rec := range target {
		add(rec.Currency)
	}
	return symbols
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
