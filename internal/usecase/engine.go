package usecase

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/motointel/backend/internal/domain"
)

// Engine runs one full comparison pass: normalize both markets, match
// across them, and join winning pairs with converted prices.
// Flow: raw records -> Normalizer -> Matcher (source x target) ->
// Comparator -> comparison records + diagnostics.
type Engine struct {
	normalizer *Normalizer
	comparator *Comparator

	enableDebugLogging bool
}

// MarketInput is one market's raw crawled records plus the site metadata
// that drives locale-aware normalization
type MarketInput struct {
	Site    domain.Site
	Records []domain.ProductRecord
}

// NewEngine creates an engine from its component parts
func NewEngine(normalizer *Normalizer, comparator *Comparator, enableDebugLogging bool) *Engine {
	return &Engine{
		normalizer:         normalizer,
		comparator:         comparator,
		enableDebugLogging: enableDebugLogging,
	}
}

// Run executes one comparison run at the given as-of moment. Malformed
// input records and failed conversions are excluded and counted; the run
// completes and returns whatever could be computed. The returned error is
// non-nil only when the run was cut short (context or deadline).
func (e *Engine) Run(
	ctx context.Context,
	source, target MarketInput,
	asOf time.Time,
) ([]domain.ComparisonRecord, *domain.RunDiagnostics, error) {
	diag := domain.NewRunDiagnostics(uuid.NewString())
	diag.StartedAt = asOf

	normalizedSource := e.normalizer.NormalizeAll(source.Records, source.Site, diag)
	normalizedTarget := e.normalizer.NormalizeAll(target.Records, target.Site, diag)

	if e.enableDebugLogging {
		log.Printf("[RUN %s] normalized %d/%d source and %d/%d target records",
			diag.RunID, len(normalizedSource), len(source.Records),
			len(normalizedTarget), len(target.Records))
	}

	records, err := e.comparator.CompareMarkets(ctx, normalizedSource, normalizedTarget, asOf, diag)
	diag.FinishedAt = time.Now().UTC()

	if e.enableDebugLogging {
		log.Printf("[RUN %s] %d comparisons, %d ambiguous, %d skipped, %d malformed",
			diag.RunID, len(records), len(diag.Ambiguous), len(diag.SkippedPairs),
			len(diag.MalformedRecords))
	}

	return records, diag, err
}
