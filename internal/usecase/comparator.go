package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/motointel/backend/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

// ComparatorConfig holds configuration for the cross-market comparator
type ComparatorConfig struct {
	// ReferenceCurrency is the single currency both prices are expressed in
	ReferenceCurrency string

	// Workers sizes the fixed pool evaluating source records in parallel
	Workers int

	// BatchSize is how many source records are dispatched between
	// deadline checks
	BatchSize int

	// Deadline bounds the whole run; zero means unbounded
	Deadline time.Duration

	EnableDebugLogging bool
}

// Comparator finds, for each source-market record, its best match in the
// target market and emits currency-normalized comparison records. Output
// order is made deterministic by a final sort regardless of worker
// scheduling.
type Comparator struct {
	matcher   *Matcher
	converter *Converter

	referenceCurrency  string
	workers            int
	batchSize          int
	deadline           time.Duration
	enableDebugLogging bool
}

// NewComparator creates a comparator with the given collaborators
func NewComparator(matcher *Matcher, converter *Converter, config ComparatorConfig) *Comparator {
	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	batchSize := config.BatchSize
	if batchSize < 1 {
		batchSize = 64
	}
	return &Comparator{
		matcher:            matcher,
		converter:          converter,
		referenceCurrency:  config.ReferenceCurrency,
		workers:            workers,
		batchSize:          batchSize,
		deadline:           config.Deadline,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// sourceResult is one source record's evaluation against every target
type sourceResult struct {
	best      *domain.MatchCandidate
	ambiguous []domain.MatchCandidate
}

// CompareMarkets evaluates the full source×target cross product, retains
// the highest-scoring MATCH per source record, and joins the winning pairs
// with converted prices. Conversion failures exclude the pair and are
// counted in diag; AMBIGUOUS candidates of matchless source records are
// reported in diag for human review. Returns partial results with
// ErrDeadlineExceeded when the run deadline expires between batches.
func (c *Comparator) CompareMarkets(
	ctx context.Context,
	source, target []domain.NormalizedRecord,
	asOf time.Time,
	diag *domain.RunDiagnostics,
) ([]domain.ComparisonRecord, error) {
	diag.SourceCount += len(source)
	diag.TargetCount += len(target)

	var cutoff time.Time
	if c.deadline > 0 {
		cutoff = time.Now().Add(c.deadline)
	}

	results := make([]sourceResult, len(source))
	var deadlineErr error

	for start := 0; start < len(source); start += c.batchSize {
		if err := ctx.Err(); err != nil {
			deadlineErr = err
			break
		}
		if !cutoff.IsZero() && time.Now().After(cutoff) {
			deadlineErr = fmt.Errorf("%w after %d of %d source records",
				domain.ErrDeadlineExceeded, start, len(source))
			break
		}

		end := start + c.batchSize
		if end > len(source) {
			end = len(source)
		}
		c.evaluateBatch(source, target, results, start, end)
		diag.Compared += (end - start) * len(target)
	}

	records := c.join(results, asOf, diag)
	c.reportAmbiguous(results, diag)

	sort.Slice(records, func(i, j int) bool {
		if records[i].ProductA.URL != records[j].ProductA.URL {
			return records[i].ProductA.URL < records[j].ProductA.URL
		}
		return records[i].ProductB.URL < records[j].ProductB.URL
	})

	diag.Matched += len(records)
	return records, deadlineErr
}

// evaluateBatch fans the batch's source records out over the worker pool.
// Each worker writes only its own result slot, so no locking is needed.
func (c *Comparator) evaluateBatch(source, target []domain.NormalizedRecord, results []sourceResult, start, end int) {
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = c.evaluateSource(&source[i], target)
			}
		}()
	}

	for i := start; i < end; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// evaluateSource scores one source record against every target record
func (c *Comparator) evaluateSource(src *domain.NormalizedRecord, target []domain.NormalizedRecord) sourceResult {
	var res sourceResult
	for t := range target {
		candidate := c.matcher.Match(src, &target[t])
		switch candidate.Classification {
		case domain.ClassMatch:
			if res.best == nil || betterCandidate(candidate, *res.best) {
				best := candidate
				res.best = &best
			}
		case domain.ClassAmbiguous:
			res.ambiguous = append(res.ambiguous, candidate)
		}
	}
	return res
}

// betterCandidate orders candidates by score, then brand/model agreement,
// then lexicographic target URL, so winner selection is deterministic
func betterCandidate(x, y domain.MatchCandidate) bool {
	if x.Score != y.Score {
		return x.Score > y.Score
	}
	ax, _ := agreementSignal(x.RecordA, x.RecordB)
	ay, _ := agreementSignal(y.RecordA, y.RecordB)
	if ax != ay {
		return ax > ay
	}
	return x.RecordB.URL < y.RecordB.URL
}

// join converts the winning pairs into the reference currency and builds
// comparison records. A conversion failure excludes the pair and records
// a skipped-pair diagnostic with the specific error kind; a rate of 1.0
// is never silently assumed.
func (c *Comparator) join(
	results []sourceResult,
	asOf time.Time,
	diag *domain.RunDiagnostics,
) []domain.ComparisonRecord {
	// A target may legitimately be the best match for several source
	// records (variant listings of one SKU); flag it rather than dedupe
	targetUses := make(map[string]int)
	for i := range results {
		if results[i].best != nil {
			targetUses[results[i].best.RecordB.URL]++
		}
	}

	var records []domain.ComparisonRecord
	for i := range results {
		best := results[i].best
		if best == nil {
			continue
		}

		a, b := best.RecordA, best.RecordB

		priceA, rateA, err := c.converter.Convert(a.ParsedPrice, a.Currency, c.referenceCurrency, asOf)
		if err != nil {
			diag.AddSkipped(a.URL, b.URL, conversionKind(err), err.Error())
			continue
		}
		priceB, rateB, err := c.converter.Convert(b.ParsedPrice, b.Currency, c.referenceCurrency, asOf)
		if err != nil {
			diag.AddSkipped(a.URL, b.URL, conversionKind(err), err.Error())
			continue
		}

		rec := domain.ComparisonRecord{
			ProductA:        a,
			ProductB:        b,
			PriceAConverted: priceA,
			PriceBConverted: priceB,
			Confidence:      best.Score,
			RateUsedA:       rateA,
			RateUsedB:       rateB,
			Reasons:         append([]string(nil), best.Reasons...),
		}

		if priceA.IsZero() {
			rec.Reasons = append(rec.Reasons, "source price is zero; differential undefined")
		} else {
			rec.DifferentialPct = priceB.Sub(priceA).Div(priceA).Mul(oneHundred)
		}

		if n := targetUses[b.URL]; n > 1 {
			rec.Reasons = append(rec.Reasons,
				fmt.Sprintf("target is best match for %d source records", n))
		}

		if c.enableDebugLogging {
			log.Printf("[COMPARE] %q vs %q: %s %s vs %s %s (diff %s%%)",
				a.URL, b.URL, priceA, c.referenceCurrency, priceB, c.referenceCurrency,
				rec.DifferentialPct.StringFixed(2))
		}

		records = append(records, rec)
	}

	return records
}

// reportAmbiguous surfaces the AMBIGUOUS candidates of matchless source
// records for human review, in deterministic order
func (c *Comparator) reportAmbiguous(results []sourceResult, diag *domain.RunDiagnostics) {
	var ambiguous []domain.MatchCandidate
	for i := range results {
		if results[i].best != nil {
			continue
		}
		ambiguous = append(ambiguous, results[i].ambiguous...)
	}

	sort.Slice(ambiguous, func(i, j int) bool {
		if ambiguous[i].RecordA.URL != ambiguous[j].RecordA.URL {
			return ambiguous[i].RecordA.URL < ambiguous[j].RecordA.URL
		}
		return ambiguous[i].RecordB.URL < ambiguous[j].RecordB.URL
	})

	for range ambiguous {
		diag.Count(domain.KindAmbiguous)
	}
	diag.Ambiguous = append(diag.Ambiguous, ambiguous...)
}

// conversionKind maps a converter error to its diagnostics counter key
func conversionKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrStaleRate):
		return domain.KindStaleRate
	case errors.Is(err, domain.ErrMissingRate):
		return domain.KindMissingRate
	default:
		return domain.KindMissingRate
	}
}
