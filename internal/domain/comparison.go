package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComparisonRecord is the engine's output for one matched cross-market
// pair, with both prices expressed in the run's reference currency
type ComparisonRecord struct {
	ProductA        *NormalizedRecord `json:"productA"`
	ProductB        *NormalizedRecord `json:"productB"`
	PriceAConverted decimal.Decimal   `json:"priceAConverted"`
	PriceBConverted decimal.Decimal   `json:"priceBConverted"`
	DifferentialPct decimal.Decimal   `json:"differentialPct"` // (b-a)/a*100
	Confidence      float64           `json:"confidence"`
	RateUsedA       RateRef           `json:"rateUsedA"`
	RateUsedB       RateRef           `json:"rateUsedB"`
	Reasons         []string          `json:"reasons,omitempty"`
}

// Diagnostics error kinds, used as counter keys in RunDiagnostics
const (
	KindMalformedPrice = "malformed_price"
	KindInvalidRecord  = "invalid_record"
	KindMissingRate    = "missing_rate"
	KindStaleRate      = "stale_rate"
	KindAmbiguous      = "ambiguous_match"
)

// MalformedRecord identifies an input record excluded from matching:
// either its price could not be parsed or it violates input invariants
type MalformedRecord struct {
	SourceSite string `json:"sourceSite"`
	URL        string `json:"url"`
	RawPrice   string `json:"rawPrice"`
	Kind       string `json:"kind"`
	Detail     string `json:"detail"`
}

// SkippedPair identifies a matched pair excluded from output because its
// currency conversion failed
type SkippedPair struct {
	SourceURL string `json:"sourceUrl"`
	TargetURL string `json:"targetUrl"`
	Kind      string `json:"kind"`
	Detail    string `json:"detail"`
}

// RunDiagnostics accumulates every non-fatal problem of a comparison run.
// Nothing is dropped without being counted here; the run still completes
// and returns whatever could be computed.
type RunDiagnostics struct {
	RunID       string    `json:"runId"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
	SourceCount int       `json:"sourceCount"`
	TargetCount int       `json:"targetCount"`
	Compared    int       `json:"compared"`
	Matched     int       `json:"matched"`

	CountsByKind     map[string]int    `json:"countsByKind"`
	MalformedRecords []MalformedRecord `json:"malformedRecords,omitempty"`
	SkippedPairs     []SkippedPair     `json:"skippedPairs,omitempty"`
	Ambiguous        []MatchCandidate  `json:"ambiguous,omitempty"` // for human review
}

// NewRunDiagnostics creates an empty diagnostics report for a run
func NewRunDiagnostics(runID string) *RunDiagnostics {
	return &RunDiagnostics{
		RunID:        runID,
		StartedAt:    time.Now().UTC(),
		CountsByKind: make(map[string]int),
	}
}

// Count increments the counter for an error kind
func (d *RunDiagnostics) Count(kind string) {
	d.CountsByKind[kind]++
}

// AddMalformed records an excluded input record and counts it under kind
func (d *RunDiagnostics) AddMalformed(rec ProductRecord, kind, detail string) {
	d.MalformedRecords = append(d.MalformedRecords, MalformedRecord{
		SourceSite: rec.SourceSite,
		URL:        rec.URL,
		RawPrice:   rec.RawPrice,
		Kind:       kind,
		Detail:     detail,
	})
	d.Count(kind)
}

// AddSkipped records a conversion failure for a matched pair and counts it
func (d *RunDiagnostics) AddSkipped(sourceURL, targetURL, kind, detail string) {
	d.SkippedPairs = append(d.SkippedPairs, SkippedPair{
		SourceURL: sourceURL,
		TargetURL: targetURL,
		Kind:      kind,
		Detail:    detail,
	})
	d.Count(kind)
}
