package usecase

import (
	"fmt"
	"log"

	"github.com/motointel/backend/internal/domain"
)

// Default scoring weights and thresholds, used when the config leaves
// them zero. Brand/model agreement carries the highest weight: free-text
// tokens diverge across EN/TR listings, so token overlap and edit
// distance confirm rather than discriminate.
const (
	defaultTokenWeight     = 0.25
	defaultAgreementWeight = 0.50
	defaultEditWeight      = 0.25

	defaultMatchThreshold     = 0.85
	defaultAmbiguousThreshold = 0.60
)

// MatchConfig holds configuration for the matcher
type MatchConfig struct {
	TokenWeight     float64
	AgreementWeight float64
	EditWeight      float64

	MatchThreshold     float64
	AmbiguousThreshold float64

	// BrandModelOverride upgrades AMBIGUOUS to MATCH when brand and model
	// both explicitly agree: an identical brand+model pair names the same
	// product even when the listing languages share few tokens
	BrandModelOverride bool

	EnableDebugLogging bool
}

// Matcher scores pairs of normalized records from different sites.
// Match(a,b) and Match(b,a) yield the same score and classification.
type Matcher struct {
	tokenWeight     float64
	agreementWeight float64
	editWeight      float64

	matchThreshold     float64
	ambiguousThreshold float64

	brandModelOverride bool
	enableDebugLogging bool
}

// NewMatcher creates a matcher with the given configuration
func NewMatcher(config MatchConfig) *Matcher {
	m := &Matcher{
		tokenWeight:        config.TokenWeight,
		agreementWeight:    config.AgreementWeight,
		editWeight:         config.EditWeight,
		matchThreshold:     config.MatchThreshold,
		ambiguousThreshold: config.AmbiguousThreshold,
		brandModelOverride: config.BrandModelOverride,
		enableDebugLogging: config.EnableDebugLogging,
	}
	if m.tokenWeight == 0 && m.agreementWeight == 0 && m.editWeight == 0 {
		m.tokenWeight = defaultTokenWeight
		m.agreementWeight = defaultAgreementWeight
		m.editWeight = defaultEditWeight
	}
	if m.matchThreshold <= 0 {
		m.matchThreshold = defaultMatchThreshold
	}
	if m.ambiguousThreshold <= 0 {
		m.ambiguousThreshold = defaultAmbiguousThreshold
	}
	return m
}

// Match scores a candidate pair and classifies it. The three signals are
// each normalized to [0,1] and combined by weighted sum; when neither
// record carries brand or model information, the agreement weight is
// redistributed over the remaining two signals.
func (m *Matcher) Match(a, b *domain.NormalizedRecord) domain.MatchCandidate {
	candidate := domain.MatchCandidate{RecordA: a, RecordB: b}

	token := jaccard(a.Tokens, b.Tokens)
	agreement, agreementKnown := agreementSignal(a, b)
	edit := editSimilarity(a.NormalizedName, b.NormalizedName)

	tokenW, agreementW, editW := m.tokenWeight, m.agreementWeight, m.editWeight
	if !agreementKnown {
		// No brand/model on either side: rely solely on token overlap
		// and edit distance
		rest := tokenW + editW
		if rest > 0 {
			tokenW /= rest
			editW /= rest
		}
		agreementW = 0
	}

	score := token*tokenW + agreement*agreementW + edit*editW
	candidate.Score = score

	candidate.Reasons = append(candidate.Reasons,
		fmt.Sprintf("token overlap %.3f (weight %.2f)", token, tokenW))
	if agreementKnown {
		candidate.Reasons = append(candidate.Reasons,
			fmt.Sprintf("brand/model agreement %.2f (weight %.2f)", agreement, agreementW))
	} else {
		candidate.Reasons = append(candidate.Reasons,
			"brand/model absent on both sides; weight redistributed")
	}
	candidate.Reasons = append(candidate.Reasons,
		fmt.Sprintf("edit similarity %.3f (weight %.2f)", edit, editW))

	candidate.Classification = m.Classify(score)

	if m.brandModelOverride && candidate.Classification == domain.ClassAmbiguous &&
		brandAndModelAgree(a, b) {
		candidate.Classification = domain.ClassMatch
		candidate.Reasons = append(candidate.Reasons,
			"brand/model identity: ambiguous score upgraded to match")
	}

	if m.enableDebugLogging {
		log.Printf("[MATCH] %q vs %q: score=%.4f class=%s", a.URL, b.URL, score, candidate.Classification)
	}

	return candidate
}

// Classify maps a score to its classification band
func (m *Matcher) Classify(score float64) domain.Classification {
	switch {
	case score >= m.matchThreshold:
		return domain.ClassMatch
	case score >= m.ambiguousThreshold:
		return domain.ClassAmbiguous
	default:
		return domain.ClassNoMatch
	}
}

// jaccard computes token-set similarity. Two empty sets score 0.0 by
// definition, never NaN.
func jaccard(tokensA, tokensB []string) float64 {
	if len(tokensA) == 0 && len(tokensB) == 0 {
		return 0.0
	}

	set := make(map[string]bool, len(tokensA))
	for _, t := range tokensA {
		set[t] = true
	}

	intersection := 0
	union := len(set)
	seen := make(map[string]bool, len(tokensB))
	for _, t := range tokensB {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			intersection++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// fieldCmp is the outcome of comparing one optional field across a pair
type fieldCmp int

const (
	fieldUnknown fieldCmp = iota
	fieldAgree
	fieldDisagree
)

// compareField compares two optional values case- and accent-insensitively
func compareField(x, y string) fieldCmp {
	if x == "" || y == "" {
		return fieldUnknown
	}
	if foldName(x) == foldName(y) {
		return fieldAgree
	}
	return fieldDisagree
}

// agreementSignal scores brand/model agreement: 1.0 when both fields are
// present and equal, 0.0 on explicit disagreement, 0.5 when only one
// field matches or one side is missing but consistent. known is false
// when neither record carries any brand or model at all.
func agreementSignal(a, b *domain.NormalizedRecord) (value float64, known bool) {
	if a.Brand == "" && b.Brand == "" && a.Model == "" && b.Model == "" {
		return 0.0, false
	}

	brand := compareField(a.Brand, b.Brand)
	model := compareField(a.Model, b.Model)

	if brand == fieldDisagree || model == fieldDisagree {
		return 0.0, true
	}
	if brand == fieldAgree && model == fieldAgree {
		return 1.0, true
	}
	return 0.5, true
}

// brandAndModelAgree reports explicit agreement on both fields
func brandAndModelAgree(a, b *domain.NormalizedRecord) bool {
	return compareField(a.Brand, b.Brand) == fieldAgree &&
		compareField(a.Model, b.Model) == fieldAgree
}

// editSimilarity is 1 - levenshtein/maxlen on the normalized names
func editSimilarity(nameA, nameB string) float64 {
	if nameA == "" && nameB == "" {
		return 0.0
	}
	la, lb := len([]rune(nameA)), len([]rune(nameB))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	return 1.0 - float64(levenshteinDistance(nameA, nameB))/float64(maxLen)
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len([]rune(s2))
	}
	if len(s2) == 0 {
		return len([]rune(s1))
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Two rows instead of the full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
