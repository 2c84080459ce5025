package usecase

import (
	"errors"
	"fmt"
	"html"
	"log"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/motointel/backend/internal/domain"
)

// Package-level compiled regex patterns for performance
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

// accentFolder strips combining marks after NFD decomposition, turning
// ö/ü/ç/ş/ğ into their ASCII base letters
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// turkishSpecials maps the dotless-i pair, which is not a combining-mark
// decomposition and survives NFD folding
var turkishSpecials = strings.NewReplacer("İ", "i", "ı", "i")

// NormalizerConfig holds configuration for the normalizer
type NormalizerConfig struct {
	KnownBrands        []string
	EnableDebugLogging bool
}

// Normalizer canonicalizes raw product records into a comparable form.
// Normalize is a pure function of the record and its site; the normalizer
// itself only carries the known-brands table.
type Normalizer struct {
	brands             []brandEntry
	enableDebugLogging bool
}

// brandEntry is a known brand in folded token form, longest first
type brandEntry struct {
	display string
	tokens  []string
}

// NewNormalizer creates a normalizer with the given configuration
func NewNormalizer(config NormalizerConfig) *Normalizer {
	brands := make([]brandEntry, 0, len(config.KnownBrands))
	for _, b := range config.KnownBrands {
		tokens := strings.Fields(foldName(b))
		if len(tokens) == 0 {
			continue
		}
		brands = append(brands, brandEntry{display: b, tokens: tokens})
	}
	// Longest token sequence first so "SW-Motech" wins over "SW"
	sort.SliceStable(brands, func(i, j int) bool {
		if len(brands[i].tokens) != len(brands[j].tokens) {
			return len(brands[i].tokens) > len(brands[j].tokens)
		}
		return len(strings.Join(brands[i].tokens, " ")) > len(strings.Join(brands[j].tokens, " "))
	})

	return &Normalizer{
		brands:             brands,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Normalize converts one raw record into its comparable form. The record
// is excluded from matching (but not fatal to the run) when its price
// cannot be parsed under the site's declared locale.
func (n *Normalizer) Normalize(rec domain.ProductRecord, site domain.Site) (domain.NormalizedRecord, error) {
	if rec.RawName == "" || rec.URL == "" {
		return domain.NormalizedRecord{}, fmt.Errorf("%w: empty raw_name or url (site %s)", domain.ErrInvalidRecord, rec.SourceSite)
	}

	price, err := n.parsePrice(rec, site)
	if err != nil {
		return domain.NormalizedRecord{}, err
	}

	name := foldName(html.UnescapeString(rec.RawName))
	tokens := n.tokenize(name, site.Language)

	out := domain.NormalizedRecord{
		ProductRecord:  rec,
		NormalizedName: name,
		Tokens:         tokens,
		ParsedPrice:    price,
	}

	if out.Currency == "" {
		out.Currency = site.Currency
	}

	// Brand/model extraction only fills gaps; crawler-supplied values win.
	// Unresolved brand/model stay empty, which is not an error.
	brand, model := n.extractBrandModel(name)
	if out.Brand == "" {
		out.Brand = brand
	}
	if out.Model == "" {
		out.Model = model
	}

	if n.enableDebugLogging {
		log.Printf("[NORMALIZE] %q -> name=%q tokens=%v brand=%q model=%q price=%s",
			rec.RawName, out.NormalizedName, out.Tokens, out.Brand, out.Model, price)
	}

	return out, nil
}

// NormalizeAll normalizes a batch, excluding malformed records and
// counting them in the diagnostics report
func (n *Normalizer) NormalizeAll(
	records []domain.ProductRecord,
	site domain.Site,
	diag *domain.RunDiagnostics,
) []domain.NormalizedRecord {
	out := make([]domain.NormalizedRecord, 0, len(records))
	for _, rec := range records {
		normalized, err := n.Normalize(rec, site)
		if err != nil {
			kind := domain.KindMalformedPrice
			if errors.Is(err, domain.ErrInvalidRecord) {
				kind = domain.KindInvalidRecord
			}
			diag.AddMalformed(rec, kind, err.Error())
			continue
		}
		out = append(out, normalized)
	}
	return out
}

// parsePrice resolves the record's price. RawPrice, when present, is
// parsed under the site's declared locale and takes precedence; guessing
// the separator convention from the string alone is deliberately refused.
func (n *Normalizer) parsePrice(rec domain.ProductRecord, site domain.Site) (decimal.Decimal, error) {
	if rec.RawPrice != "" {
		price, err := ParsePriceString(rec.RawPrice, site.Locale)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q under locale %s: %v",
				domain.ErrMalformedPrice, rec.RawPrice, site.Locale, err)
		}
		return price, nil
	}
	if rec.Price.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative price %s", domain.ErrMalformedPrice, rec.Price)
	}
	return rec.Price, nil
}

// foldName lower-cases a string and strips accents and punctuation,
// keeping only alphanumerics and single spaces
func foldName(s string) string {
	s = turkishSpecials.Replace(s)
	s = strings.ToLower(s)
	if folded, _, err := transform.String(accentFolder, s); err == nil {
		s = folded
	}
	s = nonAlphanumericRegex.ReplaceAllString(s, " ")
	s = multipleSpacesRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// tokenize splits a folded name into its significant-word set: sorted,
// deduplicated, stopwords and bare numbers removed
func (n *Normalizer) tokenize(foldedName, language string) []string {
	stopWords := stopWordsFor(language)

	seen := make(map[string]bool)
	var tokens []string
	for _, word := range strings.Fields(foldedName) {
		if len(word) <= 1 {
			continue
		}
		if stopWords[word] {
			continue
		}
		// Bare numbers are packaging/quantity noise, not product identity
		if isNumeric(word) {
			continue
		}
		if !seen[word] {
			seen[word] = true
			tokens = append(tokens, word)
		}
	}
	sort.Strings(tokens)
	return tokens
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// extractBrandModel finds the longest known-brand token sequence in the
// folded name. The model is the token right after the brand when it looks
// like a model designation (carries a digit, e.g. "k6", "gt-air 2" parts).
func (n *Normalizer) extractBrandModel(foldedName string) (brand, model string) {
	words := strings.Fields(foldedName)
	for _, entry := range n.brands {
		idx := findSubsequence(words, entry.tokens)
		if idx < 0 {
			continue
		}
		brand = strings.Join(entry.tokens, " ")
		next := idx + len(entry.tokens)
		if next < len(words) && looksLikeModel(words[next]) {
			model = words[next]
		}
		return brand, model
	}
	return "", ""
}

// findSubsequence returns the index of the first contiguous occurrence of
// needle in haystack, or -1
func findSubsequence(haystack, needle []string) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// looksLikeModel reports whether a token reads as a model designation
// rather than a plain word: it must mix letters and digits ("k6", "rx7")
func looksLikeModel(token string) bool {
	hasDigit, hasLetter := false, false
	for _, c := range token {
		switch {
		case c >= '0' && c <= '9':
			hasDigit = true
		case c >= 'a' && c <= 'z':
			hasLetter = true
		}
	}
	return hasDigit && hasLetter
}
