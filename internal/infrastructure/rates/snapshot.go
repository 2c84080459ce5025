package rates

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/motointel/backend/internal/domain"
)

// Snapshot is an immutable view of the exchange-rate table for one
// comparison run. It is built once from the provider's rows and only read
// afterwards, so concurrent comparator workers need no locking.
type Snapshot struct {
	byPair map[string][]domain.ExchangeRate // sorted by UpdatedAt ascending
}

// NewSnapshot builds a snapshot from provider rows. Rows must carry a
// positive rate; a non-positive rate is a provider contract violation and
// rejects the whole snapshot rather than silently skewing conversions.
func NewSnapshot(rows []domain.ExchangeRate) (*Snapshot, error) {
	byPair := make(map[string][]domain.ExchangeRate)
	for _, row := range rows {
		if !row.Rate.IsPositive() {
			return nil, fmt.Errorf("exchange rate %s->%s has non-positive rate %s",
				row.FromCurrency, row.ToCurrency, row.Rate)
		}
		key := pairKey(row.FromCurrency, row.ToCurrency)
		row.FromCurrency = strings.ToUpper(row.FromCurrency)
		row.ToCurrency = strings.ToUpper(row.ToCurrency)
		byPair[key] = append(byPair[key], row)
	}

	for key := range byPair {
		rows := byPair[key]
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].UpdatedAt.Before(rows[j].UpdatedAt)
		})
	}

	return &Snapshot{byPair: byPair}, nil
}

// Lookup returns the most recent rate for the pair at or before asOf
func (s *Snapshot) Lookup(from, to string, asOf time.Time) (domain.ExchangeRate, error) {
	rows := s.byPair[pairKey(from, to)]

	// Walk newest-first; rows are sorted ascending by UpdatedAt
	for i := len(rows) - 1; i >= 0; i-- {
		if !rows[i].UpdatedAt.After(asOf) {
			return rows[i], nil
		}
	}

	return domain.ExchangeRate{}, fmt.Errorf("%w: %s->%s at or before %s",
		domain.ErrMissingRate, strings.ToUpper(from), strings.ToUpper(to),
		asOf.Format(time.RFC3339))
}

// Pairs returns the number of distinct currency pairs in the snapshot
func (s *Snapshot) Pairs() int {
	return len(s.byPair)
}

func pairKey(from, to string) string {
	return strings.ToUpper(from) + ":" + strings.ToUpper(to)
}
