package productio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/motointel/backend/internal/domain"
)

// Store reads crawler output and writes engine output as JSON files. It
// is the persistence collaborator boundary: the comparison core itself
// never touches the filesystem.
type Store struct {
	productDir string
	outputDir  string
}

// NewStore creates a store over the given directories
func NewStore(productDir, outputDir string) *Store {
	return &Store{productDir: productDir, outputDir: outputDir}
}

// Load reads one site's crawled records from {productDir}/{site}.json,
// a JSON array of product records
func (s *Store) Load(ctx context.Context, site string) ([]domain.ProductRecord, error) {
	path := filepath.Join(s.productDir, site+".json")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open product file for site %s: %w", site, err)
	}
	defer f.Close()

	var records []domain.ProductRecord
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode product file %s: %w", path, err)
	}

	return records, nil
}

// WriteComparisons writes the run's comparison records to
// {outputDir}/comparisons.json
func (s *Store) WriteComparisons(ctx context.Context, records []domain.ComparisonRecord) error {
	return s.writeJSON("comparisons.json", records)
}

// WriteDiagnostics writes the run's diagnostics report to
// {outputDir}/diagnostics.json
func (s *Store) WriteDiagnostics(ctx context.Context, diag *domain.RunDiagnostics) error {
	return s.writeJSON("diagnostics.json", diag)
}

func (s *Store) writeJSON(name string, value interface{}) error {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(s.outputDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	return nil
}
