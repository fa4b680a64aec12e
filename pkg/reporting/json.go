package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quantive/dca-backtest/internal/backtest"
)

// JSONReporter writes full results as indented JSON.
type JSONReporter struct{}

// NewJSONReporter creates a new JSON reporter
func NewJSONReporter() *JSONReporter {
	return &JSONReporter{}
}

// WriteResult writes the whole result, including snapshots and
// transactions, to path.
func (r *JSONReporter) WriteResult(result *backtest.Result, path string) error {
	return writeJSON(result, path)
}

// WriteComparison writes a strategy-vs-benchmark pair to path.
func (r *JSONReporter) WriteComparison(comparison *backtest.ComparisonResult, path string) error {
	return writeJSON(comparison, path)
}

func writeJSON(v interface{}, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
