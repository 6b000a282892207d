package engine

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/piwi3910/cutplan/internal/model"
)

// ComparisonResult holds the outcome of one mode on a shared input.
// Err is set when the run failed; the numeric fields are then zero.
type ComparisonResult struct {
	Mode         model.Mode
	Plan         *model.Plan
	SheetsUsed   int
	TotalCuts    int
	WastePercent decimal.Decimal
	Err          error
}

// Failed reports whether the mode could not produce a plan.
func (r ComparisonResult) Failed() bool { return r.Err != nil }

// CompareModes runs the full pipeline once per mode with otherwise identical
// settings and returns the results in mode order. A sizing failure is
// recorded on its result instead of aborting the comparison; validation
// errors are returned directly since they would fail every mode alike.
// Each run traces to logger; nil uses the default logger.
func CompareModes(base model.Settings, modes []model.Mode, sheets []model.SheetSpec, pieces []model.PieceSpec, logger *log.Logger) ([]ComparisonResult, error) {
	if err := model.ValidateInput(sheets, pieces); err != nil {
		return nil, err
	}
	if len(modes) == 0 {
		modes = model.Modes
	}

	results := make([]ComparisonResult, 0, len(modes))
	for _, mode := range modes {
		settings := base
		settings.Mode = mode

		plan, err := New(settings).WithLogger(logger).Plan(sheets, pieces)
		if err != nil {
			var sizing *SizingError
			if !errors.As(err, &sizing) {
				return nil, err
			}
			results = append(results, ComparisonResult{Mode: mode, Err: err})
			continue
		}

		results = append(results, ComparisonResult{
			Mode:         mode,
			Plan:         plan,
			SheetsUsed:   plan.Statistics.SheetsUsed,
			TotalCuts:    plan.Statistics.TotalCuts,
			WastePercent: plan.Statistics.TotalWastePercentage,
		})
	}
	return results, nil
}

// Best returns the successful result using the fewest sheets, then the
// lowest waste. The first such mode wins ties.
func Best(results []ComparisonResult) (ComparisonResult, bool) {
	var best ComparisonResult
	found := false
	for _, r := range results {
		if r.Failed() {
			continue
		}
		if !found ||
			r.SheetsUsed < best.SheetsUsed ||
			(r.SheetsUsed == best.SheetsUsed && r.WastePercent.LessThan(best.WastePercent)) {
			best = r
			found = true
		}
	}
	return best, found
}
