package engine

import (
	"github.com/shopspring/decimal"

	"github.com/piwi3910/cutplan/internal/model"
)

// minutesPerCut is the flat time estimate for one straight cut.
const minutesPerCut = 2

// ComputeStatistics aggregates a finished run. Waste percentage is measured
// against sheetsUsed copies of the run's sheet; the largest offcut is the
// biggest free rect on the last sheet opened. TotalCost is set only when the
// sheet carries a cost.
func ComputeStatistics(layouts []*model.SheetLayout, cutsPerSheet [][]model.Cut, sheet model.SheetSpec) model.Statistics {
	stats := model.Statistics{
		TotalWasteArea:       decimal.Zero,
		TotalWastePercentage: decimal.Zero,
		SheetsUsed:           len(layouts),
	}

	for _, cuts := range cutsPerSheet {
		stats.TotalCuts += len(cuts)
	}
	stats.EstimatedTimeMinutes = stats.TotalCuts * minutesPerCut

	for _, sl := range layouts {
		stats.TotalWasteArea = stats.TotalWasteArea.Add(sl.WasteArea())
	}

	totalArea := sheet.Area().Mul(decimal.NewFromInt(int64(stats.SheetsUsed)))
	if totalArea.IsPositive() {
		stats.TotalWastePercentage = stats.TotalWasteArea.Div(totalArea).Mul(decimal.NewFromInt(100))
	}

	if len(layouts) > 0 {
		if r, ok := layouts[len(layouts)-1].LargestFreeRect(); ok {
			w, h := r.Width, r.Height
			stats.LargestOffcutWidth = &w
			stats.LargestOffcutHeight = &h
		}
	}

	if sheet.CostPerSheet != nil {
		cost := sheet.CostPerSheet.Mul(decimal.NewFromInt(int64(stats.SheetsUsed)))
		stats.TotalCost = &cost
	}
	return stats
}
