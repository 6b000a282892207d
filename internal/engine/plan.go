package engine

import (
	"github.com/piwi3910/cutplan/internal/model"
)

// Plan runs the whole pipeline: packing, cut derivation per sheet, offcut
// detection, instructions, and statistics. It fails exactly when Optimize
// fails and never returns a partial plan.
func (o *Optimizer) Plan(sheets []model.SheetSpec, pieces []model.PieceSpec) (*model.Plan, error) {
	layouts, err := o.Optimize(sheets, pieces)
	if err != nil {
		return nil, err
	}
	sheet := sheets[0]

	plan := &model.Plan{
		Mode:    o.Settings.Mode,
		Units:   o.Settings.Units,
		Layouts: make([]model.LayoutResult, 0, len(layouts)),
	}
	cutsPerSheet := make([][]model.Cut, len(layouts))
	usable := 0

	for i, sl := range layouts {
		cuts := DeriveCuts(sl, o.Settings.Units)
		cutsPerSheet[i] = cuts
		offcuts := model.DetectOffcuts(sl, i, o.Settings.MinUsableOffcut, sheet.CostPerSheet)
		usable += len(offcuts)

		plan.Layouts = append(plan.Layouts, model.LayoutResult{
			SheetIndex:      i,
			Width:           sl.Width,
			Height:          sl.Height,
			Pieces:          sl.Placements,
			Cuts:            cuts,
			WasteArea:       sl.WasteArea(),
			WastePercentage: sl.WastePercentage(),
			Offcuts:         offcuts,
		})
	}

	plan.Instructions = GenerateInstructions(plan.Layouts, o.Settings.Units)
	plan.Statistics = ComputeStatistics(layouts, cutsPerSheet, sheet)
	plan.Statistics.UsableOffcuts = usable

	o.logger.Debug("plan ready",
		"sheets", plan.Statistics.SheetsUsed,
		"cuts", plan.Statistics.TotalCuts,
		"waste_pct", plan.Statistics.TotalWastePercentage.StringFixed(2))
	return plan, nil
}
