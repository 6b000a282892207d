package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/cutplan/internal/model"
)

// Worksheet names written by ExportXLSX.
const (
	sheetSummary      = "Summary"
	sheetPieces       = "Pieces"
	sheetCuts         = "Cuts"
	sheetInstructions = "Instructions"
)

// ExportXLSX writes the plan as a workbook with a summary sheet and one
// table each for placed pieces, cuts, and operator instructions.
func ExportXLSX(path string, plan *model.Plan) error {
	if plan == nil || len(plan.Layouts) == 0 {
		return errEmptyPlan
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetPieces, sheetCuts, sheetInstructions} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	tables := []struct {
		sheet  string
		header []interface{}
		rows   [][]interface{}
	}{
		{sheetSummary, []interface{}{"Metric", "Value"}, summaryRows(plan)},
		{sheetPieces, []interface{}{"Sheet", "Label", "X", "Y", "Width", "Height", "Rotated"}, pieceRows(plan)},
		{sheetCuts, []interface{}{"Sheet", "Sequence", "Axis", "X1", "Y1", "X2", "Y2", "Length", "Pieces", "Description"}, cutRows(plan)},
		{sheetInstructions, []interface{}{"Step", "Description", "Measurement", "Pieces", "Safety"}, instructionRows(plan)},
	}

	for _, t := range tables {
		if err := writeTable(f, t.sheet, t.header, t.rows, bold); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write xlsx %s: %w", path, err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func summaryRows(plan *model.Plan) [][]interface{} {
	st := plan.Statistics
	rows := [][]interface{}{
		{"Optimization mode", string(plan.Mode)},
		{"Sheets used", st.SheetsUsed},
		{"Pieces placed", plan.PlacedCount()},
		{"Total cuts", st.TotalCuts},
		{"Total waste area", f64(st.TotalWasteArea)},
		{"Total waste %", f64(st.TotalWastePercentage.Round(2))},
		{"Usable offcuts", st.UsableOffcuts},
		{"Estimated time (min)", st.EstimatedTimeMinutes},
	}
	if st.LargestOffcutWidth != nil && st.LargestOffcutHeight != nil {
		rows = append(rows,
			[]interface{}{"Largest offcut width", f64(*st.LargestOffcutWidth)},
			[]interface{}{"Largest offcut height", f64(*st.LargestOffcutHeight)})
	}
	if st.TotalCost != nil {
		rows = append(rows, []interface{}{"Total cost", f64(*st.TotalCost)})
	}
	return rows
}

func pieceRows(plan *model.Plan) [][]interface{} {
	var rows [][]interface{}
	for i, l := range plan.Layouts {
		for _, p := range l.Pieces {
			rows = append(rows, []interface{}{i + 1, p.Label, f64(p.X), f64(p.Y), f64(p.Width), f64(p.Height), p.Rotated})
		}
	}
	return rows
}

func cutRows(plan *model.Plan) [][]interface{} {
	var rows [][]interface{}
	for i, l := range plan.Layouts {
		for _, c := range l.Cuts {
			rows = append(rows, []interface{}{
				i + 1, c.Sequence, string(c.Axis),
				f64(c.X1), f64(c.Y1), f64(c.X2), f64(c.Y2), f64(c.Length()),
				strings.Join(c.Labels, ", "), c.Description,
			})
		}
	}
	return rows
}

func instructionRows(plan *model.Plan) [][]interface{} {
	rows := make([][]interface{}, 0, len(plan.Instructions))
	for _, s := range plan.Instructions {
		rows = append(rows, []interface{}{s.Step, s.Description, s.Measurement, strings.Join(s.PiecesProduced, ", "), s.SafetyNote})
	}
	return rows
}
