package export

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/cutplan/internal/model"
)

func TestExportXLSX_WritesTables(t *testing.T) {
	plan := buildTestPlan(t)
	path := filepath.Join(t.TempDir(), "plan.xlsx")
	if err := ExportXLSX(path, plan); err != nil {
		t.Fatalf("ExportXLSX returned error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("cannot reopen workbook: %v", err)
	}
	defer f.Close()

	want := []string{sheetSummary, sheetPieces, sheetCuts, sheetInstructions}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("expected sheets %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sheet %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	pieceRows, err := f.GetRows(sheetPieces)
	if err != nil {
		t.Fatalf("read pieces: %v", err)
	}
	if len(pieceRows) != plan.PlacedCount()+1 {
		t.Errorf("expected %d piece rows, got %d", plan.PlacedCount()+1, len(pieceRows))
	}

	steps, err := f.GetRows(sheetInstructions)
	if err != nil {
		t.Fatalf("read instructions: %v", err)
	}
	if len(steps) != len(plan.Instructions)+1 {
		t.Errorf("expected %d instruction rows, got %d", len(plan.Instructions)+1, len(steps))
	}
	if steps[1][1] != "Start with Sheet #1" {
		t.Errorf("unexpected first step %q", steps[1][1])
	}

	summary, err := f.GetRows(sheetSummary)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if summary[1][0] != "Sheets used" {
		t.Errorf("unexpected summary row %v", summary[1])
	}
	if last := summary[len(summary)-1]; last[0] != "Total cost" {
		t.Errorf("expected total cost row last, got %v", last)
	}
}

func TestExportXLSX_EmptyPlan(t *testing.T) {
	if err := ExportXLSX(filepath.Join(t.TempDir(), "empty.xlsx"), nil); err == nil {
		t.Fatal("expected error for nil plan, got nil")
	}
}

func TestSummaryRowsOmitUnsetValues(t *testing.T) {
	rows := summaryRows(&model.Plan{Mode: model.ModeCuts})
	for _, r := range rows {
		if r[0] == "Total cost" || r[0] == "Largest offcut width" {
			t.Errorf("unexpected row %v", r)
		}
	}
	if rows[0][1] != "cuts" {
		t.Errorf("expected mode row first, got %v", rows[0])
	}
}
