package export

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/piwi3910/cutplan/internal/model"
)

func TestExportLabels_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")
	if err := ExportLabels(path, buildTestPlan(t)); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	assertNonEmptyFile(t, path, 500)
}

func TestExportLabels_EmptyPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	if err := ExportLabels(path, &model.Plan{}); err == nil {
		t.Fatal("expected error for empty plan, got nil")
	}

	noPieces := &model.Plan{Layouts: []model.LayoutResult{{Width: dec("96"), Height: dec("48")}}}
	if err := ExportLabels(path, noPieces); err == nil {
		t.Fatal("expected error for plan with no pieces, got nil")
	}
}

func TestCollectLabelInfos(t *testing.T) {
	plan := &model.Plan{
		Units: model.UnitsImperial,
		Layouts: []model.LayoutResult{
			{Pieces: []model.PlacedPiece{
				{Label: "Side", X: dec("0"), Y: dec("0"), Width: dec("30"), Height: dec("23.25")},
				{Label: "Top", X: dec("30.125"), Y: dec("0"), Width: dec("23.25"), Height: dec("34.5"), Rotated: true},
			}},
			{Pieces: []model.PlacedPiece{
				{Label: "Back", X: dec("0"), Y: dec("0"), Width: dec("40"), Height: dec("30")},
			}},
		},
	}

	labels := CollectLabelInfos(plan)
	if len(labels) != 3 {
		t.Fatalf("expected 3 labels, got %d", len(labels))
	}
	if labels[0].PieceLabel != "Side" || labels[0].SheetIndex != 1 {
		t.Errorf("unexpected first label %+v", labels[0])
	}
	if !labels[1].Rotated || !labels[1].X.Equal(dec("30.125")) {
		t.Errorf("unexpected second label %+v", labels[1])
	}
	if labels[2].SheetIndex != 2 {
		t.Errorf("expected sheet index 2 for third label, got %d", labels[2].SheetIndex)
	}
}

func TestLabelInfo_QRPayload(t *testing.T) {
	info := LabelInfo{PieceLabel: "Shelf", Width: dec("33.75"), Height: dec("11.5"), Units: model.UnitsImperial, SheetIndex: 2}
	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if payload["label"] != "Shelf" || payload["width"] != "33.75" || payload["units"] != "imperial" {
		t.Errorf("unexpected payload %s", data)
	}
}

func TestExportLabels_MultiplePages(t *testing.T) {
	var pieces []model.PlacedPiece
	for i := 0; i < 35; i++ {
		pieces = append(pieces, model.PlacedPiece{Label: "Block", X: dec("0"), Y: dec("0"), Width: dec("4"), Height: dec("4")})
	}
	plan := &model.Plan{Layouts: []model.LayoutResult{{Width: dec("96"), Height: dec("48"), Pieces: pieces}}}

	path := filepath.Join(t.TempDir(), "many_labels.pdf")
	if err := ExportLabels(path, plan); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	assertNonEmptyFile(t, path, 500)
}
