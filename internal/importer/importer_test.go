package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"github.com/yofu/dxf"

	apperrors "github.com/piwi3910/cutplan/internal/errors"
	"github.com/piwi3910/cutplan/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"comma", "Label,Width,Height,Qty\nShelf,24,12,2\nDoor,16,30,1\n", ','},
		{"semicolon", "Label;Width;Height;Qty\nShelf;24;12;2\nDoor;16;30;1\n", ';'},
		{"tab", "Label\tWidth\tHeight\tQty\nShelf\t24\t12\t2\nDoor\t16\t30\t1\n", '\t'},
		{"pipe", "Label|Width|Height|Qty\nShelf|24|12|2\nDoor|16|30|1\n", '|'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCSVDelimiter([]byte(tt.data)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Label", "Width", "Height", "Quantity", "Grain", "Priority"})
	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	want := ColumnMapping{Label: 0, Width: 1, Height: 2, Quantity: 3, Grain: 4, Priority: 5}
	if mapping != want {
		t.Errorf("expected %+v, got %+v", want, mapping)
	}
}

func TestDetectColumns_AliasesAndOrder(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"QTY", "grain_direction", "H", "W", "Name"})
	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if mapping.Quantity != 0 || mapping.Grain != 1 || mapping.Height != 2 || mapping.Width != 3 || mapping.Label != 4 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
	if mapping.Priority != -1 {
		t.Errorf("expected no priority column, got %d", mapping.Priority)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Shelf", "24", "12", "2"})
	if isHeader {
		t.Error("expected no header")
	}
	if mapping.Label != 0 || mapping.Width != 1 || mapping.Height != 2 || mapping.Quantity != 3 {
		t.Errorf("expected positional mapping, got %+v", mapping)
	}
}

// ─── CSV Import Tests ──────────────────────────────────────

func TestImportCSVFromReader_WithHeaders(t *testing.T) {
	data := "Label,Width,Height,Quantity,Grain,Priority\nShelf,24.5,12,2,parallel,3\nDoor,16,30,1,,\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(result.Pieces))
	}

	shelf := result.Pieces[0]
	if shelf.Label != "Shelf" {
		t.Errorf("expected label 'Shelf', got '%s'", shelf.Label)
	}
	if !shelf.Width.Equal(dec("24.5")) || !shelf.Height.Equal(dec("12")) {
		t.Errorf("expected 24.5 x 12, got %s x %s", shelf.Width, shelf.Height)
	}
	if shelf.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", shelf.Quantity)
	}
	if shelf.Grain != model.GrainParallel {
		t.Errorf("expected parallel grain, got %v", shelf.Grain)
	}
	if shelf.Priority != 3 {
		t.Errorf("expected priority 3, got %d", shelf.Priority)
	}
	if result.Pieces[1].Grain != model.GrainNone {
		t.Errorf("expected no grain, got %v", result.Pieces[1].Grain)
	}
}

func TestImportCSVFromReader_WithoutHeaders(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Shelf,24,12,2\nDoor,16,30,1\n"), ',')
	if len(result.Pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d (errors: %v)", len(result.Pieces), result.Errors)
	}
	if !result.Pieces[1].Height.Equal(dec("30")) {
		t.Errorf("expected height 30, got %s", result.Pieces[1].Height)
	}
}

func TestImportCSVFromReader_UnrecognizedHeaderSkipped(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Teil,Breite,Hoehe,Anzahl\nShelf,24,12,2\n"), ',')
	if len(result.Pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d (errors: %v)", len(result.Pieces), result.Errors)
	}
}

func TestImportCSVFromReader_DecimalComma(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Label;Width;Height;Quantity\nShelf;24,5;12,25;2\n"), ';')
	if len(result.Pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d (errors: %v)", len(result.Pieces), result.Errors)
	}
	if !result.Pieces[0].Width.Equal(dec("24.5")) || !result.Pieces[0].Height.Equal(dec("12.25")) {
		t.Errorf("unexpected size %s x %s", result.Pieces[0].Width, result.Pieces[0].Height)
	}
}

func TestImportCSVFromReader_RowErrors(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"invalid width", "Shelf,abc,12,2"},
		{"missing height", "Shelf,24,,2"},
		{"invalid quantity", "Shelf,24,12,abc"},
		{"negative width", "Shelf,-24,12,2"},
		{"zero quantity", "Shelf,24,12,0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ImportCSVFromReader(strings.NewReader("Label,Width,Height,Quantity\n"+tt.row+"\n"), ',')
			if len(result.Errors) == 0 {
				t.Error("expected a row error")
			}
			if len(result.Pieces) != 0 {
				t.Errorf("expected 0 pieces, got %d", len(result.Pieces))
			}
			if !apperrors.Is(result.Err(), apperrors.ErrCodeInvalidFormat) {
				t.Errorf("expected INVALID_FORMAT, got %v", result.Err())
			}
		})
	}
}

func TestImportCSVFromReader_MixedValidAndInvalid(t *testing.T) {
	data := "Label,Width,Height,Quantity\nGood,24,12,2\nBad,abc,12,2\n\n\nAlsoGood,16,8,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Pieces) != 2 {
		t.Errorf("expected 2 valid pieces, got %d", len(result.Pieces))
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Line 3") {
		t.Errorf("expected one error on line 3, got %v", result.Errors)
	}
}

func TestImportCSVFromReader_EmptyLabel(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Label,Width,Height,Quantity\n,24,12,2\n"), ',')
	if len(result.Pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(result.Pieces))
	}
	if result.Pieces[0].Label != "Piece 1" {
		t.Errorf("expected auto-generated label 'Piece 1', got '%s'", result.Pieces[0].Label)
	}
}

func TestImportCSVFromReader_GrainParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected model.GrainDirection
		warning  bool
	}{
		{"Parallel", model.GrainParallel, false},
		{"par", model.GrainParallel, false},
		{"perpendicular", model.GrainPerpendicular, false},
		{"PERP", model.GrainPerpendicular, false},
		{"none", model.GrainNone, false},
		{"-", model.GrainNone, false},
		{"", model.GrainNone, false},
		{"horizontal", model.GrainDirection("horizontal"), true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			data := "Label,Width,Height,Quantity,Grain\nPart,24,12,1," + tt.input + "\n"
			result := ImportCSVFromReader(strings.NewReader(data), ',')

			if len(result.Pieces) != 1 {
				t.Fatalf("expected 1 piece, got %d (errors: %v)", len(result.Pieces), result.Errors)
			}
			if result.Pieces[0].Grain != tt.expected {
				t.Errorf("grain %q: expected %v, got %v", tt.input, tt.expected, result.Pieces[0].Grain)
			}
			hasWarning := false
			for _, w := range result.Warnings {
				if strings.Contains(w, "does not lock rotation") {
					hasWarning = true
				}
			}
			if hasWarning != tt.warning {
				t.Errorf("grain %q: warning=%v, expected %v", tt.input, hasWarning, tt.warning)
			}
		})
	}
}

func TestImportCSVFromReader_InvalidPriorityWarns(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Label,Width,Height,Quantity,Priority\nA,24,12,1,high\n"), ',')
	if len(result.Pieces) != 1 || result.Pieces[0].Priority != 0 {
		t.Fatalf("expected one piece with priority 0, got %+v", result.Pieces)
	}
	if len(result.Warnings) < 2 {
		t.Errorf("expected a priority warning, got %v", result.Warnings)
	}
}

func TestImportCSVFromReader_MissingRequiredColumnInHeader(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Label,Width,Grain\nShelf,24,parallel\n"), ',')
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Height, Quantity") {
		t.Errorf("expected missing column error, got %v", result.Errors)
	}
}

func TestImportCSVFromReader_EmptyAndHeaderOnly(t *testing.T) {
	if result := ImportCSVFromReader(strings.NewReader(""), ','); len(result.Errors) == 0 {
		t.Error("expected error for empty input")
	}
	result := ImportCSVFromReader(strings.NewReader("Label,Width,Height,Quantity\n"), ',')
	if len(result.Pieces) != 0 || len(result.Errors) != 0 {
		t.Errorf("expected no pieces and no errors, got %d pieces, %v", len(result.Pieces), result.Errors)
	}
}

// ─── File Import Tests ─────────────────────────────────────

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestImportCSV_SemicolonFile(t *testing.T) {
	path := writeFile(t, "pieces.csv", "Label;Width;Height;Quantity\nShelf;24;12;2\nDoor;16;30;1\n")
	result := ImportCSV(path)

	if len(result.Pieces) != 2 {
		t.Errorf("expected 2 pieces, got %d (errors: %v)", len(result.Pieces), result.Errors)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "semicolon") {
			found = true
		}
	}
	if !found {
		t.Error("expected warning about semicolon delimiter detection")
	}
}

func TestImportCSV_MissingAndEmptyFiles(t *testing.T) {
	if result := ImportCSV("/nonexistent/path/file.csv"); len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
	if result := ImportCSV(writeFile(t, "empty.csv", "  \n")); len(result.Errors) == 0 {
		t.Error("expected error for empty file")
	}
}

func TestImport_DispatchesByExtension(t *testing.T) {
	path := writeFile(t, "pieces.CSV", "Label,Width,Height,Quantity\nShelf,24,12,2\n")
	result, err := Import(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Pieces) != 1 {
		t.Errorf("expected 1 piece, got %d", len(result.Pieces))
	}

	_, err = Import("pieces.json")
	if !apperrors.Is(err, apperrors.ErrCodeInvalidFormat) {
		t.Errorf("expected INVALID_FORMAT for unknown extension, got %v", err)
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pieces.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Name", "Width", "Height", "Qty", "Grain"},
		{"Shelf", 24.5, 12, 2, "perpendicular"},
		{"Door", 16, 30, 1, ""},
	})

	result := ImportExcel(path)
	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(result.Pieces))
	}
	if !result.Pieces[0].Width.Equal(dec("24.5")) {
		t.Errorf("expected width 24.5, got %s", result.Pieces[0].Width)
	}
	if result.Pieces[0].Grain != model.GrainPerpendicular {
		t.Errorf("expected perpendicular grain, got %v", result.Pieces[0].Grain)
	}
}

func TestImportExcel_ErrorRows(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Label", "Width", "Height", "Quantity"},
		{"Shelf", "abc", 12, 2},
	})
	if result := ImportExcel(path); len(result.Errors) == 0 || !strings.HasPrefix(result.Errors[0], "Row 2") {
		t.Errorf("expected error on row 2, got %v", result.Errors)
	}
	if result := ImportExcel("/nonexistent/file.xlsx"); len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

// ─── DXF Import Tests ──────────────────────────────────────

func createTestDXF(t *testing.T, loops ...[][2]float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pieces.dxf")
	d := dxf.NewDrawing()
	for _, loop := range loops {
		for i := range loop {
			a, b := loop[i], loop[(i+1)%len(loop)]
			if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
				t.Fatalf("failed to add line: %v", err)
			}
		}
	}
	if err := d.SaveAs(path); err != nil {
		t.Fatalf("failed to save DXF: %v", err)
	}
	return path
}

func TestImportDXF_Rectangles(t *testing.T) {
	path := createTestDXF(t,
		[][2]float64{{0, 0}, {10, 0}, {10, 5}, {0, 5}},
		[][2]float64{{20, 0}, {44.5, 0}, {44.5, 12}, {20, 12}},
	)

	result := ImportDXF(path)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(result.Pieces))
	}
	// Largest outline first
	if !result.Pieces[0].Width.Equal(dec("24.5")) || !result.Pieces[0].Height.Equal(dec("12")) {
		t.Errorf("expected 24.5 x 12, got %s x %s", result.Pieces[0].Width, result.Pieces[0].Height)
	}
	if !result.Pieces[1].Width.Equal(dec("10")) || !result.Pieces[1].Height.Equal(dec("5")) {
		t.Errorf("expected 10 x 5, got %s x %s", result.Pieces[1].Width, result.Pieces[1].Height)
	}
	for _, w := range result.Warnings {
		if strings.Contains(w, "not a rectangle") {
			t.Errorf("unexpected warning %q", w)
		}
	}
}

func TestImportDXF_TriangleUsesBoundingBox(t *testing.T) {
	path := createTestDXF(t, [][2]float64{{0, 0}, {8, 0}, {0, 6}})

	result := ImportDXF(path)
	if len(result.Pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d (errors: %v)", len(result.Pieces), result.Errors)
	}
	if !result.Pieces[0].Width.Equal(dec("8")) || !result.Pieces[0].Height.Equal(dec("6")) {
		t.Errorf("expected 8 x 6 bounding box, got %s x %s", result.Pieces[0].Width, result.Pieces[0].Height)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "not a rectangle") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected bounding box warning, got %v", result.Warnings)
	}
}

func TestImportDXF_OpenChainIsNotAPiece(t *testing.T) {
	path := filepath.Join(t.TempDir(), "open.dxf")
	d := dxf.NewDrawing()
	if _, err := d.Line(0, 0, 0, 10, 0, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Line(10, 0, 0, 10, 10, 0); err != nil {
		t.Fatal(err)
	}
	if err := d.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	result := ImportDXF(path)
	if len(result.Errors) == 0 {
		t.Error("expected 'no closed shapes' error")
	}
}

func TestChainSegments(t *testing.T) {
	segs := []segment{
		{point{0, 0}, point{4, 0}},
		{point{4, 3}, point{0, 3}},
		{point{4, 0}, point{4, 3}},
		{point{0, 3}, point{0, 0.005}},
	}
	outlines := chainSegments(segs, dxfTolerance)
	if len(outlines) != 1 {
		t.Fatalf("expected 1 outline, got %d", len(outlines))
	}
	if len(outlines[0]) != 4 {
		t.Errorf("expected 4 corners, got %d", len(outlines[0]))
	}
	if got := outlineArea(outlines[0]); got < 11.9 || got > 12.1 {
		t.Errorf("expected area near 12, got %f", got)
	}
}
