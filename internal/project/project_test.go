package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "github.com/piwi3910/cutplan/internal/errors"
	"github.com/piwi3910/cutplan/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleProject() model.Project {
	p := model.NewProject()
	p.Name = "Kitchen"
	cost := d("54.99")
	sheet := model.NewSheetSpec("Plywood", d("96"), d("48"), 3)
	sheet.CostPerSheet = &cost
	sheet.HasGrain = true
	p.Sheets = append(p.Sheets, sheet)

	side := model.NewPieceSpec("Side", d("30"), d("23.25"), 2)
	side.Grain = model.GrainParallel
	shelf := model.NewPieceSpec("Shelf", d("28.5"), d("11.75"), 4)
	shelf.Priority = 2
	p.Pieces = append(p.Pieces, side, shelf)
	return p
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"kitchen.json": FormatJSON,
		"kitchen.TOML": FormatTOML,
		"kitchen.toml": FormatTOML,
		"kitchen":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFor(path); got != want {
			t.Errorf("FormatFor(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestSaveAndLoadProjectRoundTrip(t *testing.T) {
	for _, name := range []string{"kitchen.json", "kitchen.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := SaveProject(path, sampleProject()); err != nil {
				t.Fatalf("SaveProject failed: %v", err)
			}

			loaded, err := LoadProject(path, model.DefaultSettings())
			if err != nil {
				t.Fatalf("LoadProject failed: %v", err)
			}
			if loaded.Name != "Kitchen" {
				t.Errorf("expected name Kitchen, got %s", loaded.Name)
			}
			if len(loaded.Sheets) != 1 || len(loaded.Pieces) != 2 {
				t.Fatalf("expected 1 sheet and 2 pieces, got %d and %d", len(loaded.Sheets), len(loaded.Pieces))
			}
			sheet := loaded.Sheets[0]
			if sheet.CostPerSheet == nil || !sheet.CostPerSheet.Equal(d("54.99")) {
				t.Errorf("expected sheet cost 54.99, got %v", sheet.CostPerSheet)
			}
			if !sheet.HasGrain {
				t.Error("expected sheet grain to survive")
			}
			if sheet.Thickness != nil {
				t.Error("expected nil thickness to stay nil")
			}
			if !loaded.Pieces[0].Height.Equal(d("23.25")) {
				t.Errorf("expected exact height 23.25, got %s", loaded.Pieces[0].Height)
			}
			if loaded.Pieces[0].Grain != model.GrainParallel {
				t.Errorf("expected parallel grain, got %s", loaded.Pieces[0].Grain)
			}
			if loaded.Pieces[1].Priority != 2 {
				t.Errorf("expected priority 2, got %d", loaded.Pieces[1].Priority)
			}
			if !loaded.Settings.KerfWidth.Equal(d("0.125")) {
				t.Errorf("expected kerf 0.125, got %s", loaded.Settings.KerfWidth)
			}
		})
	}
}

func TestLoadProjectAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.json")
	data := `{
  "name": "Minimal",
  "sheets": [{"width": 96, "height": 48, "quantity": 1}],
  "pieces": [{"label": "Door", "width": "23.5", "height": 30, "quantity": 2, "grain_direction": "PERP"}]
}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	defaults := model.DefaultSettings()
	defaults.Mode = model.ModeCuts
	p, err := LoadProject(path, defaults)
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	if p.Settings.Mode != model.ModeCuts {
		t.Errorf("expected default mode cuts, got %s", p.Settings.Mode)
	}
	if p.Pieces[0].Grain != model.GrainPerpendicular {
		t.Errorf("expected normalized grain perpendicular, got %s", p.Pieces[0].Grain)
	}
	if !p.Pieces[0].Width.Equal(d("23.5")) {
		t.Errorf("expected width 23.5, got %s", p.Pieces[0].Width)
	}
}

func TestLoadProjectTOMLDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.toml")
	data := `
name = "Shop"

[settings]
optimization_mode = "grain"
kerf_width = "0.1"
unit_system = "metric"

[[sheets]]
width = "2440"
height = "1220"
quantity = 2

[[pieces]]
label = "Top"
width = "800"
height = "600"
quantity = 1
grain_direction = "parallel"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadProject(path, model.DefaultSettings())
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	if p.Settings.Mode != model.ModeGrain || p.Settings.Units != model.UnitsMetric {
		t.Errorf("unexpected settings %+v", p.Settings)
	}
	if !p.Sheets[0].Width.Equal(d("2440")) {
		t.Errorf("expected sheet width 2440, got %s", p.Sheets[0].Width)
	}
	if !p.Settings.MinUsableOffcut.Equal(d("6")) {
		t.Errorf("expected default min offcut 6, got %s", p.Settings.MinUsableOffcut)
	}
}

func TestLoadProjectErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadProject(filepath.Join(dir, "missing.json"), model.DefaultSettings())
	if !apperrors.Is(err, apperrors.ErrCodeFileNotFound) {
		t.Errorf("expected FILE_NOT_FOUND, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadProject(bad, model.DefaultSettings())
	if !apperrors.Is(err, apperrors.ErrCodeInvalidFormat) {
		t.Errorf("expected INVALID_FORMAT, got %v", err)
	}

	noSheets := filepath.Join(dir, "nosheets.json")
	if err := os.WriteFile(noSheets, []byte(`{"name":"x","sheets":[],"pieces":[]}`), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadProject(noSheets, model.DefaultSettings())
	if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "sheet") {
		t.Errorf("expected message about sheets, got %v", err)
	}
}
