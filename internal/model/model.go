package model

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GrainDirection is the grain constraint of a piece relative to the sheet grain.
// Values other than the named constants are kept verbatim; they only matter
// for grouping in the grain ordering and never lock rotation.
type GrainDirection string

const (
	GrainNone          GrainDirection = "none"
	GrainParallel      GrainDirection = "parallel"
	GrainPerpendicular GrainDirection = "perpendicular"
)

// Locked reports whether the direction forbids rotating the piece 90°.
func (g GrainDirection) Locked() bool {
	return g == GrainParallel || g == GrainPerpendicular
}

// Key returns the value used when grouping pieces by grain; absent is "none".
func (g GrainDirection) Key() string {
	if g == "" {
		return string(GrainNone)
	}
	return string(g)
}

func (g GrainDirection) String() string {
	return g.Key()
}

// ParseGrain normalizes a user supplied grain string.
func ParseGrain(s string) GrainDirection {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "n", "-":
		return GrainNone
	case "parallel", "par":
		return GrainParallel
	case "perpendicular", "perp":
		return GrainPerpendicular
	default:
		return GrainDirection(strings.ToLower(strings.TrimSpace(s)))
	}
}

// GrainImportance controls whether grain constraints are enforced.
type GrainImportance string

const (
	GrainImportanceHigh   GrainImportance = "high"
	GrainImportanceMedium GrainImportance = "medium"
	GrainImportanceLow    GrainImportance = "low"
)

// Enforced reports whether grain-locked pieces must keep their orientation.
func (g GrainImportance) Enforced() bool {
	return g == GrainImportanceHigh || g == GrainImportanceMedium
}

// Mode selects the piece ordering used before packing.
type Mode string

const (
	ModeWaste    Mode = "waste"    // Largest area first
	ModeCuts     Mode = "cuts"     // Smallest perimeter first
	ModeSheets   Mode = "sheets"   // Largest area, then longest side
	ModeGrain    Mode = "grain"    // Grouped by grain direction, then area
	ModeBalanced Mode = "balanced" // Longest side first
)

// Modes lists every named optimization mode in display order.
var Modes = []Mode{ModeWaste, ModeCuts, ModeSheets, ModeGrain, ModeBalanced}

// Units selects how measurements are suffixed in operator instructions.
type Units string

const (
	UnitsImperial Units = "imperial"
	UnitsMetric   Units = "metric"
)

// Suffix returns the string appended to lengths in instructions.
func (u Units) Suffix() string {
	if u == UnitsMetric {
		return " mm"
	}
	return `"`
}

// SheetSpec describes the stock sheet used for a run.
type SheetSpec struct {
	ID           string           `json:"id,omitempty" toml:"id"`
	Label        string           `json:"label,omitempty" toml:"label"`
	Width        decimal.Decimal  `json:"width" toml:"width"`
	Height       decimal.Decimal  `json:"height" toml:"height"`
	Quantity     int              `json:"quantity" toml:"quantity"` // informational; sheets are opened on demand
	HasGrain     bool             `json:"has_grain" toml:"has_grain"`
	Material     string           `json:"material_type,omitempty" toml:"material_type"`
	Thickness    *decimal.Decimal `json:"thickness,omitempty" toml:"thickness"`
	CostPerSheet *decimal.Decimal `json:"cost_per_sheet,omitempty" toml:"cost_per_sheet"`
}

func NewSheetSpec(label string, w, h decimal.Decimal, qty int) SheetSpec {
	return SheetSpec{
		ID:       uuid.New().String()[:8],
		Label:    label,
		Width:    w,
		Height:   h,
		Quantity: qty,
	}
}

// Area returns width*height.
func (s SheetSpec) Area() decimal.Decimal {
	return s.Width.Mul(s.Height)
}

// PieceSpec describes a required rectangular piece.
type PieceSpec struct {
	ID       string          `json:"id,omitempty" toml:"id"`
	Label    string          `json:"label,omitempty" toml:"label"`
	Width    decimal.Decimal `json:"width" toml:"width"`
	Height   decimal.Decimal `json:"height" toml:"height"`
	Quantity int             `json:"quantity" toml:"quantity"`
	Grain    GrainDirection  `json:"grain_direction,omitempty" toml:"grain_direction"`
	Priority int             `json:"priority" toml:"priority"`
}

func NewPieceSpec(label string, w, h decimal.Decimal, qty int) PieceSpec {
	return PieceSpec{
		ID:       uuid.New().String()[:8],
		Label:    label,
		Width:    w,
		Height:   h,
		Quantity: qty,
		Grain:    GrainNone,
	}
}

// Area returns width*height.
func (p PieceSpec) Area() decimal.Decimal {
	return p.Width.Mul(p.Height)
}

// Perimeter returns 2*(width+height).
func (p PieceSpec) Perimeter() decimal.Decimal {
	return p.Width.Add(p.Height).Mul(decimal.NewFromInt(2))
}

// LongestSide returns the larger of width and height.
func (p PieceSpec) LongestSide() decimal.Decimal {
	return decimal.Max(p.Width, p.Height)
}

// Settings holds the run-scoped optimizer configuration.
type Settings struct {
	Mode            Mode            `json:"optimization_mode" toml:"optimization_mode"`
	KerfWidth       decimal.Decimal `json:"kerf_width" toml:"kerf_width"`
	MinUsableOffcut decimal.Decimal `json:"min_usable_offcut" toml:"min_usable_offcut"`
	GrainImportance GrainImportance `json:"grain_importance" toml:"grain_importance"`
	Units           Units           `json:"unit_system,omitempty" toml:"unit_system"`
}

func DefaultSettings() Settings {
	return Settings{
		Mode:            ModeWaste,
		KerfWidth:       decimal.RequireFromString("0.125"),
		MinUsableOffcut: decimal.RequireFromString("6.0"),
		GrainImportance: GrainImportanceMedium,
		Units:           UnitsImperial,
	}
}

// PlacedPiece is a piece instance positioned on a sheet.
// X and Y locate its lower-left corner; Width and Height are post-rotation.
type PlacedPiece struct {
	Label      string          `json:"label"`
	PieceIndex int             `json:"piece_index"`
	X          decimal.Decimal `json:"x"`
	Y          decimal.Decimal `json:"y"`
	Width      decimal.Decimal `json:"width"`
	Height     decimal.Decimal `json:"height"`
	Rotated    bool            `json:"rotated"`
}

// Area returns the footprint area, ignoring kerf.
func (p PlacedPiece) Area() decimal.Decimal {
	return p.Width.Mul(p.Height)
}

// Right returns x+width.
func (p PlacedPiece) Right() decimal.Decimal { return p.X.Add(p.Width) }

// Top returns y+height.
func (p PlacedPiece) Top() decimal.Decimal { return p.Y.Add(p.Height) }

// FreeRect is an unoccupied region of a sheet. Free rects may overlap each other.
type FreeRect struct {
	X      decimal.Decimal `json:"x"`
	Y      decimal.Decimal `json:"y"`
	Width  decimal.Decimal `json:"width"`
	Height decimal.Decimal `json:"height"`
}

// Area returns width*height.
func (r FreeRect) Area() decimal.Decimal {
	return r.Width.Mul(r.Height)
}

// Fits reports whether a w x h piece fits without rotation.
func (r FreeRect) Fits(w, h decimal.Decimal) bool {
	return w.LessThanOrEqual(r.Width) && h.LessThanOrEqual(r.Height)
}

// SheetLayout is the packing state of one opened sheet.
type SheetLayout struct {
	Width      decimal.Decimal `json:"width"`
	Height     decimal.Decimal `json:"height"`
	Kerf       decimal.Decimal `json:"kerf"`
	FreeRects  []FreeRect      `json:"free_rects"`
	Placements []PlacedPiece   `json:"placements"`
}

// NewSheetLayout returns an empty layout whose only free rect is the whole sheet.
func NewSheetLayout(width, height, kerf decimal.Decimal) *SheetLayout {
	return &SheetLayout{
		Width:  width,
		Height: height,
		Kerf:   kerf,
		FreeRects: []FreeRect{
			{X: decimal.Zero, Y: decimal.Zero, Width: width, Height: height},
		},
	}
}

// TotalArea returns the sheet area.
func (sl *SheetLayout) TotalArea() decimal.Decimal {
	return sl.Width.Mul(sl.Height)
}

// UsedArea returns the summed footprint area of all placements.
func (sl *SheetLayout) UsedArea() decimal.Decimal {
	total := decimal.Zero
	for _, p := range sl.Placements {
		total = total.Add(p.Area())
	}
	return total
}

// WasteArea returns sheet area minus placed footprints.
func (sl *SheetLayout) WasteArea() decimal.Decimal {
	return sl.TotalArea().Sub(sl.UsedArea())
}

// WastePercentage returns WasteArea as a percentage of the sheet, 0 for an empty sheet.
func (sl *SheetLayout) WastePercentage() decimal.Decimal {
	ta := sl.TotalArea()
	if ta.IsZero() {
		return decimal.Zero
	}
	return sl.WasteArea().Div(ta).Mul(decimal.NewFromInt(100))
}

// LargestFreeRect returns the free rect with the maximum area.
// The first one wins on ties.
func (sl *SheetLayout) LargestFreeRect() (FreeRect, bool) {
	if len(sl.FreeRects) == 0 {
		return FreeRect{}, false
	}
	best := sl.FreeRects[0]
	for _, r := range sl.FreeRects[1:] {
		if r.Area().GreaterThan(best.Area()) {
			best = r
		}
	}
	return best, true
}

// Project ties the inputs of a run together for save/load.
type Project struct {
	Name        string      `json:"name" toml:"name"`
	Description string      `json:"description,omitempty" toml:"description"`
	Sheets      []SheetSpec `json:"sheets" toml:"sheets"`
	Pieces      []PieceSpec `json:"pieces" toml:"pieces"`
	Settings    Settings    `json:"settings" toml:"settings"`
}

func NewProject() Project {
	return Project{
		Name:     "Untitled",
		Sheets:   []SheetSpec{},
		Pieces:   []PieceSpec{},
		Settings: DefaultSettings(),
	}
}
