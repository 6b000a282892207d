package model

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Offcut represents a usable rectangular remnant left over after cutting.
type Offcut struct {
	ID         string           `json:"id"`
	SheetIndex int              `json:"sheet_index"` // Index of the source sheet in the run
	X          decimal.Decimal  `json:"x"`
	Y          decimal.Decimal  `json:"y"`
	Width      decimal.Decimal  `json:"width"`
	Height     decimal.Decimal  `json:"height"`
	Value      *decimal.Decimal `json:"value,omitempty"` // Share of the sheet cost proportional to area
}

// Area returns the area of the offcut.
func (o Offcut) Area() decimal.Decimal {
	return o.Width.Mul(o.Height)
}

// ToSheetSpec converts an offcut into a sheet spec for reuse in a later run.
func (o Offcut) ToSheetSpec() SheetSpec {
	sheet := NewSheetSpec("Offcut "+o.ID, o.Width, o.Height, 1)
	sheet.CostPerSheet = o.Value
	return sheet
}

// DetectOffcuts returns the free rects of a layout whose both sides are at
// least minDimension. Rects contained in a larger candidate are dropped since
// the free-rect list may overlap. Results are sorted by area descending.
func DetectOffcuts(sl *SheetLayout, sheetIndex int, minDimension decimal.Decimal, costPerSheet *decimal.Decimal) []Offcut {
	var candidates []FreeRect
	for _, r := range sl.FreeRects {
		if r.Width.GreaterThanOrEqual(minDimension) && r.Height.GreaterThanOrEqual(minDimension) {
			candidates = append(candidates, r)
		}
	}
	candidates = pruneContained(candidates)

	offcuts := make([]Offcut, 0, len(candidates))
	for _, r := range candidates {
		oc := Offcut{
			ID:         uuid.New().String()[:8],
			SheetIndex: sheetIndex,
			X:          r.X,
			Y:          r.Y,
			Width:      r.Width,
			Height:     r.Height,
		}
		if costPerSheet != nil && !sl.TotalArea().IsZero() {
			v := oc.Area().Div(sl.TotalArea()).Mul(*costPerSheet).Round(2)
			oc.Value = &v
		}
		offcuts = append(offcuts, oc)
	}

	sort.SliceStable(offcuts, func(i, j int) bool {
		return offcuts[i].Area().GreaterThan(offcuts[j].Area())
	})
	return offcuts
}

// TotalOffcutArea returns the summed area of all offcuts.
func TotalOffcutArea(offcuts []Offcut) decimal.Decimal {
	total := decimal.Zero
	for _, o := range offcuts {
		total = total.Add(o.Area())
	}
	return total
}

// pruneContained removes any rect fully contained within another.
// Of two identical rects the first is kept.
func pruneContained(rects []FreeRect) []FreeRect {
	if len(rects) <= 1 {
		return rects
	}
	kept := make([]FreeRect, 0, len(rects))
	for i, a := range rects {
		contained := false
		for j, b := range rects {
			if i == j || !containsRect(b, a) {
				continue
			}
			if containsRect(a, b) && i < j {
				continue
			}
			contained = true
			break
		}
		if !contained {
			kept = append(kept, a)
		}
	}
	return kept
}

// containsRect returns true if outer fully contains inner.
func containsRect(outer, inner FreeRect) bool {
	return outer.X.LessThanOrEqual(inner.X) && outer.Y.LessThanOrEqual(inner.Y) &&
		outer.X.Add(outer.Width).GreaterThanOrEqual(inner.X.Add(inner.Width)) &&
		outer.Y.Add(outer.Height).GreaterThanOrEqual(inner.Y.Add(inner.Height))
}
