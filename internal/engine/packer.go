package engine

import (
	"github.com/shopspring/decimal"

	"github.com/piwi3910/cutplan/internal/model"
)

// guillotinePacker places pieces on one sheet.
// It maintains the sheet's free-rect list and splits the chosen rect on each insertion.
type guillotinePacker struct {
	sheet *model.SheetLayout
	kerf  decimal.Decimal
}

func newGuillotinePacker(width, height, kerf decimal.Decimal) *guillotinePacker {
	return &guillotinePacker{
		sheet: model.NewSheetLayout(width, height, kerf),
		kerf:  kerf,
	}
}

// findBest returns the index of the free rect with the smallest leftover area
// and whether the piece goes in rotated. Candidates are scored in one loop,
// unrotated before rotated per rect; the first minimum wins. Rotation never
// changes the score, so it is only picked when it is the sole fit in that rect.
func (gp *guillotinePacker) findBest(w, h decimal.Decimal, allowRotation bool) (int, bool, bool) {
	bestIdx := -1
	bestRotated := false
	var bestLeftover decimal.Decimal
	area := w.Mul(h)

	for i, r := range gp.sheet.FreeRects {
		leftover := r.Area().Sub(area)

		if r.Fits(w, h) {
			if bestIdx < 0 || leftover.LessThan(bestLeftover) {
				bestIdx, bestRotated, bestLeftover = i, false, leftover
			}
		}
		if allowRotation && r.Fits(h, w) {
			if bestIdx < 0 || leftover.LessThan(bestLeftover) {
				bestIdx, bestRotated, bestLeftover = i, true, leftover
			}
		}
	}

	if bestIdx < 0 {
		return -1, false, false
	}
	return bestIdx, bestRotated, true
}

// place tries to put a w x h piece on the sheet using Best Area Fit.
// On failure the sheet is left untouched.
func (gp *guillotinePacker) place(w, h decimal.Decimal, label string, pieceIndex int, allowRotation bool) (model.PlacedPiece, bool) {
	idx, rotated, ok := gp.findBest(w, h, allowRotation)
	if !ok {
		return model.PlacedPiece{}, false
	}

	chosen := gp.sheet.FreeRects[idx]
	if rotated {
		w, h = h, w
	}
	placed := model.PlacedPiece{
		Label:      label,
		PieceIndex: pieceIndex,
		X:          chosen.X,
		Y:          chosen.Y,
		Width:      w,
		Height:     h,
		Rotated:    rotated,
	}
	gp.sheet.Placements = append(gp.sheet.Placements, placed)
	gp.split(idx, placed)
	return placed, true
}

// split replaces free rect idx with the guillotine remainders beside and above
// the placed piece. Both remainders are measured against the footprint plus
// one kerf; a remainder is only kept when strictly positive.
func (gp *guillotinePacker) split(idx int, placed model.PlacedPiece) {
	free := gp.sheet.FreeRects[idx]
	gp.sheet.FreeRects = append(gp.sheet.FreeRects[:idx:idx], gp.sheet.FreeRects[idx+1:]...)

	wk := placed.Width.Add(gp.kerf)
	hk := placed.Height.Add(gp.kerf)

	// Right strip, as tall as the kerf-inflated piece but never taller than its parent
	if free.Width.GreaterThan(wk) {
		gp.sheet.FreeRects = append(gp.sheet.FreeRects, model.FreeRect{
			X:      free.X.Add(wk),
			Y:      free.Y,
			Width:  free.Width.Sub(wk),
			Height: decimal.Min(hk, free.Height),
		})
	}
	// Top strip, full width of the parent rect
	if free.Height.GreaterThan(hk) {
		gp.sheet.FreeRects = append(gp.sheet.FreeRects, model.FreeRect{
			X:      free.X,
			Y:      free.Y.Add(hk),
			Width:  free.Width,
			Height: free.Height.Sub(hk),
		})
	}
}
