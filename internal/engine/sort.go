package engine

import (
	"sort"

	"github.com/piwi3910/cutplan/internal/model"
)

// orderPieces returns a copy of pieces ordered for the given mode.
// The sort is stable: pieces with equal keys keep their input order.
// Unknown modes use the balanced ordering.
func orderPieces(pieces []model.PieceSpec, mode model.Mode) []model.PieceSpec {
	sorted := make([]model.PieceSpec, len(pieces))
	copy(sorted, pieces)

	var less func(a, b model.PieceSpec) bool
	switch mode {
	case model.ModeWaste:
		// Largest area first for best packing density
		less = func(a, b model.PieceSpec) bool {
			return a.Area().GreaterThan(b.Area())
		}
	case model.ModeCuts:
		// Smallest perimeter first
		less = func(a, b model.PieceSpec) bool {
			return a.Perimeter().LessThan(b.Perimeter())
		}
	case model.ModeSheets:
		less = func(a, b model.PieceSpec) bool {
			if c := a.Area().Cmp(b.Area()); c != 0 {
				return c > 0
			}
			if c := a.LongestSide().Cmp(b.LongestSide()); c != 0 {
				return c > 0
			}
			return a.Priority > b.Priority
		}
	case model.ModeGrain:
		// Group identical grain directions, then largest area first
		less = func(a, b model.PieceSpec) bool {
			if ga, gb := a.Grain.Key(), b.Grain.Key(); ga != gb {
				return ga < gb
			}
			return a.Area().GreaterThan(b.Area())
		}
	default:
		less = func(a, b model.PieceSpec) bool {
			if c := a.LongestSide().Cmp(b.LongestSide()); c != 0 {
				return c > 0
			}
			return a.Priority > b.Priority
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return sorted
}

// instance is one unit of a piece spec after quantity expansion.
type instance struct {
	piece model.PieceSpec
	index int // position of the originating spec in the sorted list
	label string
}

// expandInstances turns each sorted spec into Quantity independent instances.
// Pieces without a label get "Piece {index+1}".
func expandInstances(sorted []model.PieceSpec) []instance {
	var expanded []instance
	for i, p := range sorted {
		label := p.Label
		if label == "" {
			label = defaultLabel(i)
		}
		for q := 0; q < p.Quantity; q++ {
			expanded = append(expanded, instance{piece: p, index: i, label: label})
		}
	}
	return expanded
}
