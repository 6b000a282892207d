package engine

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/cutplan/internal/model"
)

// Optimizer runs the greedy multi-sheet guillotine packing.
type Optimizer struct {
	Settings model.Settings
	logger   *log.Logger
}

func New(settings model.Settings) *Optimizer {
	return &Optimizer{Settings: settings, logger: log.Default()}
}

// WithLogger sets the logger used for debug tracing of the packing loop.
func (o *Optimizer) WithLogger(l *log.Logger) *Optimizer {
	if l != nil {
		o.logger = l
	}
	return o
}

// Optimize packs pieces onto as many sheets as needed and returns the sheets
// in the order they were opened. Only the first sheet spec's size and grain
// flag are used. Pieces are ordered by the configured mode, expanded by
// quantity, then placed first-fit across open sheets.
//
// A piece that an empty sheet rejects aborts the run with a *SizingError and
// no layouts. Cost is O(instances × free rects) per sheet tried.
func (o *Optimizer) Optimize(sheets []model.SheetSpec, pieces []model.PieceSpec) ([]*model.SheetLayout, error) {
	if err := model.ValidateInput(sheets, pieces); err != nil {
		return nil, err
	}
	if err := model.ValidateSettings(o.Settings); err != nil {
		return nil, err
	}

	sheet := sheets[0]
	kerf := o.Settings.KerfWidth
	instances := expandInstances(orderPieces(pieces, o.Settings.Mode))

	o.logger.Debug("packing",
		"mode", o.Settings.Mode,
		"instances", len(instances),
		"sheet", fmt.Sprintf("%s x %s", sheet.Width, sheet.Height),
		"kerf", kerf)

	var packers []*guillotinePacker
	for _, inst := range instances {
		allowRotation := o.rotationAllowed(sheet, inst.piece)

		placed := false
		for _, gp := range packers {
			if _, ok := gp.place(inst.piece.Width, inst.piece.Height, inst.label, inst.index, allowRotation); ok {
				placed = true
				break
			}
		}
		if placed {
			continue
		}

		gp := newGuillotinePacker(sheet.Width, sheet.Height, kerf)
		if _, ok := gp.place(inst.piece.Width, inst.piece.Height, inst.label, inst.index, allowRotation); !ok {
			return nil, &SizingError{
				Label:       inst.label,
				PieceWidth:  inst.piece.Width,
				PieceHeight: inst.piece.Height,
				SheetWidth:  sheet.Width,
				SheetHeight: sheet.Height,
			}
		}
		packers = append(packers, gp)
		o.logger.Debug("opened sheet", "sheet", len(packers), "first", inst.label)
	}

	layouts := make([]*model.SheetLayout, len(packers))
	for i, gp := range packers {
		layouts[i] = gp.sheet
	}
	return layouts, nil
}

// rotationAllowed is false only when the sheet has grain, grain importance is
// enforced, and the piece is grain-locked.
func (o *Optimizer) rotationAllowed(sheet model.SheetSpec, piece model.PieceSpec) bool {
	if sheet.HasGrain && o.Settings.GrainImportance.Enforced() && piece.Grain.Locked() {
		return false
	}
	return true
}

func defaultLabel(index int) string {
	return fmt.Sprintf("Piece %d", index+1)
}
