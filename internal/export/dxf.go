package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/cutplan/internal/model"
)

// DXF layer names.
const (
	layerSheets = "SHEETS"
	layerPieces = "PIECES"
	layerCuts   = "CUTS"
	layerText   = "LABELS"
)

// dxfSheetGap separates consecutive sheets laid out left to right, in plan units.
var dxfSheetGap = decimal.NewFromInt(10)

// ExportDXF writes every sheet of the plan side by side into one drawing:
// sheet outlines, piece outlines, cut lines, and piece labels each on their
// own layer. Coordinates are in plan units with the origin at the lower-left
// corner of the first sheet.
func ExportDXF(path string, plan *model.Plan) error {
	if plan == nil || len(plan.Layouts) == 0 {
		return errEmptyPlan
	}

	d := dxf.NewDrawing()
	layers := []struct {
		name string
		cl   color.ColorNumber
	}{
		{layerSheets, color.White},
		{layerPieces, color.Green},
		{layerCuts, color.Red},
		{layerText, color.Cyan},
	}
	for _, l := range layers {
		if _, err := d.AddLayer(l.name, l.cl, dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("add layer %s: %w", l.name, err)
		}
	}

	offset := decimal.Zero
	for i, l := range plan.Layouts {
		if err := drawLayout(d, l, f64(offset), i+1); err != nil {
			return fmt.Errorf("draw sheet %d: %w", i+1, err)
		}
		offset = offset.Add(l.Width).Add(dxfSheetGap)
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("write dxf %s: %w", path, err)
	}
	return nil
}

func drawLayout(d *drawing.Drawing, l model.LayoutResult, dx float64, sheetNum int) error {
	if err := d.ChangeLayer(layerSheets); err != nil {
		return err
	}
	if err := drawRect(d, dx, 0, f64(l.Width), f64(l.Height)); err != nil {
		return err
	}

	if err := d.ChangeLayer(layerPieces); err != nil {
		return err
	}
	for _, p := range l.Pieces {
		if err := drawRect(d, dx+f64(p.X), f64(p.Y), f64(p.Width), f64(p.Height)); err != nil {
			return err
		}
	}

	if err := d.ChangeLayer(layerCuts); err != nil {
		return err
	}
	for _, c := range l.Cuts {
		if _, err := d.Line(dx+f64(c.X1), f64(c.Y1), 0, dx+f64(c.X2), f64(c.Y2), 0); err != nil {
			return err
		}
	}

	if err := d.ChangeLayer(layerText); err != nil {
		return err
	}
	textHeight := f64(decimal.Min(l.Width, l.Height)) / 40
	if _, err := d.Text(fmt.Sprintf("Sheet %d", sheetNum), dx, f64(l.Height)+textHeight, 0, textHeight); err != nil {
		return err
	}
	for _, p := range l.Pieces {
		h := f64(decimal.Min(p.Width, p.Height)) / 6
		if h > textHeight {
			h = textHeight
		}
		if _, err := d.Text(p.Label, dx+f64(p.X)+h/2, f64(p.Y)+h/2, 0, h); err != nil {
			return err
		}
	}
	return nil
}

func drawRect(d *drawing.Drawing, x, y, w, h float64) error {
	corners := [][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
			return err
		}
	}
	return nil
}
