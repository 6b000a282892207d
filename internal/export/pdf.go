// Package export writes cutting plans to PDF, QR label sheets, DXF drawings,
// and Excel workbooks.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	apperrors "github.com/piwi3910/cutplan/internal/errors"
	"github.com/piwi3910/cutplan/internal/model"
)

// pieceColor is an RGB fill for a placed piece.
type pieceColor struct {
	R, G, B int
}

var pieceColors = []pieceColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	lineHeight   = 5.0
)

// errEmptyPlan is returned by every exporter when there is nothing to draw.
var errEmptyPlan = apperrors.New(apperrors.ErrCodeInvalidInput, "plan has no sheets to export")

func f64(d decimal.Decimal) float64 { return d.InexactFloat64() }

// ExportPDF writes one page per sheet showing placed pieces and numbered cut
// lines, then the operator instructions, then a summary page.
func ExportPDF(path string, plan *model.Plan, sheet model.SheetSpec) error {
	if plan == nil || len(plan.Layouts) == 0 {
		return errEmptyPlan
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for i := range plan.Layouts {
		pdf.AddPage()
		renderSheetPage(pdf, plan.Layouts[i], sheet, plan.Units, i+1)
	}

	renderInstructionPages(pdf, plan.Instructions)

	pdf.AddPage()
	renderSummaryPage(pdf, plan, sheet)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf %s: %w", path, err)
	}
	return nil
}

// renderSheetPage draws one layout scaled to fit the page.
// Plan coordinates have their origin at the lower-left corner; PDF pages grow downward.
func renderSheetPage(pdf *fpdf.Fpdf, layout model.LayoutResult, sheet model.SheetSpec, units model.Units, sheetNum int) {
	suffix := units.Suffix()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Sheet %d: %s (%s%s x %s%s)", sheetNum, sheetName(sheet), layout.Width, suffix, layout.Height, suffix)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Pieces: %d | Cuts: %d | Waste: %s%% | Usable offcuts: %d",
		len(layout.Pieces), len(layout.Cuts), layout.WastePercentage.StringFixed(1), len(layout.Offcuts))
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight

	sheetW, sheetH := f64(layout.Width), f64(layout.Height)
	scale := math.Min(drawWidth/sheetW, drawHeight/sheetH)
	canvasW, canvasH := sheetW*scale, sheetH*scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// toPage maps a plan rectangle to page coordinates.
	toPage := func(x, y, w, h decimal.Decimal) (float64, float64, float64, float64) {
		pw, ph := f64(w)*scale, f64(h)*scale
		px := offsetX + f64(x)*scale
		py := offsetY + canvasH - f64(y)*scale - ph
		return px, py, pw, ph
	}

	// Sheet background (wood color)
	pdf.SetFillColor(210, 180, 140)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	// Usable offcuts, hatched
	for _, oc := range layout.Offcuts {
		ox, oy, ow, oh := toPage(oc.X, oc.Y, oc.Width, oc.Height)
		pdf.SetFillColor(235, 220, 190)
		pdf.SetDrawColor(150, 120, 80)
		pdf.SetLineWidth(0.2)
		pdf.Rect(ox, oy, ow, oh, "FD")
		drawHatchPattern(pdf, ox, oy, ow, oh)
	}

	for _, p := range layout.Pieces {
		col := pieceColors[p.PieceIndex%len(pieceColors)]
		px, py, pw, ph := toPage(p.X, p.Y, p.Width, p.Height)

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(px, py, pw, ph, "FD")

		if pw > 15 && ph > 8 {
			pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
			pdf.SetTextColor(0, 0, 0)

			label := p.Label
			dims := fmt.Sprintf("%sx%s", p.Width, p.Height)
			if p.Rotated {
				dims += " R"
			}
			labelW := pdf.GetStringWidth(label)
			dimsW := pdf.GetStringWidth(dims)

			if labelW < pw-2 {
				pdf.SetXY(px+(pw-labelW)/2, py+ph/2-4)
				pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
			}
			if ph > 14 && dimsW < pw-2 {
				pdf.SetXY(px+(pw-dimsW)/2, py+ph/2)
				pdf.CellFormat(dimsW, 4, dims, "", 0, "C", false, 0, "")
			}
		}
	}

	drawCutLines(pdf, layout.Cuts, scale, offsetX, offsetY+canvasH)
	drawDimensionAnnotations(pdf, layout, suffix, offsetX, offsetY, canvasW, canvasH)
	drawPiecesLegend(pdf, layout, offsetY+canvasH+6)
}

// drawCutLines overlays each cut as a dashed red line tagged with its sequence number.
// baseY is the page y of the sheet's bottom edge.
func drawCutLines(pdf *fpdf.Fpdf, cuts []model.Cut, scale, offsetX, baseY float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.25)
	pdf.SetDashPattern([]float64{1.5, 1}, 0)
	pdf.SetFont("Helvetica", "B", 6)
	pdf.SetTextColor(200, 0, 0)

	for _, c := range cuts {
		x1 := offsetX + f64(c.X1)*scale
		y1 := baseY - f64(c.Y1)*scale
		x2 := offsetX + f64(c.X2)*scale
		y2 := baseY - f64(c.Y2)*scale
		pdf.Line(x1, y1, x2, y2)

		tag := fmt.Sprintf("%d", c.Sequence)
		tagW := pdf.GetStringWidth(tag) + 1
		pdf.SetXY((x1+x2)/2-tagW/2, (y1+y2)/2-1.5)
		pdf.CellFormat(tagW, 3, tag, "", 0, "C", false, 0, "")
	}

	pdf.SetDashPattern([]float64{}, 0)
	pdf.SetTextColor(0, 0, 0)
}

// drawHatchPattern draws diagonal lines inside a rectangle.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetLineWidth(0.1)
	spacing := 3.0
	for d := spacing; d < w+h; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)
		pdf.Line(x1, y1, x2, y2)
	}
}

// drawDimensionAnnotations labels the sheet width below and its height to the left.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, layout model.LayoutResult, suffix string, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := layout.Width.String() + suffix
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := layout.Height.String() + suffix
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawPiecesLegend lists the placed pieces below the drawing.
func drawPiecesLegend(pdf *fpdf.Fpdf, layout model.LayoutResult, startY float64) {
	if len(layout.Pieces) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Pieces placed:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for _, p := range layout.Pieces {
		col := pieceColors[p.PieceIndex%len(pieceColors)]
		label := fmt.Sprintf("%s (%sx%s)", p.Label, p.Width, p.Height)
		if p.Rotated {
			label += " R"
		}
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += lineHeight
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// renderInstructionPages prints the numbered operator steps as a table,
// starting new pages as needed.
func renderInstructionPages(pdf *fpdf.Fpdf, steps []model.Instruction) {
	if len(steps) == 0 {
		return
	}

	colWidths := []float64{12, 95, 75, 45, 40}
	headers := []string{"Step", "Action", "Measurement", "Pieces", "Safety"}

	header := func() float64 {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetXY(marginLeft, marginTop)
		pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Cutting Instructions", "", 0, "L", false, 0, "")

		y := marginTop + 12
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		x := marginLeft
		for i, h := range headers {
			pdf.SetXY(x, y)
			pdf.CellFormat(colWidths[i], 6, h, "1", 0, "C", true, 0, "")
			x += colWidths[i]
		}
		pdf.SetFont("Helvetica", "", 7)
		return y + 6
	}

	y := header()
	for i, s := range steps {
		if y+lineHeight > pageHeight-marginBottom {
			y = header()
		}
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		row := []string{
			fmt.Sprintf("%d", s.Step),
			s.Description,
			s.Measurement,
			strings.Join(s.PiecesProduced, ", "),
			s.SafetyNote,
		}
		x := marginLeft
		for j, cell := range row {
			pdf.SetXY(x, y)
			pdf.CellFormat(colWidths[j], lineHeight, fitText(pdf, cell, colWidths[j]-1), "1", 0, "L", true, 0, "")
			x += colWidths[j]
		}
		y += lineHeight
	}
}

// renderSummaryPage draws the run statistics and a per-sheet breakdown.
func renderSummaryPage(pdf *fpdf.Fpdf, plan *model.Plan, sheet model.SheetSpec) {
	suffix := plan.Units.Suffix()
	st := plan.Statistics

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Cutting Plan Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	largest := "none"
	if st.LargestOffcutWidth != nil && st.LargestOffcutHeight != nil {
		largest = fmt.Sprintf("%s%s x %s%s", st.LargestOffcutWidth, suffix, st.LargestOffcutHeight, suffix)
	}
	cost := "n/a"
	if st.TotalCost != nil {
		cost = st.TotalCost.StringFixed(2)
	}

	summaryItems := []struct {
		label string
		value string
	}{
		{"Optimization Mode", string(plan.Mode)},
		{"Sheets Used", fmt.Sprintf("%d", st.SheetsUsed)},
		{"Pieces Placed", fmt.Sprintf("%d", plan.PlacedCount())},
		{"Total Cuts", fmt.Sprintf("%d", st.TotalCuts)},
		{"Total Waste", fmt.Sprintf("%s (%s%%)", st.TotalWasteArea.StringFixed(2), st.TotalWastePercentage.StringFixed(1))},
		{"Largest Offcut", largest},
		{"Usable Offcuts", fmt.Sprintf("%d", st.UsableOffcuts)},
		{"Estimated Time", fmt.Sprintf("%d min", st.EstimatedTimeMinutes)},
		{"Material Cost", cost},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(80, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Sheet Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{20, 60, 50, 30, 30, 40}
	headers := []string{"Sheet", "Stock", "Dimensions", "Pieces", "Cuts", "Waste"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, h := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, h, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, l := range plan.Layouts {
		if y+6 > pageHeight-marginBottom-6 {
			break
		}
		rowData := []string{
			fmt.Sprintf("%d", i+1),
			sheetName(sheet),
			fmt.Sprintf("%s%s x %s%s", l.Width, suffix, l.Height, suffix),
			fmt.Sprintf("%d", len(l.Pieces)),
			fmt.Sprintf("%d", len(l.Cuts)),
			l.WastePercentage.StringFixed(1) + "%",
		}
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		xPos = marginLeft
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by cutplan", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// labelFontSize picks a font size from the smaller side of a rectangle in mm.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}

// fitText truncates s with "..." until it fits in width.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func sheetName(sheet model.SheetSpec) string {
	if sheet.Label != "" {
		return sheet.Label
	}
	if sheet.Material != "" {
		return sheet.Material
	}
	return "Sheet"
}

