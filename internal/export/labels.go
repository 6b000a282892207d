package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/cutplan/internal/model"
)

// LabelInfo is the data encoded into each piece label's QR code.
type LabelInfo struct {
	PieceLabel string          `json:"label"`
	Width      decimal.Decimal `json:"width"`
	Height     decimal.Decimal `json:"height"`
	Units      model.Units     `json:"units"`
	SheetIndex int             `json:"sheet"`
	Rotated    bool            `json:"rotated"`
	X          decimal.Decimal `json:"x"`
	Y          decimal.Decimal `json:"y"`
}

// Avery 5160 compatible layout: 3 columns x 10 rows on US Letter.
const (
	labelMarginTop  = 12.7
	labelMarginLeft = 4.8
	labelWidth      = 66.7
	labelHeight     = 25.4
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0
	labelPadding    = 2.0
)

// ExportLabels writes one QR-coded label per placed piece. Each label shows
// the piece name, its size, and where it sits, and the QR code carries the
// same data as JSON.
func ExportLabels(path string, plan *model.Plan) error {
	if plan == nil || len(plan.Layouts) == 0 {
		return errEmptyPlan
	}

	labels := CollectLabelInfos(plan)
	if len(labels) == 0 {
		return fmt.Errorf("no pieces placed to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		x := labelMarginLeft + float64(posOnPage%labelCols)*labelWidth
		y := labelMarginTop + float64(posOnPage/labelCols)*labelHeight

		if err := renderLabel(pdf, x, y, i, label); err != nil {
			return fmt.Errorf("render label for %q: %w", label.PieceLabel, err)
		}
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write labels %s: %w", path, err)
	}
	return nil
}

// renderLabel draws a single label with its top-left corner at x, y.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, seq int, info LabelInfo) error {
	// Light border as a cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal label info: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d", seq)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imgName, opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions(imgName, x+labelWidth-qrSize-labelPadding, y+(labelHeight-qrSize)/2, qrSize, qrSize, false, opts, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding
	suffix := info.Units.Suffix()

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, fitText(pdf, info.PieceLabel, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("%s%s x %s%s", info.Width, suffix, info.Height, suffix), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 3, fmt.Sprintf("Sheet %d @ (%s, %s)", info.SheetIndex, info.X, info.Y), "", 1, "L", false, 0, "")

	if info.Rotated {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, "Rotated 90\xb0", "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// CollectLabelInfos lists every placed piece in sheet order. Sheet numbers are 1-based.
func CollectLabelInfos(plan *model.Plan) []LabelInfo {
	var labels []LabelInfo
	for sheetIdx, l := range plan.Layouts {
		for _, p := range l.Pieces {
			labels = append(labels, LabelInfo{
				PieceLabel: p.Label,
				Width:      p.Width,
				Height:     p.Height,
				Units:      plan.Units,
				SheetIndex: sheetIdx + 1,
				Rotated:    p.Rotated,
				X:          p.X,
				Y:          p.Y,
			})
		}
	}
	return labels
}
