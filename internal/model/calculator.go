package model

import "github.com/shopspring/decimal"

// PurchaseEstimate holds the results of a sheet purchasing calculation.
type PurchaseEstimate struct {
	TotalPieceArea    decimal.Decimal  `json:"total_piece_area"`    // Kerf-inflated area of all piece instances
	SheetArea         decimal.Decimal  `json:"sheet_area"`          // Area of one sheet
	SheetsNeededExact decimal.Decimal  `json:"sheets_needed_exact"` // Fractional number of sheets
	SheetsNeededMin   int              `json:"sheets_needed_min"`   // Ceiling of the exact count
	SheetsWithWaste   int              `json:"sheets_with_waste"`   // Recommended count including the waste factor
	WastePercent      decimal.Decimal  `json:"waste_percent"`
	EstimatedCost     *decimal.Decimal `json:"estimated_cost,omitempty"`
}

// CalculatePurchaseEstimate computes how many sheets to buy for a piece list
// from area alone. It is a lower bound on what the packer will consume.
func CalculatePurchaseEstimate(pieces []PieceSpec, sheet SheetSpec, kerf, wastePercent decimal.Decimal) PurchaseEstimate {
	total := decimal.Zero
	for _, p := range pieces {
		w := p.Width.Add(kerf)
		h := p.Height.Add(kerf)
		total = total.Add(w.Mul(h).Mul(decimal.NewFromInt(int64(p.Quantity))))
	}

	est := PurchaseEstimate{
		TotalPieceArea: total,
		SheetArea:      sheet.Area(),
		WastePercent:   wastePercent,
	}
	if !est.SheetArea.IsPositive() {
		return est
	}

	est.SheetsNeededExact = total.DivRound(est.SheetArea, 4)
	est.SheetsNeededMin = int(total.Div(est.SheetArea).Ceil().IntPart())

	factor := decimal.NewFromInt(1).Add(wastePercent.Div(decimal.NewFromInt(100)))
	est.SheetsWithWaste = int(total.Mul(factor).Div(est.SheetArea).Ceil().IntPart())
	if est.SheetsWithWaste < est.SheetsNeededMin {
		est.SheetsWithWaste = est.SheetsNeededMin
	}

	if sheet.CostPerSheet != nil {
		cost := sheet.CostPerSheet.Mul(decimal.NewFromInt(int64(est.SheetsWithWaste)))
		est.EstimatedCost = &cost
	}
	return est
}
