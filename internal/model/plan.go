package model

import "github.com/shopspring/decimal"

// Axis is the orientation of a straight cut.
type Axis string

const (
	AxisVertical   Axis = "vertical"
	AxisHorizontal Axis = "horizontal"
)

// Cut is one continuous straight cut on a sheet, numbered in operator order.
type Cut struct {
	Sequence    int             `json:"sequence"`
	Axis        Axis            `json:"axis"`
	X1          decimal.Decimal `json:"x1"`
	Y1          decimal.Decimal `json:"y1"`
	X2          decimal.Decimal `json:"x2"`
	Y2          decimal.Decimal `json:"y2"`
	Labels      []string        `json:"labels"`
	Description string          `json:"description"`
}

// Length returns the span of the cut.
func (c Cut) Length() decimal.Decimal {
	if c.Axis == AxisVertical {
		return c.Y2.Sub(c.Y1)
	}
	return c.X2.Sub(c.X1)
}

// Instruction is one numbered step of the operator script.
type Instruction struct {
	Step           int      `json:"step"`
	Description    string   `json:"description"`
	Measurement    string   `json:"measurement"`
	PiecesProduced []string `json:"pieces_produced"`
	SafetyNote     string   `json:"safety_note,omitempty"`
}

// Statistics aggregates a whole run.
type Statistics struct {
	TotalWasteArea       decimal.Decimal  `json:"total_waste_area"`
	TotalWastePercentage decimal.Decimal  `json:"total_waste_percentage"`
	TotalCuts            int              `json:"total_cuts"`
	SheetsUsed           int              `json:"sheets_used"`
	LargestOffcutWidth   *decimal.Decimal `json:"largest_offcut_width,omitempty"`
	LargestOffcutHeight  *decimal.Decimal `json:"largest_offcut_height,omitempty"`
	EstimatedTimeMinutes int              `json:"estimated_time_minutes"`
	TotalCost            *decimal.Decimal `json:"total_cost,omitempty"`
	UsableOffcuts        int              `json:"usable_offcuts"`
}

// LayoutResult is the rendered view of one packed sheet.
type LayoutResult struct {
	SheetIndex      int             `json:"sheet_index"`
	Width           decimal.Decimal `json:"width"`
	Height          decimal.Decimal `json:"height"`
	Pieces          []PlacedPiece   `json:"pieces"`
	Cuts            []Cut           `json:"cuts"`
	WasteArea       decimal.Decimal `json:"waste_area"`
	WastePercentage decimal.Decimal `json:"waste_percentage"`
	Offcuts         []Offcut        `json:"offcuts,omitempty"`
}

// Plan is the full output of an optimization run.
type Plan struct {
	Mode         Mode           `json:"optimization_mode"`
	Units        Units          `json:"unit_system"`
	Layouts      []LayoutResult `json:"layouts"`
	Statistics   Statistics     `json:"statistics"`
	Instructions []Instruction  `json:"instructions"`
}

// PlacedCount returns the number of placed pieces across all layouts.
func (p *Plan) PlacedCount() int {
	n := 0
	for _, l := range p.Layouts {
		n += len(l.Pieces)
	}
	return n
}
