package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "github.com/piwi3910/cutplan/internal/errors"
)

// SizingError reports a piece that does not fit an empty sheet in either
// orientation. It aborts the whole run.
type SizingError struct {
	Label       string
	PieceWidth  decimal.Decimal
	PieceHeight decimal.Decimal
	SheetWidth  decimal.Decimal
	SheetHeight decimal.Decimal
}

func (e *SizingError) Error() string {
	return fmt.Sprintf("Piece %s (%s x %s) is too large for sheet (%s x %s)",
		e.Label, e.PieceWidth, e.PieceHeight, e.SheetWidth, e.SheetHeight)
}

// Code classifies the error for the CLI and HTTP layers.
func (e *SizingError) Code() apperrors.Code {
	return apperrors.ErrCodePieceTooLarge
}
