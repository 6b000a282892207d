package model

import (
	"strconv"

	apperrors "github.com/piwi3910/cutplan/internal/errors"
)

// ValidateInput checks the preconditions of an optimization run: at least one
// sheet, positive dimensions everywhere, and quantities of at least one.
func ValidateInput(sheets []SheetSpec, pieces []PieceSpec) error {
	if len(sheets) == 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "at least one sheet is required")
	}
	for i, s := range sheets {
		if !s.Width.IsPositive() || !s.Height.IsPositive() {
			return apperrors.New(apperrors.ErrCodeInvalidInput,
				"sheet %d: width and height must be positive (got %s x %s)", i+1, s.Width, s.Height)
		}
	}
	for i, p := range pieces {
		name := p.Label
		if name == "" {
			name = "#" + strconv.Itoa(i+1)
		}
		if !p.Width.IsPositive() || !p.Height.IsPositive() {
			return apperrors.New(apperrors.ErrCodeInvalidInput,
				"piece %s: width and height must be positive (got %s x %s)", name, p.Width, p.Height)
		}
		if p.Quantity < 1 {
			return apperrors.New(apperrors.ErrCodeInvalidInput,
				"piece %s: quantity must be at least 1 (got %d)", name, p.Quantity)
		}
	}
	return nil
}

// ValidateSettings rejects a negative kerf or offcut threshold.
func ValidateSettings(s Settings) error {
	if s.KerfWidth.IsNegative() {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "kerf width must not be negative (got %s)", s.KerfWidth)
	}
	if s.MinUsableOffcut.IsNegative() {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "minimum usable offcut must not be negative (got %s)", s.MinUsableOffcut)
	}
	return nil
}
