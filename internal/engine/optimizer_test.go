package engine

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/piwi3910/cutplan/internal/errors"
	"github.com/piwi3910/cutplan/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testSettings(kerf string) model.Settings {
	s := model.DefaultSettings()
	s.KerfWidth = d(kerf)
	return s
}

func sheet(w, h string) []model.SheetSpec {
	return []model.SheetSpec{model.NewSheetSpec("Sheet", d(w), d(h), 1)}
}

func piece(label, w, h string, qty int) model.PieceSpec {
	return model.NewPieceSpec(label, d(w), d(h), qty)
}

func countPlacements(layouts []*model.SheetLayout) int {
	n := 0
	for _, sl := range layouts {
		n += len(sl.Placements)
	}
	return n
}

func TestOptimize_SinglePiece(t *testing.T) {
	layouts, err := New(testSettings("0.125")).Optimize(sheet("96", "48"), []model.PieceSpec{piece("A", "24", "12", 1)})
	require.NoError(t, err)
	require.Len(t, layouts, 1)
	require.Len(t, layouts[0].Placements, 1)

	p := layouts[0].Placements[0]
	assert.Equal(t, "A", p.Label)
	assert.True(t, p.X.IsZero())
	assert.True(t, p.Y.IsZero())
	assert.False(t, p.Rotated)
}

func TestOptimize_FourSquaresKerfSpillsToSecondSheet(t *testing.T) {
	// A row of four 24" squares needs 96.375" with a 0.125" kerf and the
	// strip above the first row is only 23.875" tall.
	layouts, err := New(testSettings("0.125")).Optimize(sheet("96", "48"), []model.PieceSpec{piece("Shelf", "24", "24", 4)})
	require.NoError(t, err)
	require.Len(t, layouts, 2)
	assert.Len(t, layouts[0].Placements, 3)
	assert.Len(t, layouts[1].Placements, 1)

	xs := []string{"0", "24.125", "48.25"}
	for i, p := range layouts[0].Placements {
		assert.True(t, p.X.Equal(d(xs[i])), "piece %d at x=%s", i, p.X)
		assert.True(t, p.Y.IsZero())
	}
}

func TestOptimize_FourSquaresFitWithoutKerf(t *testing.T) {
	layouts, err := New(testSettings("0")).Optimize(sheet("96", "48"), []model.PieceSpec{piece("Shelf", "24", "24", 4)})
	require.NoError(t, err)
	require.Len(t, layouts, 1)
	assert.Len(t, layouts[0].Placements, 4)
	assert.True(t, layouts[0].WastePercentage().Equal(d("50")))
}

func TestOptimize_KerfMonotonicity(t *testing.T) {
	pieces := []model.PieceSpec{piece("Sq", "24", "24", 10)}

	zero, err := New(testSettings("0")).Optimize(sheet("48", "48"), pieces)
	require.NoError(t, err)
	require.NotEmpty(t, zero)
	assert.Len(t, zero[0].Placements, 4)
	assert.True(t, zero[0].WasteArea().IsZero())
	assert.Len(t, zero, 3)

	kerfed, err := New(testSettings("0.125")).Optimize(sheet("48", "48"), pieces)
	require.NoError(t, err)
	require.NotEmpty(t, kerfed)
	assert.Less(t, len(kerfed[0].Placements), 4)
	assert.Equal(t, 10, countPlacements(kerfed))
}

func TestOptimize_LargePiecesOnePerSheet(t *testing.T) {
	layouts, err := New(testSettings("0.125")).Optimize(sheet("48", "48"), []model.PieceSpec{piece("Top", "40", "40", 3)})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(layouts), 3)
	assert.Equal(t, 3, countPlacements(layouts))
}

func TestOptimize_OversizePieceFails(t *testing.T) {
	layouts, err := New(testSettings("0.125")).Optimize(sheet("96", "48"), []model.PieceSpec{
		piece("Small", "10", "10", 2),
		piece("Door", "100", "50", 1),
	})
	require.Error(t, err)
	assert.Nil(t, layouts)

	var sizing *SizingError
	require.True(t, errors.As(err, &sizing))
	assert.Equal(t, "Door", sizing.Label)
	assert.True(t, sizing.SheetWidth.Equal(d("96")))
	assert.Equal(t, apperrors.ErrCodePieceTooLarge, apperrors.GetCode(err))
	assert.Equal(t, "Piece Door (100 x 50) is too large for sheet (96 x 48)", err.Error())
}

func TestOptimize_GrainLocksRotation(t *testing.T) {
	sheets := []model.SheetSpec{model.NewSheetSpec("Grain", d("10"), d("30"), 1)}
	sheets[0].HasGrain = true

	locked := piece("Rail", "30", "10", 1)
	locked.Grain = model.GrainParallel

	t.Run("enforced", func(t *testing.T) {
		for _, imp := range []model.GrainImportance{model.GrainImportanceHigh, model.GrainImportanceMedium} {
			s := testSettings("0")
			s.GrainImportance = imp
			_, err := New(s).Optimize(sheets, []model.PieceSpec{locked})
			var sizing *SizingError
			assert.True(t, errors.As(err, &sizing), "importance %s", imp)
		}
	})

	t.Run("low importance rotates", func(t *testing.T) {
		s := testSettings("0")
		s.GrainImportance = model.GrainImportanceLow
		layouts, err := New(s).Optimize(sheets, []model.PieceSpec{locked})
		require.NoError(t, err)
		p := layouts[0].Placements[0]
		assert.True(t, p.Rotated)
		assert.True(t, p.Width.Equal(d("10")))
		assert.True(t, p.Height.Equal(d("30")))
	})

	t.Run("sheet without grain rotates", func(t *testing.T) {
		plain := []model.SheetSpec{model.NewSheetSpec("Plain", d("10"), d("30"), 1)}
		layouts, err := New(testSettings("0")).Optimize(plain, []model.PieceSpec{locked})
		require.NoError(t, err)
		assert.True(t, layouts[0].Placements[0].Rotated)
	})

	t.Run("unknown grain string rotates", func(t *testing.T) {
		odd := locked
		odd.Grain = model.ParseGrain("horizontal")
		layouts, err := New(testSettings("0")).Optimize(sheets, []model.PieceSpec{odd})
		require.NoError(t, err)
		assert.True(t, layouts[0].Placements[0].Rotated)
	})
}

func TestOptimize_ValidationErrors(t *testing.T) {
	opt := New(testSettings("0.125"))

	_, err := opt.Optimize(nil, []model.PieceSpec{piece("A", "1", "1", 1)})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput))

	_, err = opt.Optimize(sheet("96", "48"), []model.PieceSpec{piece("A", "0", "1", 1)})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput))

	_, err = opt.Optimize(sheet("96", "48"), []model.PieceSpec{piece("A", "1", "1", 0)})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput))

	bad := New(testSettings("-1"))
	_, err = bad.Optimize(sheet("96", "48"), []model.PieceSpec{piece("A", "1", "1", 1)})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput))
}

func TestOptimize_NoPieces(t *testing.T) {
	layouts, err := New(testSettings("0.125")).Optimize(sheet("96", "48"), nil)
	require.NoError(t, err)
	assert.Empty(t, layouts)
}

func TestOptimize_OnlyFirstSheetSpecUsed(t *testing.T) {
	sheets := append(sheet("20", "20"), model.NewSheetSpec("Big", d("200"), d("200"), 1))
	_, err := New(testSettings("0")).Optimize(sheets, []model.PieceSpec{piece("A", "30", "30", 1)})
	var sizing *SizingError
	assert.True(t, errors.As(err, &sizing))
}

func TestOptimize_FirstFitBackfillsEarlierSheet(t *testing.T) {
	// The 40x40 squares each need their own sheet; the small strip that
	// follows must go back to the first sheet with room.
	layouts, err := New(testSettings("0")).Optimize(sheet("48", "48"), []model.PieceSpec{
		piece("Big", "40", "40", 2),
		piece("Strip", "8", "8", 1),
	})
	require.NoError(t, err)
	require.Len(t, layouts, 2)
	require.Len(t, layouts[0].Placements, 2)
	assert.Equal(t, "Strip", layouts[0].Placements[1].Label)
}

func TestOptimize_DefaultLabels(t *testing.T) {
	layouts, err := New(testSettings("0")).Optimize(sheet("96", "48"), []model.PieceSpec{
		piece("", "10", "10", 1),
		piece("", "20", "20", 1),
	})
	require.NoError(t, err)
	// Waste mode puts the 20x20 first, so it becomes Piece 1.
	labels := []string{layouts[0].Placements[0].Label, layouts[0].Placements[1].Label}
	assert.Equal(t, []string{"Piece 1", "Piece 2"}, labels)
	assert.Equal(t, 0, layouts[0].Placements[0].PieceIndex)
	assert.True(t, layouts[0].Placements[0].Width.Equal(d("20")))
}

func TestOptimize_AreaIdentity(t *testing.T) {
	layouts, err := New(testSettings("0.125")).Optimize(sheet("96", "48"), []model.PieceSpec{
		piece("A", "30.5", "12.25", 3),
		piece("B", "18", "7.75", 5),
		piece("C", "40", "20", 2),
	})
	require.NoError(t, err)
	for _, sl := range layouts {
		assert.True(t, sl.WasteArea().Add(sl.UsedArea()).Equal(d("4608")))
	}
}
