package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/piwi3910/cutplan/internal/engine"
	"github.com/piwi3910/cutplan/internal/model"
)

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleBest        = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
)

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printPlanSummary writes the headline numbers of a plan.
func printPlanSummary(w io.Writer, name string, plan *model.Plan) {
	st := plan.Statistics
	fmt.Fprintln(w, StyleTitle.Render(name))
	printDetail(w, "mode %s, %d pieces", plan.Mode, plan.PlacedCount())
	fmt.Fprintf(w, "  Sheets used:    %s\n", StyleNumber.Render(fmt.Sprint(st.SheetsUsed)))
	fmt.Fprintf(w, "  Total cuts:     %s\n", StyleNumber.Render(fmt.Sprint(st.TotalCuts)))
	fmt.Fprintf(w, "  Waste:          %s\n", StyleNumber.Render(st.TotalWastePercentage.StringFixed(1)+"%"))
	fmt.Fprintf(w, "  Estimated time: %s\n", StyleNumber.Render(fmt.Sprintf("%d min", st.EstimatedTimeMinutes)))
	if st.LargestOffcutWidth != nil && st.LargestOffcutHeight != nil {
		fmt.Fprintf(w, "  Largest offcut: %s\n", StyleNumber.Render(
			fmt.Sprintf("%s x %s%s", st.LargestOffcutWidth.String(), st.LargestOffcutHeight.String(), plan.Units.Suffix())))
	}
	offcutArea := model.TotalOffcutArea(planOffcuts(plan))
	fmt.Fprintf(w, "  Usable offcuts: %s %s\n", StyleNumber.Render(fmt.Sprint(st.UsableOffcuts)),
		StyleDim.Render(fmt.Sprintf("(%s sq%s)", offcutArea.StringFixed(1), plan.Units.Suffix())))
	if st.TotalCost != nil {
		fmt.Fprintf(w, "  Material cost:  %s\n", StyleNumber.Render(st.TotalCost.StringFixed(2)))
	}
}

// printInstructions writes the numbered operator script.
func printInstructions(w io.Writer, steps []model.Instruction) {
	fmt.Fprintln(w, StyleTitle.Render("Cutting instructions"))
	for _, s := range steps {
		line := fmt.Sprintf("%3d. %s", s.Step, s.Description)
		if s.Measurement != "" {
			line += " " + StyleDim.Render("["+s.Measurement+"]")
		}
		fmt.Fprintln(w, line)
		if len(s.PiecesProduced) > 0 {
			printDetail(w, "produces %s", strings.Join(s.PiecesProduced, ", "))
		}
	}
}

// printComparison writes one row per mode and marks the best one.
func printComparison(w io.Writer, results []engine.ComparisonResult) {
	best, hasBest := engine.Best(results)
	fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("%-10s %7s %6s %8s", "MODE", "SHEETS", "CUTS", "WASTE")))
	for _, r := range results {
		if r.Failed() {
			printError(w, "%-8s %s", r.Mode, r.Err)
			continue
		}
		row := fmt.Sprintf("%-10s %7d %6d %7s%%", r.Mode, r.SheetsUsed, r.TotalCuts, r.WastePercent.StringFixed(1))
		if hasBest && r.Mode == best.Mode {
			row = styleBest.Render(row + "  best")
		}
		fmt.Fprintln(w, row)
	}
}

// printEstimate writes a purchase estimate.
func printEstimate(w io.Writer, est model.PurchaseEstimate, units model.Units) {
	fmt.Fprintln(w, StyleTitle.Render("Purchase estimate"))
	fmt.Fprintf(w, "  Piece area (with kerf): %s sq%s\n", est.TotalPieceArea.StringFixed(2), units.Suffix())
	fmt.Fprintf(w, "  Sheets (exact):         %s\n", est.SheetsNeededExact.String())
	fmt.Fprintf(w, "  Sheets (minimum):       %s\n", StyleNumber.Render(fmt.Sprint(est.SheetsNeededMin)))
	fmt.Fprintf(w, "  Sheets (+%s%% waste):    %s\n", est.WastePercent.String(), StyleNumber.Render(fmt.Sprint(est.SheetsWithWaste)))
	if est.EstimatedCost != nil {
		fmt.Fprintf(w, "  Estimated cost:         %s\n", est.EstimatedCost.StringFixed(2))
	}
}
