package engine

import (
	"fmt"

	"github.com/piwi3910/cutplan/internal/model"
)

const (
	sheetSafetyNote = "Ensure sheet is properly supported"
	cutSafetyNote   = "Support offcuts to prevent binding"
)

// GenerateInstructions turns rendered layouts into one numbered operator
// script. Each sheet gets a loading step followed by one step per cut; the
// step counter runs across all sheets.
func GenerateInstructions(layouts []model.LayoutResult, units model.Units) []model.Instruction {
	suffix := units.Suffix()
	var steps []model.Instruction
	step := 1

	for i, l := range layouts {
		steps = append(steps, model.Instruction{
			Step:           step,
			Description:    fmt.Sprintf("Start with Sheet #%d", i+1),
			Measurement:    fmt.Sprintf("%s%s x %s%s", l.Width, suffix, l.Height, suffix),
			PiecesProduced: []string{},
			SafetyNote:     sheetSafetyNote,
		})
		step++

		for _, c := range l.Cuts {
			steps = append(steps, model.Instruction{
				Step:        step,
				Description: c.Description,
				Measurement: fmt.Sprintf("From (%s%s, %s%s) to (%s%s, %s%s)",
					c.X1, suffix, c.Y1, suffix, c.X2, suffix, c.Y2, suffix),
				PiecesProduced: firstLabels(c.Labels, 2),
				SafetyNote:     cutSafetyNote,
			})
			step++
		}
	}
	return steps
}

func firstLabels(labels []string, n int) []string {
	if len(labels) < n {
		n = len(labels)
	}
	out := make([]string, n)
	copy(out, labels[:n])
	return out
}
