package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/cutplan/internal/model"
)

// segment is one piece edge, a candidate for a cut.
type segment struct {
	axis     model.Axis
	position decimal.Decimal // x for vertical edges, y for horizontal ones
	start    decimal.Decimal
	end      decimal.Decimal
	label    string
}

// cutLine identifies all segments lying on the same straight line.
type cutLine struct {
	axis     model.Axis
	position string
}

// DeriveCuts reconstructs the ordered straight cuts that free every placed
// piece on a finished sheet. Collinear piece edges that overlap or are at
// most one kerf apart merge into a single cut naming every piece it touches.
// Cuts are ordered by average X, ties broken by average Y, and numbered from 1.
// The layout is not modified.
func DeriveCuts(sl *model.SheetLayout, units model.Units) []model.Cut {
	groups := make(map[cutLine][]segment)
	var order []cutLine

	add := func(s segment) {
		key := cutLine{axis: s.axis, position: s.position.String()}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s)
	}

	for _, p := range sl.Placements {
		x1, y1 := p.X, p.Y
		x2, y2 := p.Right(), p.Top()
		add(segment{axis: model.AxisVertical, position: x1, start: y1, end: y2, label: p.Label})
		add(segment{axis: model.AxisVertical, position: x2, start: y1, end: y2, label: p.Label})
		add(segment{axis: model.AxisHorizontal, position: y1, start: x1, end: x2, label: p.Label})
		add(segment{axis: model.AxisHorizontal, position: y2, start: x1, end: x2, label: p.Label})
	}

	var cuts []model.Cut
	for _, key := range order {
		for _, run := range mergeSegments(groups[key], sl.Kerf) {
			cuts = append(cuts, run.toCut(units))
		}
	}

	// Two stable passes: the second key (average X) dominates, average Y breaks ties.
	sort.SliceStable(cuts, func(i, j int) bool {
		return cuts[i].Y1.Add(cuts[i].Y2).LessThan(cuts[j].Y1.Add(cuts[j].Y2))
	})
	sort.SliceStable(cuts, func(i, j int) bool {
		return cuts[i].X1.Add(cuts[i].X2).LessThan(cuts[j].X1.Add(cuts[j].X2))
	})

	for i := range cuts {
		cuts[i].Sequence = i + 1
	}
	return cuts
}

// mergedRun is a continuous stretch of collinear segments.
type mergedRun struct {
	axis     model.Axis
	position decimal.Decimal
	start    decimal.Decimal
	end      decimal.Decimal
	labels   []string
}

// mergeSegments sorts collinear segments by start and joins those separated
// by no more than tolerance.
func mergeSegments(segs []segment, tolerance decimal.Decimal) []mergedRun {
	if len(segs) == 0 {
		return nil
	}
	sort.SliceStable(segs, func(i, j int) bool {
		return segs[i].start.LessThan(segs[j].start)
	})

	var runs []mergedRun
	cur := mergedRun{
		axis:     segs[0].axis,
		position: segs[0].position,
		start:    segs[0].start,
		end:      segs[0].end,
		labels:   []string{segs[0].label},
	}
	for _, s := range segs[1:] {
		if s.start.LessThanOrEqual(cur.end.Add(tolerance)) {
			cur.end = decimal.Max(cur.end, s.end)
			if !containsLabel(cur.labels, s.label) {
				cur.labels = append(cur.labels, s.label)
			}
			continue
		}
		runs = append(runs, cur)
		cur = mergedRun{
			axis:     s.axis,
			position: s.position,
			start:    s.start,
			end:      s.end,
			labels:   []string{s.label},
		}
	}
	return append(runs, cur)
}

func (r mergedRun) toCut(units model.Units) model.Cut {
	c := model.Cut{Axis: r.axis, Labels: r.labels}
	var coord string
	if r.axis == model.AxisVertical {
		c.X1, c.Y1, c.X2, c.Y2 = r.position, r.start, r.position, r.end
		coord = "Vertical cut at x="
	} else {
		c.X1, c.Y1, c.X2, c.Y2 = r.start, r.position, r.end, r.position
		coord = "Horizontal cut at y="
	}
	c.Description = fmt.Sprintf("%s%s%s for %s", coord, r.position.StringFixedBank(1), units.Suffix(), describeLabels(r.labels))
	return c
}

// describeLabels names at most the first two labels, with "..." when there are more.
func describeLabels(labels []string) string {
	if len(labels) <= 2 {
		return strings.Join(labels, ", ")
	}
	return strings.Join(labels[:2], ", ") + "..."
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
