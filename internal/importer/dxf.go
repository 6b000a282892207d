package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/cutplan/internal/model"
)

// dxfTolerance is the maximum gap between endpoints that still counts as connected.
const dxfTolerance = 0.01

// dxfPlaces is the number of decimals kept when converting drawing coordinates.
const dxfPlaces = 3

type point struct{ x, y float64 }

// segment is a LINE entity, chained with others into closed outlines.
type segment struct {
	start point
	end   point
}

// ImportDXF imports pieces from a DXF drawing. Every closed outline, either a
// closed LWPOLYLINE or a loop of LINEs, becomes one piece sized by its
// bounding box. Non-rectangular outlines are imported as their bounding box
// with a warning; other entity types are ignored.
func ImportDXF(path string) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var outlines [][]point
	var segments []segment
	skipped := 0

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			outline := make([]point, 0, len(e.Vertices))
			for _, v := range e.Vertices {
				outline = append(outline, point{v[0], v[1]})
			}
			if len(outline) >= 3 {
				outlines = append(outlines, outline)
			} else {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 3 vertices")
			}
		case *entity.Line:
			segments = append(segments, segment{
				start: point{e.Start[0], e.Start[1]},
				end:   point{e.End[0], e.End[1]},
			})
		default:
			skipped++
		}
	}
	if skipped > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Ignored %d unsupported entities", skipped))
	}

	outlines = append(outlines, chainSegments(segments, dxfTolerance)...)
	if len(outlines) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	for i, outline := range outlines {
		minP, maxP := boundingBox(outline)
		width := decimal.NewFromFloat(maxP.x - minP.x).Round(dxfPlaces)
		height := decimal.NewFromFloat(maxP.y - minP.y).Round(dxfPlaces)

		if width.LessThan(decimal.NewFromFloat(dxfTolerance)) || height.LessThan(decimal.NewFromFloat(dxfTolerance)) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped degenerate shape (%s x %s)", width, height))
			continue
		}

		label := fmt.Sprintf("DXF Piece %d", i+1)
		if !isRectangle(outline, minP, maxP) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s is not a rectangle, using its %s x %s bounding box", label, width, height))
		}
		result.Pieces = append(result.Pieces, model.NewPieceSpec(label, width, height, 1))
	}

	return result
}

// isRectangle reports whether every vertex lies on a corner of the bounding box.
func isRectangle(outline []point, minP, maxP point) bool {
	if len(outline) != 4 {
		return false
	}
	for _, p := range outline {
		onX := closeTo(p.x, minP.x) || closeTo(p.x, maxP.x)
		onY := closeTo(p.y, minP.y) || closeTo(p.y, maxP.y)
		if !onX || !onY {
			return false
		}
	}
	return true
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= dxfTolerance
}

func boundingBox(outline []point) (point, point) {
	minP, maxP := outline[0], outline[0]
	for _, p := range outline[1:] {
		minP.x = math.Min(minP.x, p.x)
		minP.y = math.Min(minP.y, p.y)
		maxP.x = math.Max(maxP.x, p.x)
		maxP.y = math.Max(maxP.y, p.y)
	}
	return minP, maxP
}

// chainSegments connects segments end to end into closed outlines.
// Open chains are discarded. Outlines are returned largest first.
func chainSegments(segs []segment, tolerance float64) [][]point {
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	var outlines [][]point

	for {
		startIdx := -1
		for i, u := range used {
			if !u {
				startIdx = i
				break
			}
		}
		if startIdx == -1 {
			break
		}

		chain := []point{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		for changed := true; changed; {
			changed = false
			tail := chain[len(chain)-1]
			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
				} else if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
				} else {
					continue
				}
				used[i] = true
				changed = true
				break
			}
		}

		if len(chain) >= 4 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			outlines = append(outlines, chain[:len(chain)-1])
		}
	}

	sort.SliceStable(outlines, func(i, j int) bool {
		return outlineArea(outlines[i]) > outlineArea(outlines[j])
	})
	return outlines
}

func pointsClose(a, b point, tolerance float64) bool {
	return math.Hypot(a.x-b.x, a.y-b.y) <= tolerance
}

// outlineArea computes the absolute polygon area with the shoelace formula.
func outlineArea(o []point) float64 {
	n := len(o)
	if n < 3 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += o[i].x*o[j].y - o[j].x*o[i].y
	}
	return math.Abs(area) / 2
}
