package gcode

import (
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// MoveType represents the type of toolpath movement.
type MoveType int

const (
	MoveRapid   MoveType = iota // G0: rapid positioning (no cutting)
	MoveFeed                    // G1: linear feed in the XY plane
	MovePlunge                  // G1 with Z decreasing
	MoveRetract                 // G0/G1 with Z increasing
)

// Move represents a single parsed movement.
type Move struct {
	Type     MoveType
	FromX    float64
	FromY    float64
	FromZ    float64
	ToX      float64
	ToY      float64
	ToZ      float64
	FeedRate float64
}

// Length returns the XY distance travelled by the move.
func (m Move) Length() float64 {
	return math.Hypot(m.ToX-m.FromX, m.ToY-m.FromY)
}

var coordRe = regexp.MustCompile(`([XYZF])(-?\d+\.?\d*)`)

// Parse parses a program into structured moves, tracking absolute position
// and classifying each G0/G1 command. Other commands are ignored.
func Parse(code string) []Move {
	var moves []Move

	curX, curY, curZ := 0.0, 0.0, 0.0
	curFeed := 0.0

	for _, line := range strings.Split(code, "\n") {
		line = stripComment(strings.TrimSpace(line))
		if line == "" {
			continue
		}

		upper := strings.ToUpper(line)
		fields := strings.Fields(upper)
		isRapid := fields[0] == "G0" || fields[0] == "G00"
		isFeed := fields[0] == "G1" || fields[0] == "G01"
		if !isRapid && !isFeed {
			continue
		}

		newX, newY, newZ, newFeed := curX, curY, curZ, curFeed
		for _, m := range coordRe.FindAllStringSubmatch(upper, -1) {
			val, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			switch m[1] {
			case "X":
				newX = val
			case "Y":
				newY = val
			case "Z":
				newZ = val
			case "F":
				newFeed = val
			}
		}

		moves = append(moves, Move{
			Type:     classifyMove(isRapid, curZ, newZ, curX, curY, newX, newY),
			FromX:    curX,
			FromY:    curY,
			FromZ:    curZ,
			ToX:      newX,
			ToY:      newY,
			ToZ:      newZ,
			FeedRate: newFeed,
		})

		curX, curY, curZ, curFeed = newX, newY, newZ, newFeed
	}

	return moves
}

// stripComment removes semicolon and parenthetical comments.
func stripComment(line string) string {
	if idx := strings.Index(line, ";"); idx >= 0 {
		line = line[:idx]
	}
	for {
		start := strings.Index(line, "(")
		if start < 0 {
			break
		}
		end := strings.Index(line[start:], ")")
		if end < 0 {
			line = line[:start]
			break
		}
		line = line[:start] + line[start+end+1:]
	}
	return strings.TrimSpace(line)
}

// classifyMove determines the MoveType based on movement characteristics.
func classifyMove(isRapid bool, fromZ, toZ, fromX, fromY, toX, toY float64) MoveType {
	zDelta := toZ - fromZ
	hasXY := fromX != toX || fromY != toY

	switch {
	case isRapid:
		if zDelta > 0 {
			return MoveRetract
		}
		return MoveRapid
	case zDelta < -0.001 && !hasXY:
		return MovePlunge
	case zDelta > 0.001 && !hasXY:
		return MoveRetract
	default:
		return MoveFeed
	}
}

// Summary aggregates a parsed program for reporting and sanity checks.
type Summary struct {
	FeedDistance  float64
	RapidDistance float64
	Plunges       int
	MinDepth      float64 // most negative Z reached
	MaxX          float64
	MaxY          float64
}

// Summarize walks the moves and totals distances and extents.
func Summarize(moves []Move) Summary {
	var s Summary
	for _, m := range moves {
		switch m.Type {
		case MoveFeed:
			s.FeedDistance += m.Length()
		case MoveRapid, MoveRetract:
			s.RapidDistance += m.Length()
		case MovePlunge:
			s.Plunges++
		}
		s.MinDepth = math.Min(s.MinDepth, m.ToZ)
		s.MaxX = math.Max(s.MaxX, m.ToX)
		s.MaxY = math.Max(s.MaxY, m.ToY)
	}
	return s
}

// SummarizeFile parses a program written to disk and summarizes it.
func SummarizeFile(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(Parse(string(data))), nil
}
