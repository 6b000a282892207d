package gcode

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/cutplan/internal/model"
)

// MachineSettings holds the router parameters used when emitting a program.
// Values are in the plan's units (mm or inches).
type MachineSettings struct {
	Profile      string  `json:"profile" toml:"profile"`
	FeedRate     float64 `json:"feed_rate" toml:"feed_rate"`
	PlungeRate   float64 `json:"plunge_rate" toml:"plunge_rate"`
	SpindleSpeed int     `json:"spindle_speed" toml:"spindle_speed"`
	SafeZ        float64 `json:"safe_z" toml:"safe_z"`
	CutDepth     float64 `json:"cut_depth" toml:"cut_depth"`
	PassDepth    float64 `json:"pass_depth" toml:"pass_depth"`
	// SkipSheetEdges drops cuts that run along the sheet boundary.
	SkipSheetEdges bool `json:"skip_sheet_edges" toml:"skip_sheet_edges"`
}

// DefaultMachineSettings returns sensible router defaults for the given units.
func DefaultMachineSettings(units model.Units) MachineSettings {
	if units == model.UnitsMetric {
		return MachineSettings{
			Profile:        "Generic",
			FeedRate:       1500,
			PlungeRate:     300,
			SpindleSpeed:   18000,
			SafeZ:          5,
			CutDepth:       19,
			PassDepth:      6,
			SkipSheetEdges: true,
		}
	}
	return MachineSettings{
		Profile:        "Generic",
		FeedRate:       60,
		PlungeRate:     12,
		SpindleSpeed:   18000,
		SafeZ:          0.25,
		CutDepth:       0.75,
		PassDepth:      0.25,
		SkipSheetEdges: true,
	}
}

// Generator produces a straight-line cutting program from a plan,
// following each sheet's derived cut sequence.
type Generator struct {
	Settings MachineSettings
	profile  Profile
}

// New returns a generator using the named profile, resolved against custom
// profiles first.
func New(settings MachineSettings, custom ...Profile) *Generator {
	return &Generator{
		Settings: settings,
		profile:  GetProfile(settings.Profile, custom...),
	}
}

// Profile returns the resolved post-processor profile.
func (g *Generator) Profile() Profile {
	return g.profile
}

// GenerateSheet produces the program for one sheet layout.
func (g *Generator) GenerateSheet(layout model.LayoutResult, units model.Units) string {
	var b strings.Builder

	g.writeHeader(&b, layout, units)

	n := 0
	for _, c := range layout.Cuts {
		if g.Settings.SkipSheetEdges && onSheetEdge(c, layout) {
			continue
		}
		n++
		g.writeCut(&b, c)
	}
	if n == 0 {
		b.WriteString(g.comment("No interior cuts on this sheet"))
	}

	g.writeFooter(&b)
	return b.String()
}

// GenerateAll produces one program per sheet.
func (g *Generator) GenerateAll(plan *model.Plan) []string {
	codes := make([]string, 0, len(plan.Layouts))
	for _, l := range plan.Layouts {
		codes = append(codes, g.GenerateSheet(l, plan.Units))
	}
	return codes
}

// WriteFiles writes one .nc file per sheet into dir, named <base>_sheet<n>.nc,
// and returns the written paths.
func (g *Generator) WriteFiles(dir, base string, plan *model.Plan) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create gcode directory: %w", err)
	}
	var paths []string
	for i, code := range g.GenerateAll(plan) {
		path := filepath.Join(dir, fmt.Sprintf("%s_sheet%d.nc", base, plan.Layouts[i].SheetIndex+1))
		if err := os.WriteFile(path, []byte(code), 0644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (g *Generator) writeHeader(b *strings.Builder, layout model.LayoutResult, units model.Units) {
	p := g.profile
	unit := "mm"
	if units != model.UnitsMetric {
		unit = "in"
	}

	b.WriteString(g.comment(fmt.Sprintf("CutPlan GCode - Sheet %d", layout.SheetIndex+1)))
	b.WriteString(g.comment(fmt.Sprintf("Stock: %s x %s %s", layout.Width, layout.Height, unit)))
	b.WriteString(g.comment(fmt.Sprintf("Pieces: %d, Cuts: %d, Waste: %s%%",
		len(layout.Pieces), len(layout.Cuts), layout.WastePercentage.StringFixed(1))))
	b.WriteString(g.comment(fmt.Sprintf("Feed: %s %s/min, Plunge: %s %s/min",
		g.format(g.Settings.FeedRate), unit, g.format(g.Settings.PlungeRate), unit)))
	b.WriteString(g.comment(fmt.Sprintf("Depth: %s %s, %d pass(es)",
		g.format(g.Settings.CutDepth), unit, g.passes())))
	b.WriteString(g.comment(fmt.Sprintf("Profile: %s", p.Name)))
	b.WriteString("\n")

	for _, code := range p.StartCode {
		b.WriteString(code + "\n")
	}
	if units == model.UnitsMetric {
		b.WriteString("G21\n")
	} else {
		b.WriteString("G20\n")
	}

	if p.SpindleStart != "" {
		b.WriteString(fmt.Sprintf(p.SpindleStart+"\n", g.Settings.SpindleSpeed))
	}

	b.WriteString(fmt.Sprintf("%s Z%s\n", p.RapidMove, g.format(g.Settings.SafeZ)))
	b.WriteString("\n")
}

func (g *Generator) writeFooter(b *strings.Builder) {
	p := g.profile

	b.WriteString("\n")
	b.WriteString(g.comment("=== Job complete ==="))

	for _, code := range p.EndCode {
		code = strings.ReplaceAll(code, "[SafeZ]", g.format(g.Settings.SafeZ))
		b.WriteString(code + "\n")
	}
	if p.SpindleStop != "" {
		b.WriteString(p.SpindleStop + "\n")
	}
}

// writeCut emits one straight cut. Passes alternate direction so the tool
// never travels back over the kerf at safe height between passes.
func (g *Generator) writeCut(b *strings.Builder, c model.Cut) {
	p := g.profile
	x1, y1 := c.X1.InexactFloat64(), c.Y1.InexactFloat64()
	x2, y2 := c.X2.InexactFloat64(), c.Y2.InexactFloat64()

	b.WriteString(g.comment(fmt.Sprintf("Cut %d: %s", c.Sequence, c.Description)))
	b.WriteString(fmt.Sprintf("%s X%s Y%s\n", p.RapidMove, g.format(x1), g.format(y1)))

	numPasses := g.passes()
	for pass := 1; pass <= numPasses; pass++ {
		depth := g.passDepthAt(pass)
		b.WriteString(fmt.Sprintf("%s Z%s F%s\n", p.FeedMove, g.format(-depth), g.format(g.Settings.PlungeRate)))
		tx, ty := x2, y2
		if pass%2 == 0 {
			tx, ty = x1, y1
		}
		b.WriteString(fmt.Sprintf("%s X%s Y%s F%s\n", p.FeedMove, g.format(tx), g.format(ty), g.format(g.Settings.FeedRate)))
	}

	b.WriteString(fmt.Sprintf("%s Z%s\n", p.RapidMove, g.format(g.Settings.SafeZ)))
	b.WriteString("\n")
}

func (g *Generator) passes() int {
	if g.Settings.PassDepth <= 0 || g.Settings.CutDepth <= 0 {
		return 1
	}
	return int(math.Ceil(g.Settings.CutDepth / g.Settings.PassDepth))
}

func (g *Generator) passDepthAt(pass int) float64 {
	if g.Settings.PassDepth <= 0 {
		return g.Settings.CutDepth
	}
	return math.Min(float64(pass)*g.Settings.PassDepth, g.Settings.CutDepth)
}

// comment wraps text in the profile's comment syntax.
func (g *Generator) comment(text string) string {
	return g.profile.CommentPrefix + " " + text + g.profile.CommentSuffix + "\n"
}

// format formats a coordinate according to the profile's decimal places.
func (g *Generator) format(v float64) string {
	format := fmt.Sprintf("%%.%df", g.profile.DecimalPlaces)
	return fmt.Sprintf(format, v)
}

// onSheetEdge reports whether a cut runs along the outer boundary of the sheet.
func onSheetEdge(c model.Cut, layout model.LayoutResult) bool {
	if c.Axis == model.AxisVertical {
		return c.X1.IsZero() || c.X1.Equal(layout.Width)
	}
	return c.Y1.IsZero() || c.Y1.Equal(layout.Height)
}

// CutLength returns the total cutting distance of a plan, edge cuts excluded
// when skipEdges is set.
func CutLength(plan *model.Plan, skipEdges bool) decimal.Decimal {
	total := decimal.Zero
	for _, l := range plan.Layouts {
		for _, c := range l.Cuts {
			if skipEdges && onSheetEdge(c, l) {
				continue
			}
			total = total.Add(c.Length())
		}
	}
	return total
}
