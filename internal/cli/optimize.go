package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/piwi3910/cutplan/internal/cache"
	"github.com/piwi3910/cutplan/internal/engine"
	"github.com/piwi3910/cutplan/internal/export"
	"github.com/piwi3910/cutplan/internal/gcode"
	"github.com/piwi3910/cutplan/internal/importer"
	"github.com/piwi3910/cutplan/internal/model"
	"github.com/piwi3910/cutplan/internal/project"
)

// settingsFlags are the per-run overrides shared by optimize, compare and estimate.
type settingsFlags struct {
	mode   string
	kerf   string
	grain  string
	units  string
	pieces string // CSV, XLSX or DXF cut list appended to the project
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", "", "optimization mode: waste, cuts, sheets, grain, balanced")
	cmd.Flags().StringVar(&f.kerf, "kerf", "", "blade kerf width (overrides project settings)")
	cmd.Flags().StringVar(&f.grain, "grain", "", "grain importance: high, medium, low")
	cmd.Flags().StringVar(&f.units, "units", "", "unit system: imperial, metric")
	cmd.Flags().StringVar(&f.pieces, "pieces", "", "import additional pieces from a CSV, XLSX or DXF file")
}

// apply overlays the flags the user actually set onto s.
func (f *settingsFlags) apply(cmd *cobra.Command, s model.Settings) (model.Settings, error) {
	if cmd.Flags().Changed("mode") {
		s.Mode = model.Mode(strings.ToLower(f.mode))
		if !validMode(s.Mode) {
			return s, fmt.Errorf("invalid --mode %q (must be one of %s)", f.mode, joinModes())
		}
	}
	if cmd.Flags().Changed("kerf") {
		k, err := decimal.NewFromString(f.kerf)
		if err != nil {
			return s, fmt.Errorf("invalid --kerf %q: %w", f.kerf, err)
		}
		s.KerfWidth = k
	}
	if cmd.Flags().Changed("grain") {
		s.GrainImportance = model.GrainImportance(strings.ToLower(f.grain))
		switch s.GrainImportance {
		case model.GrainImportanceHigh, model.GrainImportanceMedium, model.GrainImportanceLow:
		default:
			return s, fmt.Errorf("invalid --grain %q (must be high, medium or low)", f.grain)
		}
	}
	if cmd.Flags().Changed("units") {
		s.Units = model.Units(strings.ToLower(f.units))
		if s.Units != model.UnitsImperial && s.Units != model.UnitsMetric {
			return s, fmt.Errorf("invalid --units %q (must be imperial or metric)", f.units)
		}
	}
	return s, model.ValidateSettings(s)
}

// loadProject reads the project file, appends imported pieces and applies
// the flag overrides.
func (c *CLI) loadProject(cmd *cobra.Command, path string, cfg project.AppConfig, f *settingsFlags) (model.Project, error) {
	p, err := project.LoadProject(path, cfg.Defaults)
	if err != nil {
		return model.Project{}, err
	}

	if f.pieces != "" {
		res, err := importer.Import(f.pieces)
		if err != nil {
			return model.Project{}, err
		}
		for _, w := range res.Warnings {
			c.Logger.Warn(w, "file", f.pieces)
		}
		if err := res.Err(); err != nil {
			return model.Project{}, fmt.Errorf("import %s: %w", f.pieces, err)
		}
		c.Logger.Info("Imported pieces", "count", len(res.Pieces), "file", filepath.Base(f.pieces))
		p.Pieces = append(p.Pieces, res.Pieces...)
	}

	p.Settings, err = f.apply(cmd, p.Settings)
	if err != nil {
		return model.Project{}, err
	}
	if err := model.ValidateInput(p.Sheets, p.Pieces); err != nil {
		return model.Project{}, err
	}
	return p, nil
}

// optimizeOpts holds the output flags of the optimize command.
type optimizeOpts struct {
	settingsFlags
	noCache  bool
	showPlan bool
	jsonOut  string // "-" writes the plan to stdout
	pdf      string
	labels   string
	dxf      string
	xlsx     string
	gcode    string // directory for per-sheet programs
	offcuts  string // project file receiving usable offcuts as sheets
}

// optimizeCommand creates the optimize command.
func (c *CLI) optimizeCommand() *cobra.Command {
	var opts optimizeOpts

	cmd := &cobra.Command{
		Use:   "optimize [project]",
		Short: "Pack a project's pieces onto sheets and produce a cutting plan",
		Long: `Pack a project's pieces onto stock sheets using guillotine cuts.

The project file may be JSON or TOML. Settings from the project can be
overridden with flags. The plan summary and operator instructions are printed;
use the output flags to write the plan as JSON, a PDF report, piece labels,
a DXF drawing, an XLSX workbook, per-sheet G-code programs or a project
holding the usable offcuts as stock.

Plans are cached locally keyed on the sheets, pieces and settings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOptimize(cmd, args[0], &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.showPlan, "instructions", true, "print the operator instructions")
	cmd.Flags().StringVarP(&opts.jsonOut, "output", "o", "", "write the plan as JSON (- for stdout)")
	cmd.Flags().StringVar(&opts.pdf, "pdf", "", "write a PDF report")
	cmd.Flags().StringVar(&opts.labels, "labels", "", "write a PDF sheet of piece labels")
	cmd.Flags().StringVar(&opts.dxf, "dxf", "", "write a DXF drawing of all layouts")
	cmd.Flags().StringVar(&opts.xlsx, "xlsx", "", "write an XLSX workbook")
	cmd.Flags().StringVar(&opts.gcode, "gcode", "", "write per-sheet G-code programs into this directory")
	cmd.Flags().StringVar(&opts.offcuts, "offcuts", "", "save usable offcuts as the sheets of a new project file")

	return cmd
}

func (c *CLI) runOptimize(cmd *cobra.Command, path string, opts *optimizeOpts) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	p, err := c.loadProject(cmd, path, cfg, &opts.settingsFlags)
	if err != nil {
		return err
	}

	store, err := newCache(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer store.Close()

	prog := newProgress(c.Logger)
	plan, hit, err := c.cachedPlan(ctx, store, cfg.Server, p)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if hit {
		c.Logger.Debug("plan cache hit")
	}
	prog.done(fmt.Sprintf("Optimized %d pieces onto %d sheets", plan.PlacedCount(), plan.Statistics.SheetsUsed))

	if err := c.writeOutputs(cmd, cfg, path, p, plan, opts); err != nil {
		return err
	}

	if opts.jsonOut != "-" {
		out := cmd.OutOrStdout()
		name := p.Name
		if name == "" {
			name = filepath.Base(path)
		}
		printPlanSummary(out, name, plan)
		if opts.showPlan {
			fmt.Fprintln(out)
			printInstructions(out, plan.Instructions)
		}
	}

	abs, err := filepath.Abs(path)
	if err == nil {
		cfg.AddRecentProject(abs)
		if err := project.SaveAppConfig(c.configPath, cfg); err != nil {
			c.Logger.Warn("could not update recent projects", "err", err)
		}
	}
	return nil
}

// cachedPlan returns the plan for p from the cache or computes and stores it.
func (c *CLI) cachedPlan(ctx context.Context, store cache.Cache, srv project.ServerConfig, p model.Project) (*model.Plan, bool, error) {
	key, err := cache.Key("plan", p.Sheets, p.Pieces, p.Settings)
	if err != nil {
		return nil, false, err
	}
	if data, ok, err := store.Get(ctx, key); err == nil && ok {
		var plan model.Plan
		if err := json.Unmarshal(data, &plan); err == nil {
			return &plan, true, nil
		}
	}

	plan, err := engine.New(p.Settings).WithLogger(c.Logger).Plan(p.Sheets, p.Pieces)
	if err != nil {
		return nil, false, err
	}
	if data, err := json.Marshal(plan); err == nil {
		if err := store.Set(ctx, key, data, srv.TTL()); err != nil {
			c.Logger.Debug("cache write failed", "err", err)
		}
	}
	return plan, false, nil
}

func (c *CLI) writeOutputs(cmd *cobra.Command, cfg project.AppConfig, path string, p model.Project, plan *model.Plan, opts *optimizeOpts) error {
	out := cmd.OutOrStdout()

	if opts.jsonOut != "" {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return err
		}
		if opts.jsonOut == "-" {
			if _, err := fmt.Fprintln(out, string(data)); err != nil {
				return err
			}
			// Keep stdout pure JSON for the remaining outputs.
			out = cmd.ErrOrStderr()
		} else {
			if err := os.WriteFile(opts.jsonOut, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", opts.jsonOut, err)
			}
			printSuccess(out, "Plan written to %s", opts.jsonOut)
		}
	}

	exports := []struct {
		path  string
		what  string
		write func(string) error
	}{
		{opts.pdf, "PDF report", func(dst string) error { return export.ExportPDF(dst, plan, p.Sheets[0]) }},
		{opts.labels, "Labels", func(dst string) error { return export.ExportLabels(dst, plan) }},
		{opts.dxf, "DXF drawing", func(dst string) error { return export.ExportDXF(dst, plan) }},
		{opts.xlsx, "Workbook", func(dst string) error { return export.ExportXLSX(dst, plan) }},
	}
	for _, e := range exports {
		if e.path == "" {
			continue
		}
		if err := e.write(e.path); err != nil {
			return err
		}
		printSuccess(out, "%s written to %s", e.what, e.path)
	}

	if opts.offcuts != "" {
		if err := writeOffcutStock(out, opts.offcuts, p, plan); err != nil {
			return err
		}
	}

	if opts.gcode != "" {
		if err := writeGCode(out, cfg, path, plan, opts.gcode); err != nil {
			return err
		}
	}
	return nil
}

// writeOffcutStock saves the plan's usable offcuts as the sheets of a new
// project so they can be cut from in a later run.
func writeOffcutStock(out io.Writer, dst string, p model.Project, plan *model.Plan) error {
	offcuts := planOffcuts(plan)
	if len(offcuts) == 0 {
		printWarning(out, "No usable offcuts, %s not written", dst)
		return nil
	}
	stock := model.NewProject()
	stock.Name = p.Name + " offcuts"
	stock.Settings = p.Settings
	for _, o := range offcuts {
		stock.Sheets = append(stock.Sheets, o.ToSheetSpec())
	}
	if err := project.SaveProject(dst, stock); err != nil {
		return err
	}
	printSuccess(out, "%d offcuts saved as stock to %s", len(offcuts), dst)
	return nil
}

// writeGCode writes one program per sheet and reports what each one cuts.
func writeGCode(out io.Writer, cfg project.AppConfig, path string, plan *model.Plan, dir string) error {
	custom, err := gcode.LoadCustomProfiles(cfg.CustomProfilesPath())
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	gen := gcode.New(cfg.GCode, custom...)
	files, err := gen.WriteFiles(dir, base, plan)
	if err != nil {
		return err
	}

	suffix := plan.Units.Suffix()
	printSuccess(out, "%d G-code programs written (%s)", len(files), gen.Profile().Name)
	printDetail(out, "Directory: %s", dir)
	printDetail(out, "Cut length: %s%s", gcode.CutLength(plan, cfg.GCode.SkipSheetEdges).StringFixed(1), suffix)
	for _, f := range files {
		s, err := gcode.SummarizeFile(f)
		if err != nil {
			return err
		}
		printDetail(out, "%s: %.1f%s feed, %.1f%s rapid, %d plunges",
			filepath.Base(f), s.FeedDistance, suffix, s.RapidDistance, suffix, s.Plunges)
	}
	return nil
}

// planOffcuts collects the usable offcuts of every sheet, largest first per sheet.
func planOffcuts(plan *model.Plan) []model.Offcut {
	var offcuts []model.Offcut
	for _, l := range plan.Layouts {
		offcuts = append(offcuts, l.Offcuts...)
	}
	return offcuts
}
