package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/cutplan/internal/engine"
	"github.com/piwi3910/cutplan/internal/model"
)

// compareCommand creates the compare command.
func (c *CLI) compareCommand() *cobra.Command {
	var (
		flags settingsFlags
		modes string
	)

	cmd := &cobra.Command{
		Use:   "compare [project]",
		Short: "Run several optimization modes on a project and compare them",
		Long: `Run each optimization mode on the same project and print sheets used,
cut count and waste side by side. The best mode uses the fewest sheets, with
lower waste breaking ties.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			p, err := c.loadProject(cmd, args[0], cfg, &flags)
			if err != nil {
				return err
			}
			selected, err := parseModes(modes)
			if err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			results, err := engine.CompareModes(p.Settings, selected, p.Sheets, p.Pieces, c.Logger)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Compared %d modes", len(results)))

			out := cmd.OutOrStdout()
			printComparison(out, results)
			if _, ok := engine.Best(results); !ok {
				printWarning(out, "No mode produced a plan")
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&modes, "modes", "", "comma-separated modes to compare (default: all)")

	return cmd
}

// parseModes parses the --modes flag. An empty value selects every mode.
func parseModes(s string) ([]model.Mode, error) {
	if strings.TrimSpace(s) == "" {
		return model.Modes, nil
	}
	var modes []model.Mode
	for _, part := range strings.Split(s, ",") {
		m := model.Mode(strings.ToLower(strings.TrimSpace(part)))
		if !validMode(m) {
			return nil, fmt.Errorf("invalid mode: %s (must be one of %s)", part, joinModes())
		}
		modes = append(modes, m)
	}
	return modes, nil
}

func validMode(m model.Mode) bool {
	for _, known := range model.Modes {
		if m == known {
			return true
		}
	}
	return false
}

func joinModes() string {
	names := make([]string, len(model.Modes))
	for i, m := range model.Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
