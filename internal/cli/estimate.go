package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/piwi3910/cutplan/internal/model"
)

// estimateCommand creates the estimate command.
func (c *CLI) estimateCommand() *cobra.Command {
	var (
		flags settingsFlags
		waste float64
	)

	cmd := &cobra.Command{
		Use:   "estimate [project]",
		Short: "Estimate how many sheets to buy from piece area alone",
		Long: `Estimate the number of sheets needed for a project from the total
kerf-inflated piece area. This is a lower bound; run 'optimize' for the real
count. The waste factor adds a safety margin on top.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if waste < 0 {
				return fmt.Errorf("invalid --waste %v: must not be negative", waste)
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			p, err := c.loadProject(cmd, args[0], cfg, &flags)
			if err != nil {
				return err
			}

			est := model.CalculatePurchaseEstimate(p.Pieces, p.Sheets[0], p.Settings.KerfWidth, decimal.NewFromFloat(waste))
			printEstimate(cmd.OutOrStdout(), est, p.Settings.Units)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().Float64Var(&waste, "waste", 10, "waste allowance in percent")

	return cmd
}
