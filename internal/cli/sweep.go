package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/transition-gate/internal/report"
	"github.com/danielpatrickdp/transition-gate/internal/sweep"
)

type sweepOptions struct {
	plan   string
	gridN  int
	taus   []float64
	bands  []float64
	outCSV string
}

func (a *App) newSweepCmd() *cobra.Command {
	opts := &sweepOptions{}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Audit posture monotonicity across threshold configurations",
		Long: `Evaluate the gate on a regular grid over [0,1]^3 for each threshold
configuration and count steps that lower the posture.

Examples:
  ssts sweep --taus 0.55,0.62,0.70 --bands 0.02,0.05,0.10
  ssts sweep --plan sweep.yaml --out-csv sweep.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSweep(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.plan, "plan", "", "YAML plan (grid_n, thresholds, taus, bands)")
	cmd.Flags().IntVar(&opts.gridN, "grid-n", sweep.DefaultGridN, "grid points per axis")
	cmd.Flags().Float64SliceVar(&opts.taus, "taus", []float64{0.62}, "center thresholds")
	cmd.Flags().Float64SliceVar(&opts.bands, "bands", []float64{0.05}, "abstain half-widths")
	cmd.Flags().StringVar(&opts.outCSV, "out-csv", "", "results CSV path")
	return cmd
}

func (a *App) runSweep(cmd *cobra.Command, opts *sweepOptions) error {
	plan := sweep.Plan{GridN: opts.gridN, Taus: opts.taus, Bands: opts.bands}
	if opts.plan != "" {
		var err error
		plan, err = sweep.LoadPlan(opts.plan)
		if err != nil {
			return &UsageError{Err: err}
		}
		if cmd.Flags().Changed("grid-n") {
			plan.GridN = opts.gridN
		}
	}

	results, err := sweep.Run(plan)
	if err != nil {
		return &UsageError{Err: err}
	}
	table := report.Sweep(results)
	if opts.outCSV != "" {
		if err := report.WriteCSVFile(opts.outCSV, table); err != nil {
			return err
		}
	}

	fmt.Fprintf(a.stdout, "%-8s| %-8s| %7s| %7s| %7s| %s\n", "tau_low", "tau_high", "DENY", "ABSTAIN", "ALLOW", "Monotone")
	fmt.Fprintf(a.stdout, "%-8s+%-9s+%8s+%8s+%8s+%s\n", "--------", "---------", "--------", "--------", "--------", "---------")
	failed := 0
	for _, row := range table.Rows {
		fmt.Fprintf(a.stdout, "%-8s| %-8s| %7s| %7s| %7s| %s\n", row[0], row[1], row[4], row[5], row[6], row[11])
		if row[11] != "PASS" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d configurations violate monotonicity", failed)
	}
	return nil
}
