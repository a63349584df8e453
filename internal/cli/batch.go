package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/transition-gate/internal/batch"
	"github.com/danielpatrickdp/transition-gate/internal/gate"
	"github.com/danielpatrickdp/transition-gate/internal/report"
	"github.com/danielpatrickdp/transition-gate/internal/source"
	"github.com/danielpatrickdp/transition-gate/internal/store"
)

type batchOptions struct {
	in         string
	outCSV     string
	outXLSX    string
	summaryCSV string
	everyK     int
	maxLines   int
	workers    int
	extended   bool
}

func (a *App) newBatchCmd() *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Evaluate every record of an RSMI or CSV file",
		Long: `Evaluate a file of records with bounded parallelism.

Input is chosen by extension: .csv needs R, C and P header columns;
.rsmi, .smi and .txt hold one reactants>reagents>products line each.

Examples:
  ssts batch --in reactions.rsmi --out-csv evidence.csv --summary-csv summary.csv
  ssts batch --in records.csv --out-xlsx report.xlsx --every-k 25 --db runs.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.in, "in", "", "input file (.rsmi, .smi, .txt or .csv)")
	cmd.Flags().StringVar(&opts.outCSV, "out-csv", "", "evidence CSV path")
	cmd.Flags().StringVar(&opts.outXLSX, "out-xlsx", "", "XLSX workbook path (evidence and summary sheets)")
	cmd.Flags().StringVar(&opts.summaryCSV, "summary-csv", "", "summary CSV path")
	cmd.Flags().IntVar(&opts.everyK, "every-k", 1, "keep every K-th row in evidence output")
	cmd.Flags().IntVar(&opts.maxLines, "max-lines", 0, "stop after N records (0 = all)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "parallel workers (overrides SSTS_WORKERS)")
	cmd.Flags().BoolVar(&opts.extended, "extended", false, "append record_id and reason columns")
	return cmd
}

func (a *App) runBatch(cmd *cobra.Command, opts *batchOptions) error {
	if opts.in == "" {
		return usagef("--in is required")
	}
	env, err := a.setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close(cmd.Context())

	src, err := source.Load(opts.in, source.Options{MaxLines: opts.maxLines})
	if err != nil {
		return err
	}
	env.logger.Info().Str("input", opts.in).Int("records", len(src.Entries)).Int("skipped", src.Skipped).Msg("input loaded")

	workers := env.cfg.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}
	bopts := batch.DefaultOptions()
	bopts.Workers = workers

	out, err := batch.NewRunner(env.gate, bopts, env.logger).Run(cmd.Context(), src.Entries)
	if err != nil {
		return err
	}

	evidence := report.Evidence(out.Entries, out.Evaluations, report.EvidenceOptions{Extended: opts.extended, EveryK: opts.everyK})
	summary := report.Summary(out.Summary)
	if opts.outCSV != "" {
		if err := report.WriteCSVFile(opts.outCSV, evidence); err != nil {
			return err
		}
	}
	if opts.summaryCSV != "" {
		if err := report.WriteCSVFile(opts.summaryCSV, summary); err != nil {
			return err
		}
	}
	if opts.outXLSX != "" {
		if err := report.WriteXLSX(opts.outXLSX, evidence, summary); err != nil {
			return err
		}
	}

	if env.store != nil {
		runID, err := persistRun(env.store, opts.in, env.gate.Config(), out)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Run:        %s\n", runID)
	}

	a.printSummary(out.Summary, src.Skipped)
	if out.Summary.Violations > 0 {
		return fmt.Errorf("%d invariant violations", out.Summary.Violations)
	}
	return nil
}

func persistRun(st *store.Store, sourcePath string, t gate.ThresholdConfig, out batch.Outcome) (string, error) {
	summaryJSON, err := json.Marshal(out.Summary)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	run, err := st.CreateRun(store.RunRecord{Source: sourcePath, Thresholds: t})
	if err != nil {
		return "", err
	}
	ids := make([]string, len(out.Entries))
	for i, e := range out.Entries {
		ids[i] = e.RecordID
	}
	if err := st.SaveEvaluations(run.RunID, out.Evaluations, ids); err != nil {
		return "", err
	}
	if err := st.FinishRun(run.RunID, len(out.Evaluations), string(summaryJSON)); err != nil {
		return "", err
	}
	return run.RunID, nil
}

func (a *App) printSummary(s batch.Summary, skipped int) {
	fmt.Fprintf(a.stdout, "%-22s| %s\n", "Metric", "Value")
	fmt.Fprintf(a.stdout, "%-22s+%s\n", "----------------------", "----------")
	for _, row := range report.Summary(s).Rows {
		fmt.Fprintf(a.stdout, "%-22s| %s\n", row[0], row[1])
	}
	fmt.Fprintf(a.stdout, "%-22s| %d\n", "skipped_lines", skipped)
}
