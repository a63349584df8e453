package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/transition-gate/internal/canon"
	"github.com/danielpatrickdp/transition-gate/internal/logging"
	"github.com/danielpatrickdp/transition-gate/internal/pipeline"
)

type evaluateOptions struct {
	r, c, p string
	jsonOut bool
}

func (a *App) newEvaluateCmd() *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate one R>C>P record",
		Long: `Evaluate one record and print its canonical form, coordinates and posture.

Examples:
  ssts evaluate --r CC --c Pd/C --p CCC
  ssts evaluate --r "O.CC" --p CCO --tau-low 0.5 --tau-high 0.7 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEvaluate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.r, "r", "", "reactant side")
	cmd.Flags().StringVar(&opts.c, "c", "", "context (may be empty)")
	cmd.Flags().StringVar(&opts.p, "p", "", "product side")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "output as JSON")
	return cmd
}

func (a *App) runEvaluate(cmd *cobra.Command, opts *evaluateOptions) error {
	env, err := a.setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close(cmd.Context())

	ev := pipeline.Evaluate(canon.Record{R: opts.r, C: opts.c, P: opts.p}, env.gate)
	rec := logging.NewEvaluationRecord("", ev, env.gate.Config())

	if env.store != nil {
		if err := logging.LogEvaluation(env.store.DB(), "", "cli", rec); err != nil {
			return err
		}
	}

	if opts.jsonOut {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	if ev.Malformed {
		fmt.Fprintf(a.stdout, "Malformed:  %v\n", ev.Err)
	} else {
		fmt.Fprintf(a.stdout, "R_canon:    %s\n", ev.Form.R)
		fmt.Fprintf(a.stdout, "C_canon:    %s\n", ev.Form.C)
		fmt.Fprintf(a.stdout, "P_canon:    %s\n", ev.Form.P)
		fmt.Fprintf(a.stdout, "g a c:      %.2f %.2f %.2f\n", ev.Coordinate.G, ev.Coordinate.A, ev.Coordinate.C)
	}
	fmt.Fprintf(a.stdout, "Score:      %.2f\n", ev.Score())
	fmt.Fprintf(a.stdout, "Posture:    %s\n", ev.Posture())
	fmt.Fprintf(a.stdout, "Reason:     %s\n", ev.Result.Reason)
	fmt.Fprintf(a.stdout, "Thresholds: %s\n", env.gate.Config())
	return nil
}
