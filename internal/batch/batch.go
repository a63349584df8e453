package batch

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/montanaflynn/stats"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/transition-gate/internal/eval"
	"github.com/danielpatrickdp/transition-gate/internal/gate"
	"github.com/danielpatrickdp/transition-gate/internal/logging"
	"github.com/danielpatrickdp/transition-gate/internal/pipeline"
	"github.com/danielpatrickdp/transition-gate/internal/source"
	"github.com/danielpatrickdp/transition-gate/internal/telemetry"
)

// #region runner
// Runner evaluates many records against one gate.
type Runner struct {
	gate    *gate.Gate
	harness *eval.EvalHarness
	workers int
	logger  *bolt.Logger
}

// NewRunner binds a runner to g. A nil logger discards output.
func NewRunner(g *gate.Gate, opts Options, logger *bolt.Logger) *Runner {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{
		gate:    g,
		harness: eval.NewEvalHarness(opts.Eval, g.Config()),
		workers: workers,
		logger:  logger,
	}
}

// Run evaluates entries with bounded parallelism. Results keep input order.
// The only error is context cancellation.
func (r *Runner) Run(ctx context.Context, entries []source.Entry) (Outcome, error) {
	ctx, span := telemetry.Tracer("batch").Start(ctx, "batch.Run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("batch.records", len(entries)),
		attribute.Int("batch.workers", r.workers),
		attribute.Float64("gate.tau_low", r.gate.Config().Low),
		attribute.Float64("gate.tau_high", r.gate.Config().High),
	)

	out := Outcome{
		Entries:     entries,
		Evaluations: make([]pipeline.Evaluation, len(entries)),
		Checks:      make([]eval.EvalResult, len(entries)),
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(r.workers)
	for i := range entries {
		if gctx.Err() != nil {
			break
		}
		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ev := pipeline.Evaluate(entries[i].Record, r.gate)
			out.Evaluations[i] = ev
			out.Checks[i] = r.harness.Run(ev)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Outcome{}, fmt.Errorf("batch run: %w", err)
	}
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Outcome{}, fmt.Errorf("batch run: %w", err)
	}

	out.Summary = Summarize(out.Evaluations, out.Checks)
	for i, check := range out.Checks {
		if !check.Passed {
			r.logger.Warn().
				Int("line", entries[i].Line).
				Str("record_id", entries[i].RecordID).
				Str("reason", check.Reason).
				Msg("invariant violation")
		}
	}
	span.SetAttributes(
		attribute.Int("batch.malformed", out.Summary.Malformed),
		attribute.Int("batch.violations", out.Summary.Violations),
	)
	r.logger.Info().
		Int("total", out.Summary.Total).
		Int("allow", out.Summary.Postures[gate.PostureAllow]).
		Int("abstain", out.Summary.Postures[gate.PostureAbstain]).
		Int("deny", out.Summary.Postures[gate.PostureDeny]).
		Int("malformed", out.Summary.Malformed).
		Str("score_mean", strconv.FormatFloat(out.Summary.ScoreMean, 'f', 4, 64)).
		Msg("batch complete")
	return out, nil
}

// #endregion runner

// #region summarize
// Summarize aggregates evaluations. checks may be nil.
func Summarize(evs []pipeline.Evaluation, checks []eval.EvalResult) Summary {
	s := Summary{
		Total:    len(evs),
		Postures: make(map[gate.Posture]int, 3),
		Real:     make(map[gate.Posture]int, 3),
		NotReal:  make(map[gate.Posture]int, 3),
	}
	for _, p := range gate.Postures() {
		s.Postures[p] = 0
		s.Real[p] = 0
		s.NotReal[p] = 0
	}

	scores := make([]float64, 0, len(evs))
	for _, ev := range evs {
		s.Postures[ev.Posture()]++
		if ev.Malformed {
			s.Malformed++
			s.NotReal[ev.Posture()]++
			continue
		}
		if ev.Form.Identity() {
			s.Identity++
			s.NotReal[ev.Posture()]++
		} else {
			s.Real[ev.Posture()]++
		}
		if !math.IsNaN(ev.Score()) {
			scores = append(scores, ev.Score())
		}
	}
	for _, c := range checks {
		if !c.Passed {
			s.Violations++
		}
	}

	if len(scores) > 0 {
		s.ScoreMean, _ = stats.Mean(scores)
		s.ScoreMedian, _ = stats.Median(scores)
		s.ScoreP25, _ = stats.Percentile(scores, 25)
		s.ScoreP75, _ = stats.Percentile(scores, 75)
	}
	return s
}

// #endregion summarize
