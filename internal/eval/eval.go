package eval

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/transition-gate/internal/gate"
	"github.com/danielpatrickdp/transition-gate/internal/pipeline"
)

// #region eval-harness
// EvalHarness re-checks a finished evaluation against the gate's contract.
type EvalHarness struct {
	config     EvalConfig
	thresholds gate.ThresholdConfig
}

// NewEvalHarness creates an eval harness for the given thresholds.
func NewEvalHarness(config EvalConfig, thresholds gate.ThresholdConfig) *EvalHarness {
	return &EvalHarness{config: config, thresholds: thresholds}
}

// Run validates one evaluation. Checks: coordinate bounds, score consistency,
// and posture placement relative to the thresholds.
func (h *EvalHarness) Run(ev pipeline.Evaluation) EvalResult {
	if ev.Malformed {
		return h.runMalformed(ev)
	}

	var metrics []EvalMetric
	var failReasons []string
	check := func(name string, value float64, pass bool, format string, args ...any) {
		metrics = append(metrics, EvalMetric{Name: name, Value: value, Pass: pass})
		if !pass {
			failReasons = append(failReasons, fmt.Sprintf(format, args...))
		}
	}

	c := ev.Coordinate
	check("g_bounds", c.G, c.G >= 0 && c.G <= 1, "g %.4f outside [0,1]", c.G)
	check("a_bounds", c.A, c.A > 0 && c.A <= 1, "a %.4f outside (0,1]", c.A)
	if h.config.StrictContext {
		check("c_binary", c.C, c.C == 0 || c.C == 1, "c %.4f not in {0,1}", c.C)
	}

	want := (c.G + c.A + c.C) / 3
	drift := math.Abs(ev.Score() - want)
	check("score_drift", drift, drift <= h.config.ScoreTolerance,
		"score %.6f differs from mean %.6f", ev.Score(), want)

	expected := placement(ev.Score(), h.thresholds)
	check("posture_placement", float64(ev.Posture().Rank()), ev.Posture() == expected,
		"posture %s, expected %s for score %.4f", ev.Posture(), expected, ev.Score())

	return summarize(metrics, failReasons)
}

func (h *EvalHarness) runMalformed(ev pipeline.Evaluation) EvalResult {
	nanScore := math.IsNaN(ev.Score())
	abstain := ev.Posture() == gate.PostureAbstain
	metrics := []EvalMetric{
		{Name: "malformed_nan_score", Value: ev.Score(), Pass: nanScore},
		{Name: "malformed_abstain", Value: float64(ev.Posture().Rank()), Pass: abstain},
	}
	var failReasons []string
	if !nanScore {
		failReasons = append(failReasons, fmt.Sprintf("malformed record scored %.4f", ev.Score()))
	}
	if !abstain {
		failReasons = append(failReasons, fmt.Sprintf("malformed record posture %s", ev.Posture()))
	}
	return summarize(metrics, failReasons)
}

// #endregion eval-harness

// #region helpers
func placement(score float64, t gate.ThresholdConfig) gate.Posture {
	switch {
	case score >= t.High:
		return gate.PostureAllow
	case score >= t.Low:
		return gate.PostureAbstain
	default:
		return gate.PostureDeny
	}
}

func summarize(metrics []EvalMetric, failReasons []string) EvalResult {
	reason := "all checks passed"
	if len(failReasons) == 1 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
	} else if len(failReasons) > 1 {
		reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
	}
	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion helpers
