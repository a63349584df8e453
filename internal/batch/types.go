package batch

import (
	"runtime"

	"github.com/danielpatrickdp/transition-gate/internal/eval"
	"github.com/danielpatrickdp/transition-gate/internal/gate"
	"github.com/danielpatrickdp/transition-gate/internal/pipeline"
	"github.com/danielpatrickdp/transition-gate/internal/source"
)

// #region options
// Options configure a Runner.
type Options struct {
	Workers int // bounded parallelism; <= 0 means runtime.NumCPU()
	Eval    eval.EvalConfig
}

// DefaultOptions uses one worker per CPU and the default invariant checks.
func DefaultOptions() Options {
	return Options{
		Workers: runtime.NumCPU(),
		Eval:    eval.DefaultEvalConfig(),
	}
}

// #endregion options

// #region outcome
// Outcome is the ordered result of one batch run. Evaluations[i] and
// Checks[i] belong to Entries[i].
type Outcome struct {
	Entries     []source.Entry
	Evaluations []pipeline.Evaluation
	Checks      []eval.EvalResult
	Summary     Summary
}

// Summary aggregates a batch.
type Summary struct {
	Total      int                  `json:"total"`
	Postures   map[gate.Posture]int `json:"postures"`
	Malformed  int                  `json:"malformed"`
	Identity   int                  `json:"identity"`
	Violations int                  `json:"invariant_violations"`

	// Real counts records whose canonical sides are non-empty and differ.
	// Malformed and identity records land in NotReal.
	Real    map[gate.Posture]int `json:"real"`
	NotReal map[gate.Posture]int `json:"not_real"`

	// Score statistics over well-formed records; zero when there are none.
	ScoreMean   float64 `json:"score_mean"`
	ScoreMedian float64 `json:"score_median"`
	ScoreP25    float64 `json:"score_p25"`
	ScoreP75    float64 `json:"score_p75"`
}

// #endregion outcome
