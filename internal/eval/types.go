package eval

// #region eval-config
// EvalConfig holds tolerances for post-evaluation validation.
type EvalConfig struct {
	ScoreTolerance float64 // max |score - (g+a+c)/3|
	StrictContext  bool    // require c to be exactly 0 or 1
}

// DefaultEvalConfig returns the tolerances used by batch runs.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		ScoreTolerance: 1e-12,
		StrictContext:  true,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of validating one evaluation.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// #endregion eval-result
