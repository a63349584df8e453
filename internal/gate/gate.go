package gate

import (
	"math"

	"github.com/danielpatrickdp/transition-gate/internal/coords"
)

// #region gate
// Gate classifies structural coordinates against a fixed ThresholdConfig.
// It holds no mutable state and is safe for concurrent use.
type Gate struct {
	config ThresholdConfig
}

// NewGate validates the thresholds and returns a gate bound to them.
func NewGate(config ThresholdConfig) (*Gate, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Gate{config: config}, nil
}

// Must is NewGate for known-good thresholds; it panics on invalid input.
func Must(config ThresholdConfig) *Gate {
	g, err := NewGate(config)
	if err != nil {
		panic(err)
	}
	return g
}

// Config returns a copy of the thresholds the gate was built with.
func (g *Gate) Config() ThresholdConfig {
	return g.config
}

// Evaluate scores the coordinate and partitions the score:
// score >= High is ALLOW, Low <= score < High is ABSTAIN, score < Low is DENY.
// Comparisons run on the full-precision score.
func (g *Gate) Evaluate(c coords.Coordinate) Result {
	score := Score(c)
	posture := g.classify(score)
	return Result{
		Score:   score,
		Posture: posture,
		Reason:  reasonFor(posture, c),
	}
}

// Malformed is the result for a record that could not be canonicalized.
func (g *Gate) Malformed() Result {
	return Result{
		Score:   math.NaN(),
		Posture: PostureAbstain,
		Reason:  ReasonMalformedInput,
	}
}

func (g *Gate) classify(score float64) Posture {
	switch {
	case score >= g.config.High:
		return PostureAllow
	case score >= g.config.Low:
		return PostureAbstain
	default:
		return PostureDeny
	}
}

// #endregion gate

// #region classify
// Score is the unweighted mean of the three coordinates.
func Score(c coords.Coordinate) float64 {
	return (c.G + c.A + c.C) / 3
}

// Classify is the free-function form of the gate: (g, a, c, tau_low, tau_high)
// to (score, posture). Thresholds are not validated here.
func Classify(g, a, c, low, high float64) (float64, Posture) {
	gt := &Gate{config: ThresholdConfig{Low: low, High: high}}
	r := gt.Evaluate(coords.Coordinate{G: g, A: a, C: c})
	return r.Score, r.Posture
}

// #endregion classify

// #region helpers
// reasonFor refines DENY by the first coordinate that is clearly insufficient.
func reasonFor(p Posture, c coords.Coordinate) ReasonCode {
	switch p {
	case PostureAllow:
		return ReasonAdmissible
	case PostureAbstain:
		return ReasonNearThreshold
	}
	switch {
	case c.G < denyRefinementCutoff:
		return ReasonAlignInsufficient
	case c.A < denyRefinementCutoff:
		return ReasonAccessLow
	case c.C < denyRefinementCutoff:
		return ReasonConstraintTooWeak
	default:
		return ReasonBelowThreshold
	}
}

// #endregion helpers
