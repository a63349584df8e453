package pipeline

import (
	"github.com/danielpatrickdp/transition-gate/internal/canon"
	"github.com/danielpatrickdp/transition-gate/internal/coords"
	"github.com/danielpatrickdp/transition-gate/internal/gate"
)

// #region evaluation
// Evaluation is the full trace of one record through canonicalize, coordinates
// and gate. For malformed records Form and Coordinate are zero and Result.Score is NaN.
type Evaluation struct {
	Record     canon.Record
	Form       canon.Form
	Coordinate coords.Coordinate
	Result     gate.Result
	Malformed  bool
	Err        error
}

// Score is a shorthand for Result.Score.
func (e Evaluation) Score() float64 { return e.Result.Score }

// Posture is a shorthand for Result.Posture.
func (e Evaluation) Posture() gate.Posture { return e.Result.Posture }

// #endregion evaluation

// #region evaluate
// Evaluate runs one record through the pipeline. It never fails: a record that
// cannot be canonicalized is reported as Malformed with an ABSTAIN posture.
func Evaluate(rec canon.Record, g *gate.Gate) Evaluation {
	form, err := canon.Canonicalize(rec)
	if err != nil {
		return Evaluation{
			Record:    rec,
			Result:    g.Malformed(),
			Malformed: true,
			Err:       err,
		}
	}
	c := coords.Derive(form)
	return Evaluation{
		Record:     rec,
		Form:       form,
		Coordinate: c,
		Result:     g.Evaluate(c),
	}
}

// EvaluateAll evaluates records sequentially, preserving order.
func EvaluateAll(recs []canon.Record, g *gate.Gate) []Evaluation {
	out := make([]Evaluation, len(recs))
	for i, rec := range recs {
		out[i] = Evaluate(rec, g)
	}
	return out
}

// #endregion evaluate
