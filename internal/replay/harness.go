package replay

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/transition-gate/internal/canon"
	"github.com/danielpatrickdp/transition-gate/internal/coords"
	"github.com/danielpatrickdp/transition-gate/internal/gate"
	"github.com/danielpatrickdp/transition-gate/internal/pipeline"
)

// #region types
// Case is one record with its expected outcome. Nil value fields are not checked.
type Case struct {
	ID      string
	Record  canon.Record
	Posture gate.Posture
	Reason  gate.ReasonCode // empty means unchecked

	// Coordinate, when set, is gated as is and Record is ignored.
	Coordinate *coords.Coordinate

	G, A, C, Score *float64
}

// ReplayResult captures the outcome of replaying one case.
type ReplayResult struct {
	ID         string
	Expected   gate.Posture
	Evaluation pipeline.Evaluation

	PostureMatch bool
	ValuesMatch  bool
	Diffs        []string
}

// Match reports whether both posture and checked values agree.
func (r ReplayResult) Match() bool {
	return r.PostureMatch && r.ValuesMatch
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Total        int
	Matches      int
	PostureDiffs int
	ValueDiffs   int
	Postures     map[gate.Posture]int
}

// #endregion types

// #region replay
// Replay evaluates every case against g and compares with expectations.
// Values are compared at two decimals, the precision of evidence output.
func Replay(cases []Case, g *gate.Gate) []ReplayResult {
	results := make([]ReplayResult, 0, len(cases))
	for _, c := range cases {
		ev := evaluate(c, g)
		r := ReplayResult{
			ID:           c.ID,
			Expected:     c.Posture,
			Evaluation:   ev,
			PostureMatch: ev.Posture() == c.Posture,
			ValuesMatch:  true,
		}
		if !r.PostureMatch {
			r.Diffs = append(r.Diffs, fmt.Sprintf("posture %s != %s", ev.Posture(), c.Posture))
		}
		check := func(name string, want *float64, got float64) {
			if want == nil || twoDecimals(*want) == twoDecimals(got) {
				return
			}
			r.ValuesMatch = false
			r.Diffs = append(r.Diffs, fmt.Sprintf("%s %.2f != %.2f", name, got, *want))
		}
		check("g", c.G, ev.Coordinate.G)
		check("a", c.A, ev.Coordinate.A)
		check("c", c.C, ev.Coordinate.C)
		check("score", c.Score, ev.Score())
		if c.Reason != "" && c.Reason != ev.Result.Reason {
			r.ValuesMatch = false
			r.Diffs = append(r.Diffs, fmt.Sprintf("reason %s != %s", ev.Result.Reason, c.Reason))
		}
		results = append(results, r)
	}
	return results
}

func evaluate(c Case, g *gate.Gate) pipeline.Evaluation {
	if c.Coordinate == nil {
		return pipeline.Evaluate(c.Record, g)
	}
	return pipeline.Evaluation{Coordinate: *c.Coordinate, Result: g.Evaluate(*c.Coordinate)}
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{
		Total:    len(results),
		Postures: make(map[gate.Posture]int, 3),
	}
	for _, r := range results {
		s.Postures[r.Evaluation.Posture()]++
		if r.Match() {
			s.Matches++
		}
		if !r.PostureMatch {
			s.PostureDiffs++
		}
		if !r.ValuesMatch {
			s.ValueDiffs++
		}
	}
	return s
}

// #endregion replay

func twoDecimals(x float64) string {
	if math.IsNaN(x) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", x)
}
