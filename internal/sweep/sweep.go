package sweep

import (
	"github.com/danielpatrickdp/transition-gate/internal/coords"
	"github.com/danielpatrickdp/transition-gate/internal/gate"
)

// #region result
// Result is the sweep outcome for one threshold configuration.
type Result struct {
	Thresholds gate.ThresholdConfig
	GridN      int
	Points     int
	Counts     map[gate.Posture]int

	// Rank decreases for a +1 grid step on G, A, C respectively.
	AxisViolations [3]int
	// Rank decreases for a simultaneous +1 step on all three axes.
	DiagonalViolations int
}

// Monotone reports whether no step lowered the posture.
func (r Result) Monotone() bool {
	return r.DiagonalViolations == 0 &&
		r.AxisViolations[0] == 0 && r.AxisViolations[1] == 0 && r.AxisViolations[2] == 0
}

// #endregion result

// #region run
// Run sweeps every configuration of the plan.
func Run(p Plan) ([]Result, error) {
	configs, err := p.Configs()
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(configs))
	for _, cfg := range configs {
		g, err := gate.NewGate(cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, Probe(g, p.gridN()))
	}
	return out, nil
}

// Probe evaluates g on an n x n x n grid over [0,1]^3 and audits monotonicity.
func Probe(g *gate.Gate, n int) Result {
	vals := GridValues(n)
	ranks := make([]int, n*n*n)
	idx := func(i, j, k int) int { return (i*n+j)*n + k }

	res := Result{
		Thresholds: g.Config(),
		GridN:      n,
		Points:     n * n * n,
		Counts:     make(map[gate.Posture]int, 3),
	}
	for _, p := range gate.Postures() {
		res.Counts[p] = 0
	}

	for i, gv := range vals {
		for j, av := range vals {
			for k, cv := range vals {
				p := g.Evaluate(coords.Coordinate{G: gv, A: av, C: cv}).Posture
				res.Counts[p]++
				ranks[idx(i, j, k)] = p.Rank()
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				base := ranks[idx(i, j, k)]
				if i+1 < n && ranks[idx(i+1, j, k)] < base {
					res.AxisViolations[0]++
				}
				if j+1 < n && ranks[idx(i, j+1, k)] < base {
					res.AxisViolations[1]++
				}
				if k+1 < n && ranks[idx(i, j, k+1)] < base {
					res.AxisViolations[2]++
				}
				if i+1 < n && j+1 < n && k+1 < n && ranks[idx(i+1, j+1, k+1)] < base {
					res.DiagonalViolations++
				}
			}
		}
	}
	return res
}

// GridValues returns n evenly spaced values from 0 to 1 inclusive.
func GridValues(n int) []float64 {
	if n < 2 {
		return []float64{0}
	}
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(i) / float64(n-1)
	}
	return vals
}

// #endregion run
