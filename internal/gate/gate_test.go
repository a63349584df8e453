package gate

import (
	"errors"
	"math"
	"testing"

	"github.com/danielpatrickdp/transition-gate/internal/coords"
)

func mustGate(t *testing.T, low, high float64) *Gate {
	t.Helper()
	g, err := NewGate(ThresholdConfig{Low: low, High: high})
	if err != nil {
		t.Fatalf("NewGate(%v, %v): %v", low, high, err)
	}
	return g
}

func TestGateAllowAtOrAboveHigh(t *testing.T) {
	g := mustGate(t, 0.5, 0.7)
	r := g.Evaluate(coords.Coordinate{G: 0.8, A: 0.8, C: 1})
	if r.Posture != PostureAllow {
		t.Fatalf("expected ALLOW, got %s (score %.4f)", r.Posture, r.Score)
	}
	if r.Reason != ReasonAdmissible {
		t.Fatalf("expected %s, got %s", ReasonAdmissible, r.Reason)
	}
}

func TestGateBoundaryExactness(t *testing.T) {
	// thresholds are set to the computed score so equality is bit-exact
	c := coords.Coordinate{G: 0.6, A: 0.3, C: 0}
	score := Score(c)

	atHigh := mustGate(t, 0, score)
	if r := atHigh.Evaluate(c); r.Posture != PostureAllow {
		t.Fatalf("score == tau_high should ALLOW, got %s", r.Posture)
	}

	atLow := mustGate(t, score, 1)
	if r := atLow.Evaluate(c); r.Posture != PostureAbstain {
		t.Fatalf("score == tau_low should ABSTAIN, got %s", r.Posture)
	}

	justBelow := mustGate(t, math.Nextafter(score, 1), 1)
	if r := justBelow.Evaluate(c); r.Posture != PostureDeny {
		t.Fatalf("score just below tau_low should DENY, got %s", r.Posture)
	}

	justAbove := mustGate(t, 0, math.Nextafter(score, 1))
	if r := justAbove.Evaluate(c); r.Posture != PostureAbstain {
		t.Fatalf("score just below tau_high should ABSTAIN, got %s", r.Posture)
	}
}

func TestGateCollapsedBand(t *testing.T) {
	g := mustGate(t, 0.5, 0.5)
	if r := g.Evaluate(coords.Coordinate{G: 0.5, A: 0.5, C: 0.5}); r.Posture != PostureAllow {
		t.Fatalf("score at collapsed band should ALLOW, got %s", r.Posture)
	}
	if r := g.Evaluate(coords.Coordinate{G: 0.4, A: 0.5, C: 0.5}); r.Posture != PostureDeny {
		t.Fatalf("score below collapsed band should DENY, got %s", r.Posture)
	}
}

func TestGateMonotonicity(t *testing.T) {
	const n = 21
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(i) / float64(n-1)
	}
	configs := []ThresholdConfig{
		DefaultThresholdConfig(),
		{Low: 0, High: 0},
		{Low: 1, High: 1},
		{Low: 0.3, High: 0.9},
		FromBand(0.55, 0.08),
	}

	for _, cfg := range configs {
		g := mustGate(t, cfg.Low, cfg.High)
		for _, gv := range vals {
			for _, av := range vals {
				for _, cv := range []float64{0, 1} {
					base := g.Evaluate(coords.Coordinate{G: gv, A: av, C: cv}).Posture.Rank()
					for _, step := range vals {
						up := []coords.Coordinate{
							{G: math.Max(gv, step), A: av, C: cv},
							{G: gv, A: math.Max(av, step), C: cv},
							{G: gv, A: av, C: 1},
						}
						for _, u := range up {
							if got := g.Evaluate(u).Posture.Rank(); got < base {
								t.Fatalf("%s: raising (%v,%v,%v) to %+v lowered rank %d -> %d",
									cfg, gv, av, cv, u, base, got)
							}
						}
					}
				}
			}
		}
	}
}

func TestGateDenyReasons(t *testing.T) {
	g := mustGate(t, 0.9, 0.95)
	tests := []struct {
		c    coords.Coordinate
		want ReasonCode
	}{
		{coords.Coordinate{G: 0.1, A: 0.1, C: 0}, ReasonAlignInsufficient},
		{coords.Coordinate{G: 0.5, A: 0.1, C: 0}, ReasonAccessLow},
		{coords.Coordinate{G: 0.5, A: 0.5, C: 0}, ReasonConstraintTooWeak},
		{coords.Coordinate{G: 0.5, A: 0.5, C: 1}, ReasonBelowThreshold},
	}
	for _, tt := range tests {
		r := g.Evaluate(tt.c)
		if r.Posture != PostureDeny {
			t.Fatalf("%+v: expected DENY, got %s", tt.c, r.Posture)
		}
		if r.Reason != tt.want {
			t.Errorf("%+v: expected %s, got %s", tt.c, tt.want, r.Reason)
		}
	}
}

func TestGateNearThresholdReason(t *testing.T) {
	g := mustGate(t, 0.3, 0.9)
	r := g.Evaluate(coords.Coordinate{G: 0.5, A: 0.5, C: 0})
	if r.Posture != PostureAbstain || r.Reason != ReasonNearThreshold {
		t.Fatalf("expected ABSTAIN/%s, got %s/%s", ReasonNearThreshold, r.Posture, r.Reason)
	}
}

func TestGateMalformed(t *testing.T) {
	g := mustGate(t, 0, 0)
	r := g.Malformed()
	if r.Posture != PostureAbstain {
		t.Fatalf("malformed must ABSTAIN, got %s", r.Posture)
	}
	if !math.IsNaN(r.Score) {
		t.Fatalf("malformed score must be NaN, got %v", r.Score)
	}
	if r.Reason != ReasonMalformedInput {
		t.Fatalf("expected %s, got %s", ReasonMalformedInput, r.Reason)
	}
}

func TestClassifyFrozenScores(t *testing.T) {
	tests := []struct {
		g, a, c   float64
		low, high float64
		score     float64
		want      Posture
	}{
		{2.0 / 3.0, 0.5, 1, 0.5, 0.70, 0.7222, PostureAllow},
		{2.0 / 3.0, 0.5, 0, 0.5, 0.70, 0.3889, PostureDeny},
		{0.75, 0.5, 1, 0.5, 0.70, 0.75, PostureAllow},
		{1, 0.5, 0, 0.5, 0.70, 0.5, PostureAbstain},
	}
	for _, tt := range tests {
		score, p := Classify(tt.g, tt.a, tt.c, tt.low, tt.high)
		if math.Abs(score-tt.score) > 1e-4 {
			t.Errorf("score: expected %.4f, got %.4f", tt.score, score)
		}
		if p != tt.want {
			t.Errorf("(%v,%v,%v): expected %s, got %s", tt.g, tt.a, tt.c, tt.want, p)
		}
	}
}

func TestThresholdValidate(t *testing.T) {
	bad := []ThresholdConfig{
		{Low: -0.1, High: 0.5},
		{Low: 0.2, High: 1.1},
		{Low: 0.7, High: 0.6},
		{Low: math.NaN(), High: 0.6},
	}
	for _, cfg := range bad {
		if _, err := NewGate(cfg); !errors.Is(err, ErrInvalidThresholds) {
			t.Errorf("%+v: expected ErrInvalidThresholds, got %v", cfg, err)
		}
	}
	if err := DefaultThresholdConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestFromBandClamps(t *testing.T) {
	cfg := FromBand(0.98, 0.05)
	if cfg.High != 1 {
		t.Errorf("expected high clamped to 1, got %v", cfg.High)
	}
	cfg = FromBand(0.02, 0.05)
	if cfg.Low != 0 {
		t.Errorf("expected low clamped to 0, got %v", cfg.Low)
	}
	if err := FromBand(0.62, 0.05).Validate(); err != nil {
		t.Fatalf("FromBand(0.62, 0.05) invalid: %v", err)
	}
}

func TestPostureRankAndParse(t *testing.T) {
	if !(PostureDeny.Rank() < PostureAbstain.Rank() && PostureAbstain.Rank() < PostureAllow.Rank()) {
		t.Fatal("ranks must order DENY < ABSTAIN < ALLOW")
	}
	if Posture("MAYBE").Rank() != -1 {
		t.Fatal("unknown posture should rank -1")
	}
	for _, p := range Postures() {
		got, err := ParsePosture(string(p))
		if err != nil || got != p {
			t.Errorf("ParsePosture(%s) = %s, %v", p, got, err)
		}
	}
	if _, err := ParsePosture("allow"); err == nil {
		t.Error("expected lower-case token to be rejected")
	}
}
