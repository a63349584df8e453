package replay

import (
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/transition-gate/internal/canon"
	"github.com/danielpatrickdp/transition-gate/internal/coords"
	"github.com/danielpatrickdp/transition-gate/internal/gate"
)

// #region fixture-tests

// TestFixture_FrozenVectors replays the reference records. If the
// canonicalizer, coordinates or gate drift, this catches it.
func TestFixture_FrozenVectors(t *testing.T) {
	runFixture(t, filepath.Join("testdata", "frozen_vectors.json"), 4)
}

func TestFixture_MalformedYAML(t *testing.T) {
	runFixture(t, filepath.Join("testdata", "malformed.yaml"), 3)
}

// TestFixture_CanonicalCases gates paired coordinates that differ in a
// single axis, one pair per mechanism family.
func TestFixture_CanonicalCases(t *testing.T) {
	runFixture(t, filepath.Join("testdata", "canonical_cases.yaml"), 10)
}

func TestReplayCoordinateCaseIgnoresRecord(t *testing.T) {
	g := gate.Must(gate.DefaultThresholdConfig())
	cases := []Case{{
		ID:         "coordinate-only",
		Record:     canon.Record{R: "", P: ""},
		Coordinate: &coords.Coordinate{G: 0.9, A: 0.9, C: 0.9},
		Posture:    gate.PostureAllow,
	}}
	r := Replay(cases, g)[0]
	if !r.Match() {
		t.Fatalf("expected match, diffs %v", r.Diffs)
	}
	if r.Evaluation.Malformed {
		t.Fatal("coordinate case must not be canonicalized")
	}
}

func runFixture(t *testing.T, path string, n int) {
	t.Helper()
	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	g, err := gate.NewGate(f.Thresholds.ToThresholdConfig())
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	cases, err := f.ToCases()
	if err != nil {
		t.Fatalf("ToCases: %v", err)
	}
	if len(cases) != n {
		t.Fatalf("expected %d cases, got %d", n, len(cases))
	}

	results := Replay(cases, g)
	for _, r := range results {
		if !r.Match() {
			t.Errorf("case %s: %v", r.ID, r.Diffs)
		}
	}
	s := Summarize(results)
	if s.Matches != n || s.PostureDiffs != 0 || s.ValueDiffs != 0 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

// #endregion fixture-tests

// #region harness-tests

func TestReplayDetectsPostureDrift(t *testing.T) {
	g := gate.Must(gate.DefaultThresholdConfig())
	cases := []Case{{ID: "x", Record: canon.Record{R: "CC", P: "CCC"}, Posture: gate.PostureAllow}}

	results := Replay(cases, g)
	if results[0].PostureMatch {
		t.Fatal("expected posture mismatch")
	}
	if len(results[0].Diffs) != 1 {
		t.Fatalf("expected one diff, got %v", results[0].Diffs)
	}
	if s := Summarize(results); s.PostureDiffs != 1 || s.Matches != 0 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestReplayDetectsValueDrift(t *testing.T) {
	g := gate.Must(gate.DefaultThresholdConfig())
	wrong := 0.80
	cases := []Case{{
		ID:      "y",
		Record:  canon.Record{R: "CC", C: "Pd/C", P: "CCC"},
		Posture: gate.PostureAllow,
		Score:   &wrong,
	}}

	r := Replay(cases, g)[0]
	if !r.PostureMatch || r.ValuesMatch {
		t.Fatalf("expected value-only mismatch, got %+v", r)
	}
}

func TestToCaseRejectsUnknownPosture(t *testing.T) {
	fc := FixtureCase{ID: "bad", R: "CC", P: "CC", Expected: FixtureExpected{Posture: "MAYBE"}}
	if _, err := fc.ToCase(); err == nil {
		t.Fatal("expected error for unknown posture")
	}
}

// #endregion harness-tests
