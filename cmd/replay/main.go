package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/transition-gate/internal/gate"
	"github.com/danielpatrickdp/transition-gate/internal/replay"
	"github.com/danielpatrickdp/transition-gate/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to ssts.db (DB mode)")
	runID := flag.String("run", "", "run to replay in DB mode (default latest)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON or YAML (fixture mode)")
	tauLow := flag.Float64("tau-low", -1, "replay with this tau_low instead of the recorded one")
	tauHigh := flag.Float64("tau-high", -1, "replay with this tau_high instead of the recorded one")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/ssts.db [--run id] [--tau-low x --tau-high y]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	override := func(t gate.ThresholdConfig) gate.ThresholdConfig {
		if *tauLow >= 0 {
			t.Low = *tauLow
		}
		if *tauHigh >= 0 {
			t.High = *tauHigh
		}
		return t
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath, override)
	} else {
		exitCode = runDBMode(*dbPath, *runID, override)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

func runDBMode(dbPath, runID string, override func(gate.ThresholdConfig) gate.ThresholdConfig) int {
	st, err := store.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer st.Close()

	var run store.RunRecord
	if runID == "" {
		runs, err := st.ListRuns(1)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
			return 2
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "no runs found")
			return 2
		}
		run = runs[0]
	} else {
		run, err = st.GetRun(runID)
		if errors.Is(err, store.ErrRunNotFound) {
			fmt.Fprintf(os.Stderr, "run %s not found\n", runID)
			return 2
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "get run: %v\n", err)
			return 2
		}
	}

	rows, err := st.ListEvaluations(run.RunID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list evaluations: %v\n", err)
		return 2
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stderr, "run %s has no evaluations\n", run.RunID)
		return 2
	}

	g, err := gate.NewGate(override(run.Thresholds))
	if err != nil {
		fmt.Fprintf(os.Stderr, "thresholds: %v\n", err)
		return 2
	}

	fmt.Printf("Run %s (%s), %s\n\n", run.RunID, run.Source, g.Config())
	return printComparison(replay.Replay(replay.CasesFromRows(rows), g))
}

// #endregion db-mode

// #region fixture-mode

func runFixtureMode(path string, override func(gate.ThresholdConfig) gate.ThresholdConfig) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	cases, err := f.ToCases()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture cases: %v\n", err)
		return 2
	}
	g, err := gate.NewGate(override(f.Thresholds.ToThresholdConfig()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "thresholds: %v\n", err)
		return 2
	}
	return printComparison(replay.Replay(cases, g))
}

// #endregion fixture-mode

// #region output

// printComparison outputs a comparison table and returns the exit code.
func printComparison(results []replay.ReplayResult) int {
	fmt.Printf("%-18s| %-9s| %-9s| %-6s| %s\n", "Record", "Expected", "Replayed", "Match", "Diffs")
	fmt.Printf("%-18s+%-9s+%-9s+%-6s+%s\n",
		"------------------", "----------", "----------", "-------", "------")

	for _, r := range results {
		match := "DIFF"
		if r.Match() {
			match = "OK"
		}
		fmt.Printf("%-18s| %-9s| %-9s| %-6s| %s\n",
			r.ID, r.Expected, r.Evaluation.Posture(), match, strings.Join(r.Diffs, "; "))
	}

	s := replay.Summarize(results)
	diverge := s.Total - s.Matches
	fmt.Printf("\nSummary: %d total, %d match, %d diverge (%d posture, %d value)\n",
		s.Total, s.Matches, diverge, s.PostureDiffs, s.ValueDiffs)

	if diverge > 0 {
		return 1
	}
	return 0
}

// #endregion output
