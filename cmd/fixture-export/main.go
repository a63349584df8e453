package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/transition-gate/internal/replay"
	"github.com/danielpatrickdp/transition-gate/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to ssts.db")
	runID := flag.String("run", "", "run to export (default latest)")
	last := flag.Int("last", 0, "export only the N final evaluations (0 = all)")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/ssts.db --out path/to/fixture.json [--run id] [--last N]")
		os.Exit(2)
	}

	if err := run(*dbPath, *runID, *last, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, runID string, last int, outPath string) error {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	var r store.RunRecord
	if runID == "" {
		runs, err := st.ListRuns(1)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return fmt.Errorf("no runs found")
		}
		r = runs[0]
	} else if r, err = st.GetRun(runID); err != nil {
		return err
	}

	rows, err := st.ListEvaluations(r.RunID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("run %s has no evaluations", r.RunID)
	}

	fixture := replay.ExportFixture(r, rows, last)
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}

	fmt.Printf("Exported %d cases from run %s to %s\n", len(fixture.Cases), r.RunID, outPath)
	return nil
}

// #endregion export
