package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/danielpatrickdp/transition-gate/internal/gate"
	"github.com/danielpatrickdp/transition-gate/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to ssts.db")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show evaluations of one run")
	posture := flag.String("posture", "", "filter run detail to DENY, ABSTAIN or ALLOW")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/ssts.db [--last N] [--run id] [--posture P] [--json]")
		os.Exit(2)
	}
	var filter gate.Posture
	if *posture != "" {
		p, err := gate.ParsePosture(*posture)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		filter = p
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if *runID != "" {
		err = runDetailMode(st, *runID, filter, *jsonOut)
	} else {
		err = runListMode(st, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID       string          `json:"run_id"`
	Source      string          `json:"source"`
	TauLow      float64         `json:"tau_low"`
	TauHigh     float64         `json:"tau_high"`
	RecordCount int             `json:"record_count"`
	Summary     json.RawMessage `json:"summary,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

func runListMode(st *store.Store, last int, jsonOut bool) error {
	runs, err := st.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]listRow, len(runs))
	for i, r := range runs {
		lr := listRow{
			RunID:       r.RunID,
			Source:      r.Source,
			TauLow:      r.Thresholds.Low,
			TauHigh:     r.Thresholds.High,
			RecordCount: r.RecordCount,
			CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
		if r.SummaryJSON != "" {
			lr.Summary = json.RawMessage(r.SummaryJSON)
		}
		rows[i] = lr
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-12s  %-24s  %7s  %7s  %7s  %s\n", "Run", "Source", "TauLow", "TauHigh", "Records", "Time")
	fmt.Printf("%-12s+-%-24s+-%7s+-%7s+-%7s+-%s\n",
		"------------", "------------------------", "-------", "-------", "-------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-12s  %-24s  %7.4f  %7.4f  %7d  %s\n",
			shortID(r.RunID), truncate(r.Source, 24), r.TauLow, r.TauHigh, r.RecordCount, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailRow struct {
	Seq       int      `json:"seq"`
	RecordID  string   `json:"record_id,omitempty"`
	R         string   `json:"r_canon"`
	C         string   `json:"c_canon"`
	P         string   `json:"p_canon"`
	G         float64  `json:"g"`
	A         float64  `json:"a"`
	K         float64  `json:"c_support"`
	Score     *float64 `json:"score"`
	Posture   string   `json:"posture"`
	Reason    string   `json:"reason"`
	Malformed bool     `json:"malformed"`
}

func runDetailMode(st *store.Store, runID string, filter gate.Posture, jsonOut bool) error {
	run, err := st.GetRun(runID)
	if err != nil {
		return err
	}
	evs, err := st.ListEvaluations(run.RunID)
	if err != nil {
		return err
	}

	var rows []detailRow
	counts := make(map[gate.Posture]int, 3)
	for _, e := range evs {
		counts[e.Posture]++
		if filter != "" && e.Posture != filter {
			continue
		}
		dr := detailRow{
			Seq:       e.Seq,
			RecordID:  e.RecordID,
			R:         e.RCanon,
			C:         e.CCanon,
			P:         e.PCanon,
			G:         e.G,
			A:         e.A,
			K:         e.K,
			Posture:   string(e.Posture),
			Reason:    string(e.Reason),
			Malformed: e.Malformed,
		}
		if !math.IsNaN(e.Score) {
			s := e.Score
			dr.Score = &s
		}
		rows = append(rows, dr)
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("Run:        %s\n", run.RunID)
	fmt.Printf("Source:     %s\n", run.Source)
	fmt.Printf("Thresholds: %s\n", run.Thresholds)
	fmt.Printf("Records:    %d\n\n", run.RecordCount)

	fmt.Printf("%5s  %-20s  %-10s  %-20s  %5s  %5s  %3s  %6s  %-8s  %s\n",
		"Seq", "R", "C", "P", "g", "a", "c", "Score", "Posture", "Reason")
	for _, r := range rows {
		score := "NaN"
		if r.Score != nil {
			score = fmt.Sprintf("%.4f", *r.Score)
		}
		fmt.Printf("%5d  %-20s  %-10s  %-20s  %5.2f  %5.2f  %3.0f  %6s  %-8s  %s\n",
			r.Seq, truncate(r.R, 20), truncate(r.C, 10), truncate(r.P, 20),
			r.G, r.A, r.K, score, r.Posture, r.Reason)
	}

	fmt.Printf("\nPostures:")
	for _, p := range gate.Postures() {
		fmt.Printf(" %s=%d", p, counts[p])
	}
	fmt.Println()
	return nil
}

// #endregion detail-mode

// #region helpers

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}

// #endregion helpers
